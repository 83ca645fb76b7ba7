package wall

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/blessing"
	"github.com/jwy87/kaoyan/internal/bubbles"
	"github.com/jwy87/kaoyan/internal/generation"
)

const (
	AnonymousName   = "同学"
	AnonymousSchool = "理想院校"

	saveTimeout = 10 * time.Second
)

var (
	// ErrEmptyBlessing is returned when a submitted blessing is blank.
	ErrEmptyBlessing = errors.New("blessing is empty")
	// ErrBlessingTooLong is returned when a blessing exceeds blessing.MaxRunes.
	ErrBlessingTooLong = errors.New("blessing is too long")
	// ErrIncompleteInfo is returned by Enter when name or school is blank.
	ErrIncompleteInfo = errors.New("name and school are required")
	// ErrInvalidState is returned when an action does not fit the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
)

// API is the subset of the blessing client a session needs.
type API interface {
	FetchBlessings(ctx context.Context) []string
	SaveBlessing(ctx context.Context, content string) bool
	GenerateBlessing(ctx context.Context, user *bubbles.UserInfo) generation.Result
}

// Session is one visitor's view of the wall: who they are, where they are in
// the intro/wish flow, and the bubble scheduler feeding their screen.
type Session struct {
	api   API
	sched *bubbles.Scheduler
	log   *zerolog.Logger

	mu    sync.Mutex
	state State
	user  *bubbles.UserInfo
	wish  generation.Result

	saves sync.WaitGroup
}

// NewSession creates a session in the intro state.
func NewSession(api API, sched *bubbles.Scheduler, logger *zerolog.Logger) *Session {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Session{
		api:   api,
		sched: sched,
		log:   logger,
		state: StateIntro,
	}
}

// Scheduler returns the bubble scheduler driven by this session.
func (s *Session) Scheduler() *bubbles.Scheduler {
	return s.sched
}

// Load fetches community blessings into the scheduler and returns how many
// arrived. An empty response leaves the current pool untouched.
func (s *Session) Load(ctx context.Context) int {
	messages := s.api.FetchBlessings(ctx)
	if len(messages) > 0 {
		s.sched.SetCommunity(messages)
	}
	s.log.Debug().Int("count", len(messages)).Msg("community blessings loaded")
	return len(messages)
}

// State returns the current flow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the current visitor, or nil before the intro is done.
func (s *Session) User() *bubbles.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Enter completes the intro with a name and target school.
func (s *Session) Enter(name, school string) error {
	name, school = strings.TrimSpace(name), strings.TrimSpace(school)
	if name == "" || school == "" {
		return ErrIncompleteInfo
	}
	s.setUser(&bubbles.UserInfo{Name: name, School: school})
	return nil
}

// Skip completes the intro anonymously.
func (s *Session) Skip() {
	s.setUser(&bubbles.UserInfo{Name: AnonymousName, School: AnonymousSchool, IsAnonymous: true})
}

func (s *Session) setUser(user *bubbles.UserInfo) {
	s.mu.Lock()
	s.user = user
	s.state = StateIdle
	s.wish = generation.Result{}
	s.mu.Unlock()

	s.sched.SetUser(user)
}

// BackToIntro forgets the visitor and stops personalised bubbles.
func (s *Session) BackToIntro() {
	s.mu.Lock()
	s.user = nil
	s.state = StateIntro
	s.wish = generation.Result{}
	s.mu.Unlock()

	s.sched.SetUser(nil)
}

// Wish draws a blessing for the visitor. The session is Generating while the
// request runs and ShowWish afterwards.
func (s *Session) Wish(ctx context.Context) (generation.Result, error) {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateShowWish {
		state := s.state
		s.mu.Unlock()
		s.log.Debug().Stringer("state", state).Msg("wish requested in wrong state")
		return generation.Result{}, ErrInvalidState
	}
	s.state = StateGenerating
	user := *s.user
	s.mu.Unlock()

	res := s.api.GenerateBlessing(ctx, &user)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateGenerating {
		// The visitor went back to the intro while waiting.
		return res, ErrInvalidState
	}
	s.state = StateShowWish
	s.wish = res
	return res, nil
}

// CurrentWish returns the blessing shown in ShowWish.
func (s *Session) CurrentWish() (generation.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wish, s.state == StateShowWish
}

// CloseWish dismisses the wish card.
func (s *Session) CloseWish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateShowWish {
		s.state = StateIdle
		s.wish = generation.Result{}
	}
}

// Submit adds a blessing to the wall. The text joins the local community
// pool and floats up as a highlighted bubble right away, while the server
// write happens in the background. Submitting works in any state.
func (s *Session) Submit(ctx context.Context, text string) (bubbles.Bubble, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return bubbles.Bubble{}, ErrEmptyBlessing
	}
	if utf8.RuneCountInString(text) > blessing.MaxRunes {
		return bubbles.Bubble{}, ErrBlessingTooLong
	}

	s.sched.AddCommunity(text)
	b := s.sched.Highlight(text)

	saveCtx := context.WithoutCancel(ctx)
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()

		ctx, cancel := context.WithTimeout(saveCtx, saveTimeout)
		defer cancel()
		if !s.api.SaveBlessing(ctx, text) {
			s.log.Warn().Str("text", text).Msg("blessing kept locally only")
		}
	}()

	return b, nil
}

// Wait blocks until background saves have finished.
func (s *Session) Wait() {
	s.saves.Wait()
}

// Greeting is the header line under the title.
func (s *Session) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Greeting(s.user)
}

// Greeting builds the header line for a visitor, which may be nil.
func Greeting(user *bubbles.UserInfo) string {
	const motto = "星光不问赶路人，时光不负有心人。"
	if user != nil && !user.IsAnonymous {
		return motto + "\n祝 " + user.Name + " 成功上岸 " + user.School + "。"
	}
	return motto + "\n祝所有考研学子，一战成硕。"
}

// Prompt is the call to action on the wish card.
func Prompt(user *bubbles.UserInfo) string {
	if user == nil || user.IsAnonymous {
		return "这位同学，坚持到底。愿你的努力配得上你的梦想，抽取一份上岸祝福。"
	}
	return user.Name + "，坚持就是胜利。为了心中的 " + user.School + "，抽取一份专属你的上岸祝福。"
}
