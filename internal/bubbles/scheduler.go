package bubbles

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config controls population size and emission pace.
type Config struct {
	InitialCount int
	Interval     time.Duration
	MaxLive      int
}

// DefaultConfig returns the wall's standard pacing.
func DefaultConfig() Config {
	return Config{
		InitialCount: 12,
		Interval:     1800 * time.Millisecond,
		MaxLive:      20,
	}
}

// Scheduler owns the live bubble collection and the non-repeat window.
// The emission ticker and the submit path may run on different goroutines.
type Scheduler struct {
	mu sync.Mutex

	cfg    Config
	rng    *rand.Rand
	pools  Pools
	user   *UserInfo
	recent Recent
	live   []Bubble

	newID func() string
	now   func() time.Time
}

// New creates a scheduler over the shipped pools. A nil rng is seeded from
// the runtime's random source.
func New(cfg Config, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	defaults := DefaultConfig()
	if cfg.InitialCount <= 0 {
		cfg.InitialCount = defaults.InitialCount
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.MaxLive <= 0 {
		cfg.MaxLive = defaults.MaxLive
	}

	return &Scheduler{
		cfg:   cfg,
		rng:   rng,
		pools: DefaultPools(nil),
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// SetUser switches personalization; nil disables it.
func (s *Scheduler) SetUser(user *UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

// SetCommunity replaces the community pool.
func (s *Scheduler) SetCommunity(texts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools.Community = append([]string(nil), texts...)
}

// AddCommunity appends one text to the community pool.
func (s *Scheduler) AddCommunity(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools.Community = append(s.pools.Community, text)
}

// Community returns a copy of the community pool.
func (s *Scheduler) Community() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.pools.Community...)
}

// Recent returns a copy of the non-repeat window.
func (s *Scheduler) Recent() Recent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append(Recent(nil), s.recent...)
}

// Live returns a copy of the live bubbles, oldest first.
func (s *Scheduler) Live() []Bubble {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Bubble(nil), s.live...)
}

// Populate replaces the live set with the initial staggered batch.
func (s *Scheduler) Populate() []Bubble {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.cfg.InitialCount
	xs := InitialPositions(s.rng, count)
	batch := make([]Bubble, 0, count)
	for i := 0; i < count; i++ {
		batch = append(batch, s.spawnLocked(spawnOptions{
			x:     &xs[i],
			delay: float64(i) * initialStagger,
		}))
	}

	s.live = s.live[:0]
	for _, b := range batch {
		s.pushLocked(b)
	}
	return append([]Bubble(nil), batch...)
}

// Spawn emits one bubble and adds it to the live set.
func (s *Scheduler) Spawn(opts ...Option) Bubble {
	var o spawnOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.spawnLocked(o)
	s.pushLocked(b)
	return b
}

// Highlight emits the visitor's own text, center-biased and emphasized.
func (s *Scheduler) Highlight(text string) Bubble {
	s.mu.Lock()
	defer s.mu.Unlock()

	x := between(s.rng, highlightMinX, highlightMaxX)
	duration := highlightDuration
	b := s.spawnLocked(spawnOptions{
		text:      text,
		x:         &x,
		duration:  &duration,
		highlight: true,
	})
	s.pushLocked(b)
	return b
}

// Retire removes a bubble whose animation completed.
func (s *Scheduler) Retire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.live {
		if b.ID == id {
			s.live = append(s.live[:i], s.live[i+1:]...)
			return true
		}
	}
	return false
}

// Expire retires every bubble whose animation ended by now and reports how
// many were removed.
func (s *Scheduler) Expire(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.live[:0]
	for _, b := range s.live {
		if b.ExpiresAt().After(now) {
			kept = append(kept, b)
		}
	}
	removed := len(s.live) - len(kept)
	s.live = kept
	return removed
}

// Run spawns a bubble every interval until ctx is done. New bubbles are
// sent to out when it is non-nil.
func (s *Scheduler) Run(ctx context.Context, out chan<- Bubble) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			s.Expire(tick)
			b := s.Spawn()
			if out == nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Scheduler) spawnLocked(o spawnOptions) Bubble {
	var sel Selection
	if o.text != "" {
		sel = Selection{Text: o.text, Source: SourceExplicit}
		s.recent = s.recent.Remember(o.text)
	} else {
		sel, s.recent = Select(s.rng, s.pools, s.user, s.recent)
	}

	b := decorate(s.rng, sel, o)
	b.ID = s.newID()
	b.SpawnedAt = s.now()
	return b
}

// pushLocked appends b and evicts the oldest entries beyond MaxLive.
func (s *Scheduler) pushLocked(b Bubble) {
	s.live = append(s.live, b)
	if over := len(s.live) - s.cfg.MaxLive; over > 0 {
		s.live = append(s.live[:0], s.live[over:]...)
	}
}
