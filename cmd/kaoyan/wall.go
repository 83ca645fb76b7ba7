package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwy87/kaoyan/internal/bubbles"
	"github.com/jwy87/kaoyan/internal/client"
	"github.com/jwy87/kaoyan/internal/config"
	kaoyanlog "github.com/jwy87/kaoyan/internal/log"
	"github.com/jwy87/kaoyan/internal/wall"
)

var (
	wallFlags     config.WallConfig
	wallName      string
	wallSchool    string
	wallAnonymous bool
)

// wallCmd streams bubbles as JSON lines and reads commands from stdin
var wallCmd = &cobra.Command{
	Use:   "wall",
	Short: "Run a terminal blessing wall against the API",
	Long: `Streams bubble descriptors and wall events to stdout as JSON lines.

Each stdin line is a blessing to post, except for these commands:
  /enter NAME SCHOOL  personalise the wall
  /skip               continue anonymously
  /wish               draw a blessing
  /close              dismiss the drawn blessing
  /back               return to the intro`,
	RunE: runWall,
}

func init() {
	wallCmd.Flags().StringVar(&wallFlags.APIURL, "api", "", "blessing API base URL")
	wallCmd.Flags().DurationVar(&wallFlags.Interval, "interval", 0, "bubble emission interval")
	wallCmd.Flags().StringVar(&wallName, "name", "", "your name")
	wallCmd.Flags().StringVar(&wallSchool, "school", "", "your target school")
	wallCmd.Flags().BoolVar(&wallAnonymous, "anonymous", false, "skip the intro anonymously")
}

// wallEvent is one JSON line on stdout.
type wallEvent struct {
	Type     string            `json:"type"`
	State    string            `json:"state,omitempty"`
	Text     string            `json:"text,omitempty"`
	Prompt   string            `json:"prompt,omitempty"`
	Fallback bool              `json:"fallback,omitempty"`
	Bubble   *bubbles.Bubble   `json:"bubble,omitempty"`
	User     *bubbles.UserInfo `json:"user,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type wallRunner struct {
	sess *wall.Session
	enc  *json.Encoder
	log  *zerolog.Logger

	// wishes carries loading and result events from the pending wish.
	wishes  chan wallEvent
	wishing bool
}

type wallOptions struct {
	Name      string
	School    string
	Anonymous bool
}

func runWall(cmd *cobra.Command, args []string) error {
	cfg.UpdateFrom(config.Config{Wall: wallFlags})

	// stdout carries the event stream.
	wallLog := kaoyanlog.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := wallOptions{Name: wallName, School: wallSchool, Anonymous: wallAnonymous}
	return streamWall(ctx, cfg.Wall, opts, cmd.InOrStdin(), cmd.OutOrStdout(), wallLog)
}

// streamWall drives one wall session until ctx is done, reading commands
// from in and writing JSON events to out.
func streamWall(ctx context.Context, wc config.WallConfig, opts wallOptions, in io.Reader, out io.Writer, logger *zerolog.Logger) error {
	sched := bubbles.New(bubbles.Config{Interval: wc.Interval}, nil)
	sess := wall.NewSession(client.New(wc.APIURL, logger), sched, logger)
	defer sess.Wait()

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	r := &wallRunner{sess: sess, enc: enc, log: logger, wishes: make(chan wallEvent)}

	count := sess.Load(ctx)
	logger.Info().Int("community", count).Str("api", wc.APIURL).Msg("wall started")

	switch {
	case opts.Anonymous:
		sess.Skip()
	case opts.Name != "" || opts.School != "":
		if err := sess.Enter(opts.Name, opts.School); err != nil {
			return err
		}
	}
	r.emitState()

	for _, b := range sched.Populate() {
		r.emitBubble(b)
	}

	spawned := make(chan bubbles.Bubble)
	go sched.Run(ctx, spawned)

	lines := readLines(in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-spawned:
			r.emitBubble(b)
		case ev := <-r.wishes:
			if ev.Type != "loading" {
				r.wishing = false
			}
			r.emit(ev)
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			r.handle(ctx, line)
		}
	}
}

func readLines(in io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}

func (r *wallRunner) handle(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/enter":
		if len(fields) < 3 {
			r.emitError(wall.ErrIncompleteInfo)
			return
		}
		if err := r.sess.Enter(fields[1], strings.Join(fields[2:], " ")); err != nil {
			r.emitError(err)
			return
		}
		r.emitState()
	case "/skip":
		r.sess.Skip()
		r.emitState()
	case "/back":
		r.sess.BackToIntro()
		r.emitState()
	case "/close":
		r.sess.CloseWish()
		r.emitState()
	case "/wish":
		if r.wishing {
			r.emitError(wall.ErrInvalidState)
			return
		}
		r.wishing = true
		go r.wish(ctx)
	default:
		b, err := r.sess.Submit(ctx, line)
		if err != nil {
			r.emitError(err)
			return
		}
		r.emitBubble(b)
	}
}

// wish draws a blessing and sends rotating loading messages to r.wishes
// until it arrives. The last event sent is either "wish" or "error".
func (r *wallRunner) wish(ctx context.Context) {
	type outcome struct {
		text     string
		fallback bool
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.sess.Wish(ctx)
		done <- outcome{text: res.Text, fallback: res.Fallback, err: err}
	}()

	send := func(ev wallEvent) bool {
		select {
		case r.wishes <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	start := time.Now()
	ticker := time.NewTicker(wall.LoadingInterval)
	defer ticker.Stop()

	if !send(wallEvent{Type: "loading", Text: wall.LoadingMessage(0)}) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !send(wallEvent{Type: "loading", Text: wall.LoadingMessage(time.Since(start))}) {
				return
			}
		case res := <-done:
			if res.err != nil {
				send(wallEvent{Type: "error", Error: res.err.Error()})
				return
			}
			send(wallEvent{Type: "wish", State: r.sess.State().String(), Text: res.text, Fallback: res.fallback})
			return
		}
	}
}

func (r *wallRunner) emitState() {
	state, user := r.sess.State(), r.sess.User()
	ev := wallEvent{
		Type:  "state",
		State: state.String(),
		Text:  r.sess.Greeting(),
		User:  user,
	}
	if state == wall.StateIdle {
		ev.Prompt = wall.Prompt(user)
	}
	r.emit(ev)
}

func (r *wallRunner) emitBubble(b bubbles.Bubble) {
	r.emit(wallEvent{Type: "bubble", Bubble: &b})
}

func (r *wallRunner) emitError(err error) {
	r.emit(wallEvent{Type: "error", Error: err.Error()})
}

func (r *wallRunner) emit(ev wallEvent) {
	if err := r.enc.Encode(ev); err != nil {
		r.log.Error().Err(err).Str("type", ev.Type).Msg("failed to write event")
	}
}
