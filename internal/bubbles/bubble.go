package bubbles

import (
	"math/rand/v2"
	"time"
)

// Layout bounds, in percent of viewport width and seconds.
const (
	MinX = 5.0
	MaxX = 95.0

	minSize = 0.7
	maxSize = 1.2

	minDuration = 12.0
	maxDuration = 22.0

	highlightMinX     = 40.0
	highlightMaxX     = 60.0
	highlightDuration = 14.0

	initialJitter  = 2.5
	initialStagger = 0.22
)

// Bubble describes one floating message for a renderer.
type Bubble struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Size      float64 `json:"size"`
	Delay     float64 `json:"delay"`
	Duration  float64 `json:"duration"`
	Color     string  `json:"color"`
	Highlight bool    `json:"highlight,omitempty"`
	Source    Source  `json:"source"`

	SpawnedAt time.Time `json:"-"`
}

// ExpiresAt is when the bubble's rise animation has finished.
func (b Bubble) ExpiresAt() time.Time {
	lifetime := time.Duration((b.Delay + b.Duration) * float64(time.Second))
	return b.SpawnedAt.Add(lifetime)
}

type spawnOptions struct {
	text      string
	x         *float64
	delay     float64
	duration  *float64
	highlight bool
}

// Option overrides a generated bubble parameter.
type Option func(*spawnOptions)

// WithX pins the horizontal position.
func WithX(x float64) Option {
	return func(o *spawnOptions) { o.x = &x }
}

// WithDelay sets the spawn delay in seconds.
func WithDelay(seconds float64) Option {
	return func(o *spawnOptions) { o.delay = seconds }
}

// WithDuration pins the animation duration in seconds.
func WithDuration(seconds float64) Option {
	return func(o *spawnOptions) { o.duration = &seconds }
}

// WithText bypasses selection and uses text as-is.
func WithText(text string) Option {
	return func(o *spawnOptions) { o.text = text }
}

// WithHighlight marks the bubble as locally originated.
func WithHighlight() Option {
	return func(o *spawnOptions) { o.highlight = true }
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(value, lo, hi float64) float64 {
	return max(lo, min(hi, value))
}

// decorate attaches the random presentation parameters to a selection.
func decorate(rng *rand.Rand, sel Selection, opts spawnOptions) Bubble {
	b := Bubble{
		Text:      sel.Text,
		X:         between(rng, MinX, MaxX),
		Size:      between(rng, minSize, maxSize),
		Delay:     opts.delay,
		Duration:  between(rng, minDuration, maxDuration),
		Color:     Palette[rng.IntN(len(Palette))],
		Highlight: opts.highlight,
		Source:    sel.Source,
	}
	if opts.x != nil {
		b.X = *opts.x
	}
	if opts.duration != nil {
		b.Duration = *opts.duration
	}
	return b
}

// InitialPositions spreads count bubbles evenly over [MinX, MaxX] with a
// small random jitter to reduce overlap on first paint.
func InitialPositions(rng *rand.Rand, count int) []float64 {
	if count <= 0 {
		return nil
	}

	span := MaxX - MinX
	step := span
	if count > 1 {
		step = span / float64(count-1)
	}

	xs := make([]float64, count)
	for i := range xs {
		base := MinX + float64(i)*step
		offset := (rng.Float64()*2 - 1) * initialJitter
		xs[i] = clamp(base+offset, MinX, MaxX)
	}
	return xs
}
