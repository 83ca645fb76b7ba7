package bubbles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerLiveSetIsCapped(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	s.Populate()

	for i := 0; i < 100; i++ {
		s.Spawn()
		require.LessOrEqual(t, len(s.Live()), 20)
		require.LessOrEqual(t, len(s.Recent()), RecentCapacity)
	}
	assert.Len(t, s.Live(), 20)
}

func TestSchedulerEvictsOldestFirst(t *testing.T) {
	s := New(Config{MaxLive: 3}, newTestRand())

	first := s.Spawn()
	second := s.Spawn()
	s.Spawn()
	s.Spawn()

	live := s.Live()
	require.Len(t, live, 3)
	for _, b := range live {
		assert.NotEqual(t, first.ID, b.ID)
	}
	assert.Equal(t, second.ID, live[0].ID)
}

func TestPopulateSpreadsAndStaggers(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	batch := s.Populate()
	require.Len(t, batch, 12)

	step := (MaxX - MinX) / 11
	for i, b := range batch {
		assert.InDelta(t, float64(i)*0.22, b.Delay, 1e-9)
		assert.GreaterOrEqual(t, b.X, MinX)
		assert.LessOrEqual(t, b.X, MaxX)
		assert.InDelta(t, MinX+float64(i)*step, b.X, initialJitter+1e-9)
		assert.NotEmpty(t, b.ID)
		assert.NotEmpty(t, b.Text)
	}
	assert.Len(t, s.Live(), 12)
}

func TestSpawnParameterRanges(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	palette := map[string]bool{}
	for _, c := range Palette {
		palette[c] = true
	}

	for i := 0; i < 200; i++ {
		b := s.Spawn()
		assert.GreaterOrEqual(t, b.X, MinX)
		assert.LessOrEqual(t, b.X, MaxX)
		assert.GreaterOrEqual(t, b.Size, minSize)
		assert.LessOrEqual(t, b.Size, maxSize)
		assert.GreaterOrEqual(t, b.Duration, minDuration)
		assert.LessOrEqual(t, b.Duration, maxDuration)
		assert.Zero(t, b.Delay)
		assert.False(t, b.Highlight)
		assert.True(t, palette[b.Color], "unexpected color %q", b.Color)
	}
}

func TestSpawnOverrides(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	b := s.Spawn(WithX(33), WithDuration(15), WithDelay(2), WithText("自定义"))

	assert.Equal(t, 33.0, b.X)
	assert.Equal(t, 15.0, b.Duration)
	assert.Equal(t, 2.0, b.Delay)
	assert.Equal(t, "自定义", b.Text)
	assert.Equal(t, SourceExplicit, b.Source)
}

func TestHighlightUsesExplicitText(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	s.SetCommunity([]string{"旧的祝福"})
	s.AddCommunity("加油上岸")

	b := s.Highlight("加油上岸")
	assert.Equal(t, "加油上岸", b.Text)
	assert.True(t, b.Highlight)
	assert.Equal(t, SourceExplicit, b.Source)
	assert.GreaterOrEqual(t, b.X, 40.0)
	assert.LessOrEqual(t, b.X, 60.0)
	assert.Equal(t, 14.0, b.Duration)

	assert.Contains(t, s.Community(), "加油上岸")
	assert.Equal(t, "加油上岸", s.Recent()[len(s.Recent())-1])
}

func TestRetireAndExpire(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	start := time.Date(2026, 12, 20, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	short := s.Spawn(WithDuration(1))
	long := s.Spawn(WithDuration(30))
	gone := s.Spawn(WithDuration(30))

	assert.True(t, s.Retire(gone.ID))
	assert.False(t, s.Retire(gone.ID))

	removed := s.Expire(start.Add(2 * time.Second))
	assert.Equal(t, 1, removed)

	live := s.Live()
	require.Len(t, live, 1)
	assert.Equal(t, long.ID, live[0].ID)
	assert.NotEqual(t, short.ID, live[0].ID)
}

func TestSetUserCopiesValue(t *testing.T) {
	s := New(DefaultConfig(), newTestRand())
	user := &UserInfo{Name: "甲", School: "乙"}
	s.SetUser(user)
	user.Name = "changed"

	assert.Equal(t, "甲", s.user.Name)
	s.SetUser(nil)
	assert.Nil(t, s.user)
}

func TestRunEmitsOnInterval(t *testing.T) {
	s := New(Config{Interval: 5 * time.Millisecond}, newTestRand())
	out := make(chan Bubble)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx, out)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case b := <-out:
			assert.NotEmpty(t, b.Text)
		case <-ctx.Done():
			t.Fatal("expected a bubble before timeout")
		}
	}

	cancel()
	<-done
}
