package ticker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicker_StartIsIdempotent(t *testing.T) {
	var loops atomic.Int32
	tk := New(time.Hour, func(time.Time) { loops.Add(1) })

	ctx := context.Background()
	tk.Start(ctx)
	tk.Start(ctx)
	tk.Start(ctx)

	// only the immediate refresh of one loop can have run
	assert.Eventually(t, func() bool { return loops.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), loops.Load())
	assert.True(t, tk.Running())

	tk.Stop()
	assert.False(t, tk.Running())
}

func TestTicker_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	tk := New(5*time.Millisecond, func(time.Time) { ticks.Add(1) })

	tk.Start(context.Background())
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	tk.Stop()
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no ticks after Stop")
}

func TestTicker_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		var ticks atomic.Int32
		tk := New(interval, func(time.Time) { ticks.Add(1) })
		assert.Equal(t, DefaultInterval, tk.interval)

		assert.NotPanics(t, func() { tk.Start(context.Background()) })
		assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
		tk.Stop()
	}
}

func TestTicker_StopWithoutStart(t *testing.T) {
	tk := New(time.Second, func(time.Time) {})
	tk.Stop()
	assert.False(t, tk.Running())
}

func TestTicker_RestartAfterStop(t *testing.T) {
	var ticks atomic.Int32
	tk := New(time.Hour, func(time.Time) { ticks.Add(1) })

	tk.Start(context.Background())
	assert.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, time.Millisecond)
	tk.Stop()

	tk.Start(context.Background())
	assert.Eventually(t, func() bool { return ticks.Load() == 2 }, time.Second, time.Millisecond)
	tk.Stop()
}

func TestTicker_ContextCancelEndsLoop(t *testing.T) {
	var ticks atomic.Int32
	tk := New(5*time.Millisecond, func(time.Time) { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	tk.Start(ctx)
	assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	// Stop still returns once the loop has exited on its own
	tk.Stop()
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}
