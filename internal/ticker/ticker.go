// Package ticker runs the periodic display refresh. A tick only reads state;
// skipped or late ticks have no effect on correctness.
package ticker

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = time.Second

type Ticker struct {
	interval time.Duration
	fn       func(now time.Time)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, fn func(now time.Time)) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{interval: interval, fn: fn}
}

// Start launches the refresh loop. It is a no-op while a loop is running,
// so repeated starts never stack timers. The loop ends when ctx is
// cancelled or Stop is called.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.run(ctx, done)
}

// Stop cancels the running loop and waits for it to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Ticker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	// refresh immediately on start
	t.fn(time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			t.fn(now)
		}
	}
}
