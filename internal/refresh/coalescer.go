// Package refresh schedules periodic refreshes and coalesces bursts of
// refresh triggers.
package refresh

import (
	"context"
	"time"
)

// triggerBuffer bounds queued triggers. Once full, further triggers are
// redundant because a trailing run is already owed.
const triggerBuffer = 16

// Coalescer runs fn in response to triggers with a leading and trailing
// throttle. The first trigger in a quiet period runs fn at once; triggers
// arriving while fn runs or within interval of its start are collapsed into
// a single trailing run. At most one fn call is in flight.
type Coalescer struct {
	interval time.Duration
	fn       func(ctx context.Context)
	trigger  chan struct{}

	// after is swapped out in tests.
	after func(time.Duration) <-chan time.Time
}

// NewCoalescer creates a Coalescer for fn.
func NewCoalescer(interval time.Duration, fn func(ctx context.Context)) *Coalescer {
	return &Coalescer{
		interval: interval,
		fn:       fn,
		trigger:  make(chan struct{}, triggerBuffer),
		after:    time.After,
	}
}

// Trigger requests a run. It never blocks.
func (c *Coalescer) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is done. It waits for an in-flight call
// to return before exiting.
func (c *Coalescer) Run(ctx context.Context) error {
	var (
		pending bool
		running bool
		window  <-chan time.Time
	)
	done := make(chan struct{}, 1)

	fire := func() {
		pending = false
		running = true
		window = c.after(c.interval)
		go func() {
			c.fn(ctx)
			done <- struct{}{}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return ctx.Err()

		case <-c.trigger:
			extra := c.drain()
			if running || window != nil {
				pending = true
				continue
			}
			fire()
			if extra > 0 {
				pending = true
			}

		case <-done:
			running = false
			if window == nil && pending {
				fire()
			}

		case <-window:
			window = nil
			if !running && pending {
				fire()
			}
		}
	}
}

// drain consumes queued triggers and returns how many there were.
func (c *Coalescer) drain() int {
	n := 0
	for {
		select {
		case <-c.trigger:
			n++
		default:
			return n
		}
	}
}
