package clock

import (
	"sync"
	"time"
)

// Countdown is a cancellable per-question timer. It ticks once per interval
// with the remaining count and fires the expiry callback exactly once when the
// count reaches zero. At most one run is live per Countdown: Start cancels the
// previous run before the new one begins, and Stop cancels outright.
//
// Cancellation is signalled through a per-run channel, so a run that loses the
// race with Stop exits without firing. Callers that mutate shared state from
// the callbacks should still guard against a tick that was already in flight
// when the run was cancelled.
type Countdown struct {
	interval time.Duration

	mu     sync.Mutex
	cancel chan struct{}
}

// New returns a countdown ticking once per interval. Production code passes
// time.Second; tests shrink it.
func New(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval}
}

// Start begins a countdown from seconds. onTick receives the remaining count
// after each elapsed interval; onExpire fires once when it hits zero. A
// non-positive seconds starts nothing.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	if seconds <= 0 {
		return
	}

	c.mu.Lock()
	if c.cancel != nil {
		close(c.cancel)
	}
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(cancel, seconds, onTick, onExpire)
}

// Stop cancels the live run, if any. It is safe to call repeatedly.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

func (c *Countdown) run(cancel <-chan struct{}, seconds int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			// Re-check so a Stop that raced the tick wins.
			select {
			case <-cancel:
				return
			default:
			}
			remaining--
			if remaining <= 0 {
				if onExpire != nil {
					onExpire()
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}
