package resource

import (
	"context"
	"sync"
	"time"
)

// Debouncer lets only the last of a burst of calls through, once the burst
// has been quiet for the delay.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending chan struct{}
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Wait blocks until delay passes without another Wait starting. It returns
// ErrSuperseded as soon as a newer Wait begins, or ctx.Err() if ctx ends
// first. The timer is stopped in every case.
func (d *Debouncer) Wait(ctx context.Context) error {
	mine := make(chan struct{})
	d.mu.Lock()
	if d.pending != nil {
		close(d.pending)
	}
	d.pending = mine
	d.mu.Unlock()

	t := time.NewTimer(d.delay)
	defer t.Stop()

	select {
	case <-mine:
		return ErrSuperseded
	case <-ctx.Done():
		d.release(mine)
		return ctx.Err()
	case <-t.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != mine {
		return ErrSuperseded
	}
	d.pending = nil
	return nil
}

func (d *Debouncer) release(mine chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == mine {
		d.pending = nil
	}
}
