package dispatch

import (
	"context"
	"runtime"
	"time"
)

// Pump is the GUI thread's handle on a Queue. It can drain but not submit.
type Pump struct {
	q *Queue
}

// Pump returns the GUI-side handle for q.
func (q *Queue) Pump() *Pump {
	return &Pump{q: q}
}

// Drain runs all queued tasks. Hosts with their own idle timer call this
// from that timer.
func (p *Pump) Drain() int {
	return p.q.Drain()
}

// Run is a pump loop for hosts without an event loop of their own. It locks
// the calling goroutine to its OS thread and drains whenever work is queued
// or interval elapses, until ctx is done. Tasks still queued when ctx ends
// are run once more before Run returns. A task that calls Submit with its
// GUI context panics out of Run with ErrReentrantSubmit.
func (p *Pump) Run(ctx context.Context, interval time.Duration) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if interval <= 0 {
		interval = 25 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.q.Drain()
			return ctx.Err()
		case <-p.q.Notify():
		case <-ticker.C:
		}
		p.q.Drain()
	}
}
