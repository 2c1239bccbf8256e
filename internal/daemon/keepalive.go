package daemon

import (
	"sync"
	"time"
)

// Keepalive fires onIdle once the host has gone timeout without a request.
// Requests bracket themselves with Begin and End; the idle timer only runs
// while nothing is in flight, so a long GUI operation is never cut short.
// A zero timeout disables it.
type Keepalive struct {
	mu          sync.Mutex
	timer       *time.Timer
	timerID     uint64
	nextTimerID uint64
	inFlight    int
	timeout     time.Duration
	onIdle      func()
	stopped     bool
}

// NewKeepalive creates a keepalive and arms its first timer.
func NewKeepalive(timeout time.Duration, onIdle func()) *Keepalive {
	k := &Keepalive{timeout: timeout, onIdle: onIdle}
	k.Touch()
	return k
}

// Begin marks the start of a request and cancels any pending idle timer.
func (k *Keepalive) Begin() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopTimerLocked()
	k.inFlight++
}

// End marks a request finished. The idle timer restarts after the last one.
func (k *Keepalive) End() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.inFlight > 1 {
		k.inFlight--
		return
	}
	k.inFlight = 0
	k.startTimerLocked()
}

// Touch restarts the idle timer when nothing is in flight.
func (k *Keepalive) Touch() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.inFlight > 0 {
		return
	}
	k.startTimerLocked()
}

// InFlight returns the number of open requests.
func (k *Keepalive) InFlight() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.inFlight
}

// Stop cancels the timer for good.
func (k *Keepalive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopTimerLocked()
	k.stopped = true
}

func (k *Keepalive) stopTimerLocked() {
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
	}
}

func (k *Keepalive) startTimerLocked() {
	k.stopTimerLocked()
	if k.timeout <= 0 || k.stopped {
		return
	}
	k.nextTimerID++
	id := k.nextTimerID
	k.timerID = id
	k.timer = time.AfterFunc(k.timeout, func() {
		k.expire(id)
	})
}

// expire ignores timers that were replaced after they had already fired.
func (k *Keepalive) expire(id uint64) {
	k.mu.Lock()
	if k.stopped || k.timer == nil || k.timerID != id || k.inFlight > 0 {
		k.mu.Unlock()
		return
	}
	k.timer = nil
	onIdle := k.onIdle
	k.mu.Unlock()

	if onIdle != nil {
		onIdle()
	}
}
