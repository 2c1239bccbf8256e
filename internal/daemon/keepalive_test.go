package daemon

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepaliveBeginEndDefersIdleTimerUntilRequestCompletes(t *testing.T) {
	var fired atomic.Int32
	ka := NewKeepalive(20*time.Millisecond, func() { fired.Add(1) })
	defer ka.Stop()

	ka.Begin()
	time.Sleep(40 * time.Millisecond)

	ka.mu.Lock()
	hasTimer := ka.timer != nil
	ka.mu.Unlock()
	if hasTimer {
		t.Fatal("timer running while request is still in flight")
	}
	if got := fired.Load(); got != 0 {
		t.Fatalf("onIdle fired %d times during request, want 0", got)
	}

	ka.End()

	ka.mu.Lock()
	hasTimer = ka.timer != nil
	ka.mu.Unlock()
	if !hasTimer {
		t.Fatal("timer missing after request completed")
	}
}

func TestKeepaliveWaitsForAllConcurrentRequestsBeforeStartingTimer(t *testing.T) {
	ka := NewKeepalive(20*time.Millisecond, nil)
	defer ka.Stop()

	ka.Begin()
	ka.Begin()
	ka.End()

	time.Sleep(30 * time.Millisecond)

	ka.mu.Lock()
	hasTimer := ka.timer != nil
	ka.mu.Unlock()
	if hasTimer {
		t.Fatal("timer started before last in-flight request completed")
	}
	if got := ka.InFlight(); got != 1 {
		t.Fatalf("InFlight() = %d, want 1", got)
	}

	ka.End()
	if got := ka.InFlight(); got != 0 {
		t.Fatalf("InFlight() = %d, want 0", got)
	}
}

func TestKeepaliveFiresOnceAfterIdle(t *testing.T) {
	fired := make(chan struct{}, 4)
	ka := NewKeepalive(10*time.Millisecond, func() { fired <- struct{}{} })
	defer ka.Stop()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("onIdle did not fire")
	}

	select {
	case <-fired:
		t.Fatal("onIdle fired twice without new activity")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestKeepaliveIgnoresStaleTimerID(t *testing.T) {
	var fired atomic.Int32
	ka := NewKeepalive(time.Hour, func() { fired.Add(1) })
	defer ka.Stop()

	ka.mu.Lock()
	stale := ka.timerID
	ka.mu.Unlock()

	ka.Touch()
	ka.expire(stale)

	if got := fired.Load(); got != 0 {
		t.Fatalf("stale expire fired onIdle %d times, want 0", got)
	}
}

func TestKeepaliveZeroTimeoutNeverFires(t *testing.T) {
	var fired atomic.Int32
	ka := NewKeepalive(0, func() { fired.Add(1) })
	defer ka.Stop()

	ka.Begin()
	ka.End()
	ka.Touch()

	ka.mu.Lock()
	hasTimer := ka.timer != nil
	ka.mu.Unlock()
	if hasTimer {
		t.Fatal("timer armed with zero timeout")
	}
}

func TestKeepaliveStopPreventsFurtherTimers(t *testing.T) {
	var fired atomic.Int32
	ka := NewKeepalive(5*time.Millisecond, func() { fired.Add(1) })
	ka.Stop()
	ka.Touch()

	time.Sleep(30 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("onIdle fired %d times after Stop, want 0", got)
	}
}
