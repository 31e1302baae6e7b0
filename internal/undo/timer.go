package undo

import (
	"sync/atomic"
	"time"
)

// Scheduler runs f once after d unless the returned handle is stopped first.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

const (
	timerArmed int32 = iota
	timerFired
	timerCancelled
)

// Timer is a one-shot cancellable task. Cancel and firing race on a single
// atomic state word: exactly one of them wins, so a cancelled timer never
// runs its callback and a fired timer can no longer be cancelled.
type Timer struct {
	state   atomic.Int32
	stopper Stopper
}

// NewTimer arms a timer that calls onFire after d.
func NewTimer(s Scheduler, d time.Duration, onFire func()) *Timer {
	t := &Timer{}
	t.stopper = s.AfterFunc(d, func() {
		if t.state.CompareAndSwap(timerArmed, timerFired) {
			onFire()
		}
	})
	return t
}

// Cancel stops the timer. It reports false if the timer already fired
// or was already cancelled.
func (t *Timer) Cancel() bool {
	if !t.state.CompareAndSwap(timerArmed, timerCancelled) {
		return false
	}
	if t.stopper != nil {
		t.stopper.Stop()
	}
	return true
}

// Fired reports whether the callback has run (or is running).
func (t *Timer) Fired() bool {
	return t.state.Load() == timerFired
}
