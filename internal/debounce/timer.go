// Package debounce provides a cancellable single-shot timer.
//
// A Timer owns at most one pending callback. Scheduling a new callback
// cancels the pending one first, under the same lock, so two callbacks from
// one Timer can never both be armed.
package debounce

import (
	"sync"
	"time"
)

// Timer is a cancel-then-schedule wrapper around time.AfterFunc.
// The zero value is ready to use.
type Timer struct {
	mu     sync.Mutex
	t      *time.Timer
	gen    uint64
	closed bool
}

// Schedule cancels any pending callback and arms fn to run after d.
// It returns false if the Timer has been closed.
func (t *Timer) Schedule(d time.Duration, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.t = time.AfterFunc(d, func() {
		t.mu.Lock()
		// Stop cannot recall a callback that already started; the
		// generation check catches one that was superseded meanwhile.
		current := gen == t.gen && !t.closed
		if current {
			t.t = nil
		}
		t.mu.Unlock()
		if current {
			fn()
		}
	})
	return true
}

// Cancel drops the pending callback, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

// Pending reports whether a callback is armed and has not fired.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.t != nil
}

// Close cancels the pending callback and makes later Schedule calls no-ops.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
	t.closed = true
}

func (t *Timer) stopLocked() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
