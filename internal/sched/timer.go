// Package sched provides a re-armable one-shot timer whose callback is
// guarded against stale firings: arming or cancelling invalidates any
// previously scheduled callback, so a timer that was already queued to
// fire becomes a no-op instead of racing a newer state transition.
package sched

import (
	"sync"
	"time"
)

// Timer is a cancellable, re-armable one-shot timer. The zero value is
// ready to use. Arm and Cancel are safe for concurrent use.
type Timer struct {
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// Arm schedules fn to run after d, replacing any previously armed
// callback. A callback from an earlier Arm that has already been queued
// by the runtime will not run.
func (t *Timer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		if t.valid(gen) {
			fn()
		}
	})
}

// Cancel invalidates any armed callback. Cancelling an unarmed or
// already-fired timer is a no-op.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Timer) valid(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}
