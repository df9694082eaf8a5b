// Package confirm implements the shot confirmation workflow: a
// debounce/timeout state machine that waits a grace period after a
// qualifying detection, surfaces a confirmation prompt, and resolves it
// by explicit accept/dismiss or an auto-dismiss timeout.
package confirm

import (
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense/internal/classify"
	"github.com/fairwaylabs/swingsense/internal/sched"
)

// State of the workflow. Confirmed and Dismissed are transient: the
// workflow returns to Idle as soon as the outcome event is emitted.
type State int

const (
	StateIdle State = iota
	StatePending
	StateConfirmed
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateDismissed:
		return "dismissed"
	default:
		return "idle"
	}
}

// EventKind labels confirmation lifecycle events.
type EventKind string

const (
	EventPending   EventKind = "pending"
	EventConfirmed EventKind = "confirmed"
	EventDismissed EventKind = "dismissed"
)

// Event is one confirmation lifecycle notification. Location is the
// candidate shot position when one was available at detection time.
type Event struct {
	Kind     EventKind          `json:"kind"`
	Location *classify.Location `json:"location,omitempty"`
}

// Config holds the workflow timing.
type Config struct {
	// GracePeriod is the delay between detection and surfacing the
	// prompt, leaving room for a late practice reclassification to
	// cancel silently.
	GracePeriod time.Duration
	// AutoDismiss discards a surfaced prompt that gets no response.
	AutoDismiss time.Duration
}

// DefaultConfig returns the tuned production values.
func DefaultConfig() Config {
	return Config{
		GracePeriod: 2 * time.Second,
		AutoDismiss: 30 * time.Second,
	}
}

// Workflow is the confirmation state machine. Only one instance is
// ever active per session, and only one candidate at a time: Begin
// refuses while a candidate is in flight.
type Workflow struct {
	cfg  Config
	emit func(Event)
	// onResolve reports the outcome so the session can reset practice
	// counters. Called for confirm and dismiss alike.
	onResolve func(confirmed bool)

	mu        sync.Mutex
	state     State
	surfaced  bool
	candidate *classify.Location
	grace     sched.Timer
	dismiss   sched.Timer
}

// New creates an idle workflow. emit and onResolve may be nil; when set
// they must not block.
func New(cfg Config, emit func(Event), onResolve func(confirmed bool)) *Workflow {
	return &Workflow{cfg: cfg, emit: emit, onResolve: onResolve}
}

// Begin starts a confirmation for a qualifying detection. Returns false
// when a candidate is already in flight. The prompt is not surfaced
// until the grace period elapses.
func (w *Workflow) Begin(loc *classify.Location) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return false
	}
	w.state = StatePending
	w.surfaced = false
	w.candidate = loc

	w.grace.Arm(w.cfg.GracePeriod, w.surface)
	return true
}

// Pending reports whether a candidate is in flight (surfaced or still
// in its grace period). New swing detection is suppressed system-wide
// while this is true.
func (w *Workflow) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StatePending
}

// CancelSilently aborts a candidate that is still inside its grace
// period, with no events. Used when a late practice reclassification
// arrives. Returns false once the prompt has been surfaced.
func (w *Workflow) CancelSilently() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StatePending || w.surfaced {
		return false
	}
	w.clear()
	return true
}

// Confirm accepts the pending shot, emitting its location.
func (w *Workflow) Confirm() {
	w.resolve(true, EventConfirmed)
}

// Dismiss rejects the pending shot.
func (w *Workflow) Dismiss() {
	w.resolve(false, EventDismissed)
}

// Stop discards any in-flight candidate and invalidates all timers
// without emitting further events.
func (w *Workflow) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clear()
}

// surface fires when the grace period elapses with no silent cancel.
func (w *Workflow) surface() {
	w.mu.Lock()
	if w.state != StatePending {
		w.mu.Unlock()
		return
	}
	w.surfaced = true
	loc := w.candidate
	w.dismiss.Arm(w.cfg.AutoDismiss, w.Dismiss)
	emit := w.emit
	w.mu.Unlock()

	if emit != nil {
		emit(Event{Kind: EventPending, Location: loc})
	}
}

func (w *Workflow) resolve(confirmed bool, kind EventKind) {
	w.mu.Lock()
	if w.state != StatePending {
		w.mu.Unlock()
		return
	}
	if confirmed {
		w.state = StateConfirmed
	} else {
		w.state = StateDismissed
	}
	loc := w.candidate
	emit := w.emit
	onResolve := w.onResolve
	w.clear()
	w.mu.Unlock()

	if emit != nil {
		ev := Event{Kind: kind}
		if confirmed {
			ev.Location = loc
		}
		emit(ev)
	}
	if onResolve != nil {
		onResolve(confirmed)
	}
}

// clear returns to Idle and invalidates the timers. Callers hold w.mu.
func (w *Workflow) clear() {
	w.grace.Cancel()
	w.dismiss.Cancel()
	w.state = StateIdle
	w.surfaced = false
	w.candidate = nil
}
