package swing

// Phase tracks progress through one in-flight swing attempt. Phases
// form a strict linear successor chain; Finished is terminal and the
// tracker resets to Idle after each completed or abandoned swing.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAddress
	PhaseBackswing
	PhaseTopOfSwing
	PhaseTransition
	PhaseDownswing
	PhaseImpact
	PhaseFollowThrough
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAddress:
		return "address"
	case PhaseBackswing:
		return "backswing"
	case PhaseTopOfSwing:
		return "top_of_swing"
	case PhaseTransition:
		return "transition"
	case PhaseDownswing:
		return "downswing"
	case PhaseImpact:
		return "impact"
	case PhaseFollowThrough:
		return "follow_through"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Next returns the successor phase. Finished is terminal.
func (p Phase) Next() Phase {
	if p >= PhaseFinished {
		return PhaseFinished
	}
	return p + 1
}

// Phase tracker thresholds, in g. Scaled by the per-user sensitivity
// multiplier.
const (
	trackerWakeG   = 1.6 // Idle→Address: takeaway acceleration
	trackerRiseG   = 0.4 // rise off the local minimum marks the top
	trackerImpactG = 1.2 // drop off the peak marks impact
	trackerRestG   = 1.2 // settle level that finishes the swing
)

// PhaseTracker is the simple real-time path: it advances the phase
// chain sample by sample without re-scanning the buffer, so live UI
// feedback does not wait for the window detector.
type PhaseTracker struct {
	sensitivity float64
	emit        func(old, new Phase)

	phase    Phase
	localMin float64
	peak     float64
}

// NewPhaseTracker creates a tracker in PhaseIdle. emit may be nil; when
// set it must not block.
func NewPhaseTracker(sensitivity float64, emit func(old, new Phase)) *PhaseTracker {
	if sensitivity <= 0 {
		sensitivity = 1.0
	}
	return &PhaseTracker{sensitivity: sensitivity, emit: emit}
}

// Phase returns the current phase.
func (t *PhaseTracker) Phase() Phase { return t.phase }

// Observe feeds one filtered acceleration magnitude.
func (t *PhaseTracker) Observe(mag float64) {
	s := t.sensitivity

	switch t.phase {
	case PhaseIdle:
		if mag > trackerWakeG*s {
			t.advance(PhaseAddress)
			t.advance(PhaseBackswing)
			t.localMin = mag
		}
	case PhaseBackswing:
		if mag < t.localMin {
			t.localMin = mag
		}
		// Rising off the local minimum between the initial takeaway and
		// the eventual peak is the top of the swing.
		if mag > t.localMin+trackerRiseG*s {
			t.advance(PhaseTopOfSwing)
			t.advance(PhaseTransition)
			t.advance(PhaseDownswing)
			t.peak = mag
		}
	case PhaseDownswing:
		if mag > t.peak {
			t.peak = mag
		}
		if mag < t.peak-trackerImpactG*s {
			t.advance(PhaseImpact)
		}
	case PhaseImpact:
		t.advance(PhaseFollowThrough)
	case PhaseFollowThrough:
		if mag < trackerRestG*s {
			t.advance(PhaseFinished)
			t.reset()
		}
	}
}

// Reset abandons the in-flight attempt and returns to Idle without
// emitting a Finished transition.
func (t *PhaseTracker) Reset() {
	if t.phase != PhaseIdle && t.emit != nil {
		t.emit(t.phase, PhaseIdle)
	}
	t.phase = PhaseIdle
	t.localMin = 0
	t.peak = 0
}

func (t *PhaseTracker) advance(next Phase) {
	old := t.phase
	t.phase = next
	if t.emit != nil {
		t.emit(old, next)
	}
}

// reset follows a completed swing: Finished→Idle is reported so the UI
// sees the chain close.
func (t *PhaseTracker) reset() {
	t.advance(PhaseIdle)
	t.localMin = 0
	t.peak = 0
}
