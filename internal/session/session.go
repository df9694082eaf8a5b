// Package session composes one collection session: sampler, filter,
// power controller, swing detector, practice classifier, and
// confirmation workflow, constructed per session and wired explicitly.
// Consumers read typed event channels; nothing on the sample-delivery
// path ever blocks.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairwaylabs/swingsense/internal/classify"
	"github.com/fairwaylabs/swingsense/internal/confirm"
	"github.com/fairwaylabs/swingsense/internal/motion"
	"github.com/fairwaylabs/swingsense/internal/power"
	"github.com/fairwaylabs/swingsense/internal/sampler"
	"github.com/fairwaylabs/swingsense/internal/swing"
)

// PhaseEvent reports one live swing-phase transition.
type PhaseEvent struct {
	Old swing.Phase `json:"old"`
	New swing.Phase `json:"new"`
}

// Notice is a dismissible, auto-expiring user-facing message, used for
// repeated sensor errors. Sampling continues best-effort.
type Notice struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LocationProvider supplies the current position for practice
// classification. ok is false when no fix is available; classification
// degrades to its time-only fallback.
type LocationProvider interface {
	Current() (classify.Location, bool)
}

// Config aggregates the per-component tuning for one session.
type Config struct {
	Power      power.Config
	Detector   swing.Config
	Classifier classify.Config
	Confirm    confirm.Config

	// RepeatedErrorThreshold is how many consecutive identical sensor
	// read errors surface one notice. Isolated errors are ignored.
	RepeatedErrorThreshold int
	NoticeTTL              time.Duration
}

// DefaultConfig returns the tuned production values for every
// component.
func DefaultConfig() Config {
	return Config{
		Power:                  power.DefaultConfig(),
		Detector:               swing.DefaultConfig(),
		Classifier:             classify.DefaultConfig(),
		Confirm:                confirm.DefaultConfig(),
		RepeatedErrorThreshold: 10,
		NoticeTTL:              15 * time.Second,
	}
}

// Session owns one run of the sensing pipeline.
type Session struct {
	cfg      Config
	sampler  *sampler.Sampler
	location LocationProvider

	filter     *motion.Filter
	detector   *swing.Detector
	classifier *classify.Classifier
	workflow   *confirm.Workflow
	controller *power.Controller

	modes         chan power.Event
	phases        chan PhaseEvent
	swings        chan swing.Analytics
	confirmations chan confirm.Event
	notices       chan Notice

	// classifier is touched from the sample path and from workflow
	// resolution; everything else is single-producer.
	mu       sync.Mutex
	lastErr  string
	errCount int
	stopped  atomic.Bool
}

// New builds a session over the given sampler. loc may be nil when no
// position source is attached.
func New(cfg Config, smp *sampler.Sampler, loc LocationProvider) *Session {
	s := &Session{
		cfg:      cfg,
		sampler:  smp,
		location: loc,

		filter:     motion.NewFilter(),
		classifier: classify.New(cfg.Classifier),

		modes:         make(chan power.Event, 8),
		phases:        make(chan PhaseEvent, 32),
		swings:        make(chan swing.Analytics, 4),
		confirmations: make(chan confirm.Event, 8),
		notices:       make(chan Notice, 4),
	}

	s.detector = swing.NewDetector(cfg.Detector, s.emitPhase, s.onSwing)
	s.workflow = confirm.New(cfg.Confirm, s.emitConfirmation, s.onResolve)
	s.controller = power.New(cfg.Power, smp, s.emitMode)

	smp.SetHandler(s.onSample)
	smp.SetErrorHandler(s.onSensorError)
	return s
}

// Event streams. Bounded; a slow consumer drops events rather than
// stalling the sample path.
func (s *Session) Modes() <-chan power.Event           { return s.modes }
func (s *Session) Phases() <-chan PhaseEvent           { return s.phases }
func (s *Session) Swings() <-chan swing.Analytics      { return s.swings }
func (s *Session) Confirmations() <-chan confirm.Event { return s.confirmations }
func (s *Session) Notices() <-chan Notice              { return s.notices }

// Start begins collection. Fails with sampler.ErrSensorUnavailable when
// no motion source exists; surfaced once, no retry loop.
func (s *Session) Start() error {
	s.stopped.Store(false)
	return s.controller.Start()
}

// Stop halts collection: all outstanding timers are invalidated and
// in-flight unconfirmed detections are discarded without further
// events.
func (s *Session) Stop() {
	s.stopped.Store(true)
	s.controller.Stop()
	s.workflow.Stop()
}

// Reset restores the stateful pipeline stages to their initial state.
// Called between a stop/start cycle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Reset()
	s.detector.Reset()
	s.classifier.Reset()
	s.lastErr = ""
	s.errCount = 0
}

// Pause and Resume delegate to the power controller; pausing is only
// honored from the low-power bands.
func (s *Session) Pause()  { s.controller.Pause() }
func (s *Session) Resume() { s.controller.Resume() }

// ForceHighFrequency forces the high-fidelity band for the configured
// override duration.
func (s *Session) ForceHighFrequency() { s.controller.ForceHighFrequency() }

// Confirm accepts the pending shot.
func (s *Session) Confirm() { s.workflow.Confirm() }

// Dismiss rejects the pending shot.
func (s *Session) Dismiss() { s.workflow.Dismiss() }

// Mode returns the active power mode.
func (s *Session) Mode() power.Mode { return s.controller.Mode() }

// Usage returns the per-mode time accounting.
func (s *Session) Usage() map[power.Mode]time.Duration { return s.controller.Usage() }

// AverageDraw returns the usage-weighted mean power weight.
func (s *Session) AverageDraw() float64 { return s.controller.AverageDraw() }

// Filter exposes the signal filter, mainly for state inspection.
func (s *Session) Filter() *motion.Filter { return s.filter }

// Detector exposes the swing detector, mainly for state inspection.
func (s *Session) Detector() *swing.Detector { return s.detector }

// Classifier exposes the practice classifier, mainly for state
// inspection.
func (s *Session) Classifier() *classify.Classifier { return s.classifier }

// onSample is the single entry point of the sample-delivery path. The
// controller observes raw energy before filtering; detection is
// suppressed while a confirmation is pending.
func (s *Session) onSample(raw motion.Sample) {
	if s.stopped.Load() {
		return
	}

	s.controller.Observe(raw)

	if s.workflow.Pending() {
		return
	}

	filtered := s.filter.Update(raw.Accel)
	s.detector.Process(motion.Sample{
		Timestamp: raw.Timestamp,
		Accel:     filtered,
		Rotation:  raw.Rotation,
	})
}

// onSwing handles a completed detection: emit the analytics, classify
// against the practice context, and gate the confirmation workflow.
func (s *Session) onSwing(a swing.Analytics) {
	if s.stopped.Load() {
		return
	}

	select {
	case s.swings <- a:
	default:
	}

	var loc *classify.Location
	if s.location != nil {
		if l, ok := s.location.Current(); ok {
			loc = &l
		}
	}

	s.mu.Lock()
	result := s.classifier.Classify(a.ImpactAt, loc)
	s.mu.Unlock()

	if classify.ShouldConfirm(result) {
		s.workflow.Begin(loc)
	}
}

// onResolve clears the practice context once a shot is confirmed or
// explicitly dismissed.
func (s *Session) onResolve(bool) {
	s.mu.Lock()
	s.classifier.Reset()
	s.mu.Unlock()
}

// onSensorError implements the error taxonomy for in-stream failures:
// isolated errors (calibration movement, transient noise) are silently
// ignored; the same error persisting across samples surfaces one
// auto-expiring notice while sampling continues.
func (s *Session) onSensorError(err error) {
	if s.stopped.Load() {
		return
	}

	s.mu.Lock()
	msg := err.Error()
	if msg == s.lastErr {
		s.errCount++
	} else {
		s.lastErr = msg
		s.errCount = 1
	}
	fire := s.errCount == s.cfg.RepeatedErrorThreshold
	s.mu.Unlock()

	if fire {
		select {
		case s.notices <- Notice{
			Message:   "motion sensor errors persist: " + msg,
			ExpiresAt: time.Now().Add(s.cfg.NoticeTTL),
		}:
		default:
		}
	}
}

func (s *Session) emitMode(e power.Event) {
	if s.stopped.Load() && e.New != power.ModeIdle {
		return
	}
	select {
	case s.modes <- e:
	default:
	}
}

func (s *Session) emitPhase(old, new swing.Phase) {
	if s.stopped.Load() {
		return
	}
	select {
	case s.phases <- PhaseEvent{Old: old, New: new}:
	default:
	}
}

func (s *Session) emitConfirmation(e confirm.Event) {
	if s.stopped.Load() {
		return
	}
	select {
	case s.confirmations <- e:
	default:
	}
}
