// Package sampler abstracts the motion sensor source behind a single
// push-style stream of timestamped acceleration/rotation samples,
// regardless of whether the hardware delivers samples individually or
// in high-frequency batches.
package sampler

import (
	"errors"
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense/internal/motion"
)

// ErrSensorUnavailable is returned by Start when no motion source is
// available. Fatal to starting collection; surfaced once, no retry.
var ErrSensorUnavailable = errors.New("sampler: no motion source available")

// batchedPreferInterval is the requested-interval ceiling below which
// the high-fidelity batched source is preferred when available.
const batchedPreferInterval = 10 * time.Millisecond

// Source is a push source of motion samples. Start begins delivery and
// returns the effective interval the source actually delivers at, which
// may differ from the request (the batched hardware path runs at a
// fixed rate regardless of what was asked for). onErr, if non-nil,
// receives per-sample read errors; delivery continues best-effort.
type Source interface {
	Available() bool
	Start(interval time.Duration, onSample func(motion.Sample), onErr func(error)) (time.Duration, error)
	Retarget(interval time.Duration) time.Duration
	Stop()
}

// Sampler owns the active source selection. When a batched source is
// available and a high rate is requested it is preferred; otherwise the
// standard per-sample source runs at the literal requested interval.
type Sampler struct {
	standard Source
	batched  Source

	mu        sync.Mutex
	active    Source
	onSample  func(motion.Sample)
	onErr     func(error)
	effective time.Duration
}

// New creates a sampler over the given sources. Either may be nil.
func New(standard, batched Source) *Sampler {
	return &Sampler{standard: standard, batched: batched}
}

// SetHandler sets the per-sample callback. Must be called before Start.
func (s *Sampler) SetHandler(fn func(motion.Sample)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSample = fn
}

// SetErrorHandler sets the callback for non-fatal sensor read errors.
func (s *Sampler) SetErrorHandler(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onErr = fn
}

// Start begins sample delivery at the requested interval and returns
// the effective interval. Fails with ErrSensorUnavailable when neither
// source is usable.
func (s *Sampler) Start(interval time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Stop()
		s.active = nil
	}

	src := s.pick(interval)
	if src == nil {
		return 0, ErrSensorUnavailable
	}

	eff, err := src.Start(interval, s.onSample, s.onErr)
	if err != nil {
		return 0, err
	}
	s.active = src
	s.effective = eff
	return eff, nil
}

// Retarget changes the delivery rate of a running sampler, switching
// between the batched and standard sources when the new interval calls
// for it. Returns the new effective interval. No-op when stopped.
func (s *Sampler) Retarget(interval time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return 0
	}

	want := s.pick(interval)
	if want != s.active {
		s.active.Stop()
		eff, err := want.Start(interval, s.onSample, s.onErr)
		if err != nil {
			// Keep the old source rather than going deaf.
			eff, _ = s.active.Start(interval, s.onSample, s.onErr)
			s.effective = eff
			return eff
		}
		s.active = want
		s.effective = eff
		return eff
	}

	s.effective = s.active.Retarget(interval)
	return s.effective
}

// Stop halts sample delivery.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Stop()
		s.active = nil
	}
	s.effective = 0
}

// Effective returns the interval the active source delivers at, or 0
// when stopped.
func (s *Sampler) Effective() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effective
}

// pick selects the source for a requested interval. Callers hold s.mu.
func (s *Sampler) pick(interval time.Duration) Source {
	if s.batched != nil && s.batched.Available() && interval <= batchedPreferInterval {
		return s.batched
	}
	if s.standard != nil && s.standard.Available() {
		return s.standard
	}
	if s.batched != nil && s.batched.Available() {
		return s.batched
	}
	return nil
}
