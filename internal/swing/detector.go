// Package swing detects golf swings in a filtered motion stream: a
// sliding-window peak-then-deceleration scan emits completed swings
// with extracted analytics, while a per-sample phase tracker reports
// live progress through the swing.
package swing

import (
	"time"

	"github.com/fairwaylabs/swingsense/internal/motion"
)

// Buffer geometry. The rings are parallel: one push per filtered
// sample into each.
const (
	bufferCapacity = 256
	detectWindow   = 50
	extractWindow  = 100
	interiorMargin = 5 // the peak must sit strictly inside the window
)

// Config holds the detection thresholds, in g. Sensitivity is the
// per-user scalar multiplier applied to them.
type Config struct {
	PeakFloorG  float64
	DecelFloorG float64
	Sensitivity float64
}

// DefaultConfig returns the tuned production thresholds.
func DefaultConfig() Config {
	return Config{
		PeakFloorG:  2.5,
		DecelFloorG: 1.5,
		Sensitivity: 1.0,
	}
}

// Detector consumes filtered samples one at a time and emits a
// completed-swing record when the window shows a qualifying
// peak-then-deceleration signature. One instance per session; not safe
// for concurrent Process calls (the pipeline is single-producer).
type Detector struct {
	cfg     Config
	accel   *motion.RingVec3
	rot     *motion.RingVec3
	times   *motion.RingTime
	tracker *PhaseTracker
	onSwing func(Analytics)
}

// NewDetector creates a detector. onPhase and onSwing may be nil; when
// set they must not block.
func NewDetector(cfg Config, onPhase func(old, new Phase), onSwing func(Analytics)) *Detector {
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = 1.0
	}
	return &Detector{
		cfg:     cfg,
		accel:   motion.NewRingVec3(bufferCapacity),
		rot:     motion.NewRingVec3(bufferCapacity),
		times:   motion.NewRingTime(bufferCapacity),
		tracker: NewPhaseTracker(cfg.Sensitivity, onPhase),
		onSwing: onSwing,
	}
}

// Phase returns the live phase-tracker state.
func (d *Detector) Phase() Phase { return d.tracker.Phase() }

// BufferLen returns the number of buffered samples.
func (d *Detector) BufferLen() int { return d.accel.Len() }

// Process appends one filtered sample and re-evaluates the most recent
// window for a swing signature. Detection never errors: the result is
// either an emitted swing or nothing.
func (d *Detector) Process(s motion.Sample) {
	d.accel.Push(s.Accel)
	d.rot.Push(s.Rotation)
	d.times.Push(s.Timestamp)

	d.tracker.Observe(s.Accel.Magnitude())

	if d.accel.Len() < detectWindow {
		return
	}
	if !d.scanWindow() {
		return
	}

	// Qualifying signature: hand the wider trailing window to analytics
	// extraction, then evict the consumed samples so replaying the tail
	// cannot re-trigger on the same event.
	accel := d.accel.Tail(extractWindow)
	rot := d.rot.Tail(extractWindow)
	times := d.times.Tail(extractWindow)

	d.accel.Reset()
	d.rot.Reset()
	d.times.Reset()
	d.tracker.Reset()

	if a, ok := ExtractAnalytics(accel, rot, times, d.cfg.Sensitivity); ok && d.onSwing != nil {
		d.onSwing(a)
	}
}

// scanWindow checks the newest detectWindow samples for a peak above
// the G floor, positioned in the window interior, followed by a drop
// beyond the deceleration floor.
func (d *Detector) scanWindow() bool {
	n := d.accel.Len()
	base := n - detectWindow

	peakIdx := 0
	peakMag := 0.0
	for i := 0; i < detectWindow; i++ {
		mag := d.accel.At(base + i).Magnitude()
		if mag > peakMag {
			peakMag = mag
			peakIdx = i
		}
	}

	if peakMag < d.cfg.PeakFloorG*d.cfg.Sensitivity {
		return false
	}
	// Peaks at the window edges are boundary artifacts: either the
	// event is still arriving or it is about to be evicted mid-shape.
	if peakIdx < interiorMargin || peakIdx >= detectWindow-interiorMargin {
		return false
	}

	minAfter := peakMag
	for i := peakIdx + 1; i < detectWindow; i++ {
		if mag := d.accel.At(base + i).Magnitude(); mag < minAfter {
			minAfter = mag
		}
	}
	return peakMag-minAfter > d.cfg.DecelFloorG*d.cfg.Sensitivity
}

// Reset restores the initial state: empty buffers, Idle phase. Called
// on stop/start cycles.
func (d *Detector) Reset() {
	d.accel.Reset()
	d.rot.Reset()
	d.times.Reset()
	d.tracker.Reset()
}

// LastSampleAt reports the timestamp of the newest buffered sample.
// Zero time when the buffer is empty.
func (d *Detector) LastSampleAt() time.Time {
	if d.times.Len() == 0 {
		return time.Time{}
	}
	return d.times.At(d.times.Len() - 1)
}
