// Package power implements the energy-threshold-driven sampling state
// machine: it escalates sampling fidelity when raw motion energy rises
// and de-escalates on idle timeouts, trading battery life against
// detection latency. Asymmetric thresholds and timeouts keep the mode
// from oscillating.
package power

import (
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense/internal/motion"
	"github.com/fairwaylabs/swingsense/internal/sched"
)

// Config holds the controller thresholds and timeouts. Energy values
// are acceleration magnitudes in g, gravity included.
type Config struct {
	WakeThreshold     float64       // Listening→Active
	HighFreqThreshold float64       // Active→HighFrequency
	IdleTimeout       time.Duration // Active→Listening after no above-wake motion
	HighFreqTimeout   time.Duration // HighFrequency→Active after no above-HF motion
	OverrideDuration  time.Duration // forced HighFrequency reverts after this
}

// DefaultConfig returns the tuned production values.
func DefaultConfig() Config {
	return Config{
		WakeThreshold:     1.3,
		HighFreqThreshold: 2.0,
		IdleTimeout:       30 * time.Second,
		HighFreqTimeout:   5 * time.Second,
		OverrideDuration:  60 * time.Second,
	}
}

// Event reports one mode change together with the sampler's new
// effective interval.
type Event struct {
	Old       Mode          `json:"old"`
	New       Mode          `json:"new"`
	Effective time.Duration `json:"effective_interval"`
}

// RateTarget is what the controller drives. Satisfied by
// *sampler.Sampler.
type RateTarget interface {
	Start(interval time.Duration) (time.Duration, error)
	Retarget(interval time.Duration) time.Duration
	Stop()
}

// Controller is the power-mode state machine. One instance per
// collection session; construct with New and pass dependencies
// explicitly.
type Controller struct {
	cfg    Config
	target RateTarget
	emit   func(Event)

	mu        sync.Mutex
	mode      Mode
	modeTimer sched.Timer

	// Accounting. Pure side computation for reporting; never feeds
	// back into transition decisions.
	usage     map[Mode]time.Duration
	enteredAt time.Time
}

// New creates a controller in ModeIdle. emit may be nil; when set it
// must not block (the controller calls it on the sample path).
func New(cfg Config, target RateTarget, emit func(Event)) *Controller {
	return &Controller{
		cfg:       cfg,
		target:    target,
		emit:      emit,
		mode:      ModeIdle,
		usage:     make(map[Mode]time.Duration),
		enteredAt: time.Now(),
	}
}

// Mode returns the currently active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Start moves Idle→Listening and begins sensor delivery. Returns the
// sampler error unchanged when no motion source is available.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return nil
	}
	return c.setMode(ModeListening)
}

// Stop returns the controller to ModeIdle, halts sensor delivery, and
// invalidates any outstanding timeout.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeIdle {
		return
	}
	_ = c.setMode(ModeIdle)
}

// Pause suspends sampling. Explicit only, and only from Listening or
// Idle; higher modes mean the user is mid-motion and pause is refused.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeListening && c.mode != ModeIdle {
		return
	}
	_ = c.setMode(ModePaused)
}

// Resume returns a paused controller to Listening.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModePaused {
		return
	}
	_ = c.setMode(ModeListening)
}

// ForceHighFrequency forces the high-fidelity band for the configured
// override duration, reverting to Active afterwards unless motion
// re-triggered the band first.
func (c *Controller) ForceHighFrequency() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeIdle || c.mode == ModePaused {
		return
	}
	if c.mode != ModeHighFrequency {
		_ = c.setMode(ModeHighFrequency)
	}
	c.modeTimer.Arm(c.cfg.OverrideDuration, func() { c.timeout(ModeHighFrequency) })
}

// Observe feeds one raw (unfiltered) sample's energy into the state
// machine. Runs on the sample-delivery path and never blocks.
func (c *Controller) Observe(s motion.Sample) {
	energy := s.Energy()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeListening:
		if energy > c.cfg.WakeThreshold {
			_ = c.setMode(ModeActive)
		}
	case ModeActive:
		if energy > c.cfg.HighFreqThreshold {
			_ = c.setMode(ModeHighFrequency)
		} else if energy > c.cfg.WakeThreshold {
			// Still moving: push the idle de-escalation out.
			c.modeTimer.Arm(c.cfg.IdleTimeout, func() { c.timeout(ModeActive) })
		}
	case ModeHighFrequency:
		if energy > c.cfg.HighFreqThreshold {
			// Qualifying motion extends the band instead of leaving it.
			c.modeTimer.Arm(c.cfg.HighFreqTimeout, func() { c.timeout(ModeHighFrequency) })
		}
	}
}

// timeout handles the mode-specific timer firing. The sched.Timer
// generation guard means a stale fire never reaches here, but the mode
// is still re-checked because Arm and transition race windows differ.
func (c *Controller) timeout(from Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != from {
		return
	}
	switch from {
	case ModeActive:
		_ = c.setMode(ModeListening)
	case ModeHighFrequency:
		_ = c.setMode(ModeActive)
	}
}

// setMode performs the transition: accounting, sampler retargeting,
// timeout re-arm, and event emission. Callers hold c.mu.
func (c *Controller) setMode(next Mode) error {
	old := c.mode
	if next == old {
		return nil
	}

	now := time.Now()
	c.usage[old] += now.Sub(c.enteredAt)
	c.enteredAt = now

	var effective time.Duration
	switch {
	case next.sampling() && !old.sampling():
		eff, err := c.target.Start(next.Interval())
		if err != nil {
			return err
		}
		effective = eff
	case next.sampling():
		effective = c.target.Retarget(next.Interval())
	default:
		c.target.Stop()
	}

	c.mode = next

	switch next {
	case ModeActive:
		c.modeTimer.Arm(c.cfg.IdleTimeout, func() { c.timeout(ModeActive) })
	case ModeHighFrequency:
		c.modeTimer.Arm(c.cfg.HighFreqTimeout, func() { c.timeout(ModeHighFrequency) })
	default:
		c.modeTimer.Cancel()
	}

	if c.emit != nil {
		c.emit(Event{Old: old, New: next, Effective: effective})
	}
	return nil
}

// Usage returns the accumulated time spent in each mode, including the
// in-flight span of the current mode.
func (c *Controller) Usage() map[Mode]time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[Mode]time.Duration, len(c.usage)+1)
	for m, d := range c.usage {
		out[m] = d
	}
	out[c.mode] += time.Since(c.enteredAt)
	return out
}

// AverageDraw returns the usage-weighted mean power weight, the number
// a battery-remaining display divides capacity by.
func (c *Controller) AverageDraw() float64 {
	usage := c.Usage()

	var total, weighted float64
	for m, d := range usage {
		total += d.Seconds()
		weighted += m.PowerWeight() * d.Seconds()
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}
