package power

import "time"

// Mode is the sampling power band. Exactly one mode is active at a
// time; sessions always begin in ModeIdle.
type Mode int

const (
	ModeIdle Mode = iota
	ModeListening
	ModeActive
	ModeHighFrequency
	ModePaused
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeListening:
		return "listening"
	case ModeActive:
		return "active"
	case ModeHighFrequency:
		return "high_frequency"
	case ModePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Interval is the sampling interval requested from the sampler while
// the mode is active. Zero means sensor delivery is off.
func (m Mode) Interval() time.Duration {
	switch m {
	case ModeListening:
		return 100 * time.Millisecond
	case ModeActive:
		return 20 * time.Millisecond
	case ModeHighFrequency:
		return 5 * time.Millisecond
	default:
		return 0
	}
}

// PowerWeight is the relative draw of the mode. Used only for
// average-power and remaining-time estimation, never for control
// decisions.
func (m Mode) PowerWeight() float64 {
	switch m {
	case ModeIdle:
		return 0.02
	case ModeListening:
		return 0.2
	case ModeActive:
		return 0.6
	case ModeHighFrequency:
		return 1.0
	case ModePaused:
		return 0.01
	default:
		return 0
	}
}

// sampling reports whether sensor delivery runs in this mode.
func (m Mode) sampling() bool {
	return m == ModeListening || m == ModeActive || m == ModeHighFrequency
}
