package swing

import (
	"time"

	"github.com/fairwaylabs/swingsense/internal/motion"
)

// Path is the club path classification derived from rotation rate
// through the hitting zone.
type Path int

const (
	PathUnknown Path = iota
	PathInsideOut
	PathNeutral
	PathOverTheTop
)

func (p Path) String() string {
	switch p {
	case PathInsideOut:
		return "inside_out"
	case PathNeutral:
		return "neutral"
	case PathOverTheTop:
		return "over_the_top"
	default:
		return "unknown"
	}
}

// MarshalText lets the path serialize as its name in JSON payloads.
func (p Path) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Empirical scale factors and floors for analytics extraction.
const (
	handSpeedPerG      = 1.9  // m/s of hand speed per g of peak filtered magnitude
	clubheadMultiplier = 1.45 // clubhead speed over hand speed
	impactFloorG       = 3.0  // peak magnitude floor for flagging impact
	impactDecelFloorG  = 1.5  // post-peak drop floor for flagging impact
	backswingStartG    = 1.5  // magnitude that marks the start of the takeaway
	pathRotThreshold   = 45.0 // deg/s: mean Z rotation beyond this classifies the path
)

// Analytics is the per-swing value record, produced exactly once per
// detected swing and immutable once emitted.
type Analytics struct {
	StartedAt time.Time `json:"started_at"`
	ImpactAt  time.Time `json:"impact_at"`

	TotalDuration     time.Duration `json:"total_duration_ns"`
	BackswingDuration time.Duration `json:"backswing_duration_ns"`
	DownswingDuration time.Duration `json:"downswing_duration_ns"`

	// TempoRatio is backswing over downswing, the classic instruction
	// metric. Zero when the downswing duration is zero.
	TempoRatio float64 `json:"tempo_ratio"`

	PeakHandSpeed     float64 `json:"peak_hand_speed_ms"`
	ClubheadSpeed     float64 `json:"clubhead_speed_ms"`
	PeakAccelMag      float64 `json:"peak_accel_g"`
	PeakRotationMag   float64 `json:"peak_rotation_dps"`
	ImpactDetected    bool    `json:"impact_detected"`
	ImpactDecel       float64 `json:"impact_decel_g"`
	SwingPath         Path    `json:"swing_path"`
}

// ExtractAnalytics computes the swing record from the raw sample set
// extracted around a detection: parallel filtered-acceleration,
// rotation, and timestamp slices, oldest first. Returns false when too
// few samples are available to delimit the swing. Underflow conditions
// short-circuit to zero values, never to a numeric error.
func ExtractAnalytics(accel, rot []motion.Vec3, times []time.Time, sensitivity float64) (Analytics, bool) {
	if sensitivity <= 0 {
		sensitivity = 1.0
	}
	n := len(accel)
	if n < 3 || len(rot) != n || len(times) != n {
		return Analytics{}, false
	}

	mags := make([]float64, n)
	for i, v := range accel {
		mags[i] = v.Magnitude()
	}

	// Impact is the global peak of the filtered magnitude.
	impact := 0
	for i := 1; i < n; i++ {
		if mags[i] > mags[impact] {
			impact = i
		}
	}

	// Backswing start: first sample above the takeaway floor before the
	// peak.
	start := 0
	for i := 0; i < impact; i++ {
		if mags[i] > backswingStartG*sensitivity {
			start = i
			break
		}
	}

	// Top of swing: the local minimum between the initial rise and the
	// eventual peak.
	top := start
	for i := start + 1; i < impact; i++ {
		if mags[i] < mags[top] {
			top = i
		}
	}

	a := Analytics{
		StartedAt:    times[start],
		ImpactAt:     times[impact],
		PeakAccelMag: mags[impact],
	}

	a.BackswingDuration = times[top].Sub(times[start])
	a.DownswingDuration = times[impact].Sub(times[top])
	a.TotalDuration = times[impact].Sub(times[start])
	if a.DownswingDuration > 0 {
		a.TempoRatio = a.BackswingDuration.Seconds() / a.DownswingDuration.Seconds()
	}

	a.PeakHandSpeed = a.PeakAccelMag * handSpeedPerG
	a.ClubheadSpeed = a.PeakHandSpeed * clubheadMultiplier

	for _, v := range rot {
		if m := v.Magnitude(); m > a.PeakRotationMag {
			a.PeakRotationMag = m
		}
	}

	// Impact flag: hard enough peak followed by a hard enough stop.
	minAfter := mags[impact]
	for i := impact + 1; i < n; i++ {
		if mags[i] < minAfter {
			minAfter = mags[i]
		}
	}
	decel := mags[impact] - minAfter
	if mags[impact] >= impactFloorG && decel >= impactDecelFloorG {
		a.ImpactDetected = true
		a.ImpactDecel = decel
	}

	a.SwingPath = classifyPath(rot, top, impact)
	return a, true
}

// classifyPath averages the Z rotation rate over the last quarter of
// the downswing. Positive spin past the threshold reads as an
// inside-out release, negative as over the top.
func classifyPath(rot []motion.Vec3, top, impact int) Path {
	span := impact - top
	if span < 4 {
		return PathUnknown
	}
	from := impact - span/4

	var sum float64
	var count int
	for i := from; i <= impact && i < len(rot); i++ {
		sum += rot[i].Z
		count++
	}
	if count == 0 {
		return PathUnknown
	}

	mean := sum / float64(count)
	switch {
	case mean > pathRotThreshold:
		return PathInsideOut
	case mean < -pathRotThreshold:
		return PathOverTheTop
	default:
		return PathNeutral
	}
}
