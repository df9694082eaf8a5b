// Package classify decides whether a newly detected swing is likely a
// practice repetition rather than a genuine shot, from its timing and
// (optional) geographic proximity to the previous detection.
package classify

import (
	"math"
	"time"
)

// Location is a WGS84 point. Passed explicitly into Classify; there is
// no shared GPS object to pull from.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Likelihood grades how confidently a detection reads as practice.
type Likelihood int

const (
	// LikelihoodNo: outside the time window, or a clear location change.
	LikelihoodNo Likelihood = iota
	// LikelihoodPossible: inside the time window but no location data
	// on one or both sides; the conservative time-only fallback.
	LikelihoodPossible
	// LikelihoodLikely: inside the time window and within the proximity
	// radius of the previous detection.
	LikelihoodLikely
)

func (l Likelihood) String() string {
	switch l {
	case LikelihoodPossible:
		return "possible"
	case LikelihoodLikely:
		return "likely"
	default:
		return "no"
	}
}

// Config holds the classification window and radius.
type Config struct {
	Window time.Duration // rolling window after the previous detection
	Radius float64       // meters
}

// DefaultConfig returns the tuned production values.
func DefaultConfig() Config {
	return Config{
		Window: 30 * time.Second,
		Radius: 15.0,
	}
}

// Result of classifying one detection.
type Result struct {
	Practice    Likelihood `json:"practice"`
	Consecutive int        `json:"consecutive"`
}

// Classifier carries the rolling practice context: last detection time
// and location plus the consecutive-repetition counter. One instance
// per session; reset when a shot is confirmed or dismissed.
type Classifier struct {
	cfg Config

	lastTime    time.Time
	lastLoc     *Location
	consecutive int
}

// New creates a classifier with an empty context.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify grades a new detection against the previous one and updates
// the rolling context. Never errors; always produces a definite result.
func (c *Classifier) Classify(t time.Time, loc *Location) Result {
	var r Result

	switch {
	case c.lastTime.IsZero() || t.Sub(c.lastTime) > c.cfg.Window:
		// Outside the window: the counter resets.
		c.consecutive = 1
		r = Result{Practice: LikelihoodNo, Consecutive: 1}

	case loc != nil && c.lastLoc != nil:
		if haversineMeters(*loc, *c.lastLoc) <= c.cfg.Radius {
			c.consecutive++
			r = Result{Practice: LikelihoodLikely, Consecutive: c.consecutive}
		} else {
			// Quick follow-up from a clearly different spot reads as a
			// real shot from a new lie, not a repetition.
			c.consecutive = 1
			r = Result{Practice: LikelihoodNo, Consecutive: 1}
		}

	default:
		// Inside the window but blind on position: mark as possible
		// practice rather than certain.
		c.consecutive++
		r = Result{Practice: LikelihoodPossible, Consecutive: c.consecutive}
	}

	c.lastTime = t
	c.lastLoc = loc
	return r
}

// ShouldConfirm reports whether a detection with this result starts the
// confirmation workflow: anything not confidently practice does, and so
// does the second-or-later swing at the same apparent spot, read as the
// real swing after warm-up practice.
func ShouldConfirm(r Result) bool {
	return r.Practice != LikelihoodLikely || r.Consecutive >= 2
}

// Reset clears the rolling context. Called when a shot is confirmed or
// explicitly dismissed.
func (c *Classifier) Reset() {
	c.lastTime = time.Time{}
	c.lastLoc = nil
	c.consecutive = 0
}

// Consecutive returns the current repetition counter.
func (c *Classifier) Consecutive() int { return c.consecutive }

const earthRadiusMeters = 6371000.0

// haversineMeters is the great-circle distance between two points.
func haversineMeters(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
