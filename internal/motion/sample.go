package motion

import (
	"math"
	"time"
)

// Vec3 is a 3-axis sensor reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns the Euclidean norm of the vector.
func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sample is a single sensor tick: acceleration in g and rotation rate
// in deg/s, stamped at the moment the hardware produced it.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	Accel     Vec3      `json:"accel"`
	Rotation  Vec3      `json:"rot"`
}

// Energy is the acceleration magnitude, the trigger signal for
// power-mode and swing-phase decisions. Includes the 1 g gravity
// baseline; thresholds account for it.
func (s Sample) Energy() float64 {
	return s.Accel.Magnitude()
}
