package motion

// Filter noise constants. Tuned to favor smoothing over responsiveness;
// the swing-detection thresholds downstream assume this exact behavior.
const (
	processNoise     = 0.05
	measurementNoise = 1.2
)

// Filter is a scalar-gain recursive (Kalman-style) filter applied to a
// 3-axis acceleration stream. All three axes share one scalar gain and
// one scalar covariance. This is intentionally not a full multivariate
// filter.
type Filter struct {
	estimate   Vec3
	covariance float64
	q          float64
	r          float64
}

// NewFilter returns a filter in its initial state: zero estimate,
// unit covariance.
func NewFilter() *Filter {
	return &Filter{
		covariance: 1.0,
		q:          processNoise,
		r:          measurementNoise,
	}
}

// Update feeds one measurement and returns the smoothed estimate.
func (f *Filter) Update(m Vec3) Vec3 {
	p := f.covariance + f.q
	k := p / (p + f.r)

	f.estimate.X += k * (m.X - f.estimate.X)
	f.estimate.Y += k * (m.Y - f.estimate.Y)
	f.estimate.Z += k * (m.Z - f.estimate.Z)
	f.covariance = (1 - k) * p

	return f.estimate
}

// Reset restores the initial state. Called at the start of every
// collection session.
func (f *Filter) Reset() {
	f.estimate = Vec3{}
	f.covariance = 1.0
}

// Estimate returns the current smoothed value without updating.
func (f *Filter) Estimate() Vec3 { return f.estimate }

// Covariance returns the current error covariance.
func (f *Filter) Covariance() float64 { return f.covariance }
