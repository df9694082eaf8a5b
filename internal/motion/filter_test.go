package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterConvergesWithoutOvershoot(t *testing.T) {
	f := NewFilter()
	target := Vec3{X: 0, Y: 0, Z: 5}

	prev := 0.0
	for i := 0; i < 100; i++ {
		est := f.Update(target)
		require.LessOrEqual(t, est.Z, target.Z, "estimate overshot the constant input at step %d", i)
		require.GreaterOrEqual(t, est.Z, prev, "estimate moved away from the constant input at step %d", i)
		prev = est.Z
	}

	assert.InDelta(t, 5.0, f.Estimate().Z, 0.05)
	assert.Zero(t, f.Estimate().X)
	assert.Zero(t, f.Estimate().Y)
}

func TestFilterSmoothsSpikes(t *testing.T) {
	f := NewFilter()

	for i := 0; i < 50; i++ {
		f.Update(Vec3{X: 1})
	}
	est := f.Update(Vec3{X: 10})

	// One outlier must not drag the estimate anywhere near it.
	assert.Less(t, est.X, 4.0)
	assert.Greater(t, est.X, 1.0)
}

func TestFilterCovarianceShrinks(t *testing.T) {
	f := NewFilter()
	require.Equal(t, 1.0, f.Covariance())

	prev := f.Covariance()
	for i := 0; i < 20; i++ {
		f.Update(Vec3{X: 1})
		cov := f.Covariance()
		require.Less(t, cov, prev)
		prev = cov
	}
}

func TestFilterReset(t *testing.T) {
	f := NewFilter()
	for i := 0; i < 10; i++ {
		f.Update(Vec3{X: 3, Y: -2, Z: 7})
	}

	f.Reset()

	assert.Equal(t, Vec3{}, f.Estimate())
	assert.Equal(t, 1.0, f.Covariance())
}
