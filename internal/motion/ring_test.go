package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingVec3EvictsOldest(t *testing.T) {
	r := NewRingVec3(3)

	r.Push(Vec3{X: 1})
	r.Push(Vec3{X: 2})
	r.Push(Vec3{X: 3})
	require.Equal(t, 3, r.Len())

	r.Push(Vec3{X: 4})
	require.Equal(t, 3, r.Len())

	assert.Equal(t, Vec3{X: 2}, r.At(0))
	assert.Equal(t, Vec3{X: 3}, r.At(1))
	assert.Equal(t, Vec3{X: 4}, r.At(2))
}

func TestRingVec3Tail(t *testing.T) {
	r := NewRingVec3(4)
	for i := 1; i <= 6; i++ {
		r.Push(Vec3{X: float64(i)})
	}

	tail := r.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, Vec3{X: 5}, tail[0])
	assert.Equal(t, Vec3{X: 6}, tail[1])

	// Asking for more than buffered returns everything, oldest first.
	all := r.Tail(10)
	require.Len(t, all, 4)
	assert.Equal(t, Vec3{X: 3}, all[0])
	assert.Equal(t, Vec3{X: 6}, all[3])
}

func TestRingVec3Reset(t *testing.T) {
	r := NewRingVec3(2)
	r.Push(Vec3{X: 1})
	r.Push(Vec3{X: 2})

	r.Reset()
	assert.Equal(t, 0, r.Len())

	r.Push(Vec3{X: 9})
	assert.Equal(t, Vec3{X: 9}, r.At(0))
}

func TestRingTimeLockstep(t *testing.T) {
	r := NewRingTime(3)
	base := time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r.Push(base.Add(time.Duration(i) * time.Second))
	}

	require.Equal(t, 3, r.Len())
	assert.Equal(t, base.Add(2*time.Second), r.At(0))
	assert.Equal(t, base.Add(4*time.Second), r.At(2))

	tail := r.Tail(2)
	assert.Equal(t, base.Add(3*time.Second), tail[0])
	assert.Equal(t, base.Add(4*time.Second), tail[1])
}

func TestSampleEnergy(t *testing.T) {
	s := Sample{Accel: Vec3{X: 3, Y: 4}}
	assert.InDelta(t, 5.0, s.Energy(), 1e-12)

	assert.InDelta(t, 1.0, Vec3{Z: -1}.Magnitude(), 1e-12)
}
