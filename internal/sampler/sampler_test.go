package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylabs/swingsense/internal/motion"
)

// fakeSource records lifecycle calls and reports a fixed effective
// interval.
type fakeSource struct {
	available bool
	effective time.Duration

	started   int
	stopped   int
	lastAsked time.Duration
	onSample  func(motion.Sample)
	onErr     func(error)
}

func (f *fakeSource) Available() bool { return f.available }

func (f *fakeSource) Start(interval time.Duration, onSample func(motion.Sample), onErr func(error)) (time.Duration, error) {
	f.started++
	f.lastAsked = interval
	f.onSample = onSample
	f.onErr = onErr
	if f.effective != 0 {
		return f.effective, nil
	}
	return interval, nil
}

func (f *fakeSource) Retarget(interval time.Duration) time.Duration {
	f.lastAsked = interval
	if f.effective != 0 {
		return f.effective
	}
	return interval
}

func (f *fakeSource) Stop() { f.stopped++ }

func TestSamplerNoSource(t *testing.T) {
	s := New(nil, nil)
	_, err := s.Start(100 * time.Millisecond)
	require.ErrorIs(t, err, ErrSensorUnavailable)
}

func TestSamplerUnavailableSource(t *testing.T) {
	std := &fakeSource{available: false}
	s := New(std, nil)
	_, err := s.Start(100 * time.Millisecond)
	require.ErrorIs(t, err, ErrSensorUnavailable)
	assert.Zero(t, std.started)
}

func TestSamplerPrefersBatchedAtHighRates(t *testing.T) {
	std := &fakeSource{available: true}
	batched := &fakeSource{available: true, effective: 5 * time.Millisecond}
	s := New(std, batched)

	eff, err := s.Start(5 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, eff)
	assert.Equal(t, 1, batched.started)
	assert.Zero(t, std.started)
}

func TestSamplerStandardAtLowRates(t *testing.T) {
	std := &fakeSource{available: true}
	batched := &fakeSource{available: true, effective: 5 * time.Millisecond}
	s := New(std, batched)

	eff, err := s.Start(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, eff)
	assert.Equal(t, 1, std.started)
	assert.Zero(t, batched.started)
}

func TestSamplerRetargetSwitchesSource(t *testing.T) {
	std := &fakeSource{available: true}
	batched := &fakeSource{available: true, effective: 5 * time.Millisecond}
	s := New(std, batched)

	_, err := s.Start(100 * time.Millisecond)
	require.NoError(t, err)

	// Escalating to a high rate moves delivery onto the batched path,
	// which reports its own fixed rate.
	eff := s.Retarget(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, eff)
	assert.Equal(t, 1, std.stopped)
	assert.Equal(t, 1, batched.started)

	// De-escalating moves back.
	eff = s.Retarget(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, eff)
	assert.Equal(t, 2, std.started)
	assert.Equal(t, 1, batched.stopped)

	assert.Equal(t, 20*time.Millisecond, s.Effective())
}

func TestSamplerBatchedFallback(t *testing.T) {
	// No standard source at all: the batched source serves every rate.
	batched := &fakeSource{available: true, effective: 5 * time.Millisecond}
	s := New(nil, batched)

	eff, err := s.Start(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, eff)
}

func TestSamplerStop(t *testing.T) {
	std := &fakeSource{available: true}
	s := New(std, nil)

	_, err := s.Start(50 * time.Millisecond)
	require.NoError(t, err)

	s.Stop()
	assert.Equal(t, 1, std.stopped)
	assert.Zero(t, s.Effective())

	// Retarget after stop is a no-op.
	assert.Zero(t, s.Retarget(10*time.Millisecond))
}

func TestSamplerDeliversToHandler(t *testing.T) {
	std := &fakeSource{available: true}
	s := New(std, nil)

	var got []motion.Sample
	s.SetHandler(func(smp motion.Sample) { got = append(got, smp) })

	_, err := s.Start(50 * time.Millisecond)
	require.NoError(t, err)

	std.onSample(motion.Sample{Accel: motion.Vec3{X: 1}})
	std.onSample(motion.Sample{Accel: motion.Vec3{X: 2}})

	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[1].Accel.X)
}

func TestMockSourceProducesSamples(t *testing.T) {
	src := NewMockSource(0)
	require.True(t, src.Available())

	got := make(chan motion.Sample, 256)
	eff, err := src.Start(time.Millisecond, func(s motion.Sample) {
		select {
		case got <- s:
		default:
		}
	}, nil)
	require.NoError(t, err)
	require.Equal(t, time.Millisecond, eff)
	defer src.Stop()

	select {
	case s := <-got:
		assert.False(t, s.Timestamp.IsZero())
		assert.Greater(t, s.Accel.Magnitude(), 0.0)
	case <-time.After(time.Second):
		t.Fatal("mock source produced no samples")
	}
}
