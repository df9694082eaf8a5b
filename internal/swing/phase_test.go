package swing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseNext(t *testing.T) {
	assert.Equal(t, PhaseAddress, PhaseIdle.Next())
	assert.Equal(t, PhaseBackswing, PhaseAddress.Next())
	assert.Equal(t, PhaseImpact, PhaseDownswing.Next())
	assert.Equal(t, PhaseFinished, PhaseFollowThrough.Next())
	assert.Equal(t, PhaseFinished, PhaseFinished.Next(), "finished is terminal")
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "top_of_swing", PhaseTopOfSwing.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

// observeAll feeds a magnitude series and returns the transitions.
func observeAll(t *PhaseTracker, mags []float64) {
	for _, m := range mags {
		t.Observe(m)
	}
}

func TestPhaseTrackerFullSwing(t *testing.T) {
	var transitions [][2]Phase
	tr := NewPhaseTracker(1.0, func(old, new Phase) {
		transitions = append(transitions, [2]Phase{old, new})
	})

	observeAll(tr, []float64{
		1.0, 1.1, // quiet
		2.0,      // takeaway: address + backswing
		1.5, 1.0, // settling toward the top (local minimum 1.0)
		1.6,           // rise off the minimum: top + transition + downswing
		3.0, 5.5, 6.0, // downswing ramp, peak 6.0
		4.0, // drop off the peak: impact
		2.0, // follow-through
		0.9, // settled: finished, then back to idle
	})

	require.Equal(t, PhaseIdle, tr.Phase())

	var seen []Phase
	for _, tr := range transitions {
		seen = append(seen, tr[1])
	}
	assert.Equal(t, []Phase{
		PhaseAddress, PhaseBackswing,
		PhaseTopOfSwing, PhaseTransition, PhaseDownswing,
		PhaseImpact, PhaseFollowThrough, PhaseFinished, PhaseIdle,
	}, seen)

	// Every transition follows the successor chain (the closing
	// Finished→Idle wrap excepted).
	for _, pair := range transitions[:len(transitions)-1] {
		assert.Equal(t, pair[0].Next(), pair[1])
	}
}

func TestPhaseTrackerStaysIdleWhenQuiet(t *testing.T) {
	tr := NewPhaseTracker(1.0, nil)
	for i := 0; i < 100; i++ {
		tr.Observe(1.0)
	}
	assert.Equal(t, PhaseIdle, tr.Phase())
}

func TestPhaseTrackerSensitivityScalesWake(t *testing.T) {
	relaxed := NewPhaseTracker(2.0, nil)
	relaxed.Observe(2.0) // below 1.6*2.0
	assert.Equal(t, PhaseIdle, relaxed.Phase())

	eager := NewPhaseTracker(0.5, nil)
	eager.Observe(0.9) // above 1.6*0.5
	assert.Equal(t, PhaseBackswing, eager.Phase())
}

func TestPhaseTrackerResetAbandons(t *testing.T) {
	var last [2]Phase
	tr := NewPhaseTracker(1.0, func(old, new Phase) { last = [2]Phase{old, new} })

	tr.Observe(2.0)
	require.Equal(t, PhaseBackswing, tr.Phase())

	tr.Reset()
	assert.Equal(t, PhaseIdle, tr.Phase())
	assert.Equal(t, [2]Phase{PhaseBackswing, PhaseIdle}, last)
}
