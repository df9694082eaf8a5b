package confirm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylabs/swingsense/internal/classify"
)

func testConfig() Config {
	return Config{
		GracePeriod: 20 * time.Millisecond,
		AutoDismiss: 60 * time.Millisecond,
	}
}

// recorder collects workflow events and resolutions thread-safely.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	resolved []bool
}

func (r *recorder) emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) resolve(confirmed bool) {
	r.mu.Lock()
	r.resolved = append(r.resolved, confirmed)
	r.mu.Unlock()
}

func (r *recorder) snapshot() ([]Event, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...), append([]bool(nil), r.resolved...)
}

func TestWorkflowSurfacesAfterGrace(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)
	loc := &classify.Location{Latitude: 52.0, Longitude: -0.75}

	require.True(t, w.Begin(loc))
	require.True(t, w.Pending())

	// Nothing surfaces inside the grace period.
	events, _ := rec.snapshot()
	assert.Empty(t, events)

	require.Eventually(t, func() bool {
		events, _ := rec.snapshot()
		return len(events) == 1
	}, time.Second, time.Millisecond)

	events, _ = rec.snapshot()
	assert.Equal(t, EventPending, events[0].Kind)
	require.NotNil(t, events[0].Location)
	assert.Equal(t, 52.0, events[0].Location.Latitude)
	assert.True(t, w.Pending(), "still pending until answered")
}

func TestWorkflowSilentCancelInGrace(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)

	require.True(t, w.Begin(nil))
	require.True(t, w.CancelSilently())
	assert.False(t, w.Pending())

	// No prompt, no outcome, ever.
	time.Sleep(100 * time.Millisecond)
	events, resolved := rec.snapshot()
	assert.Empty(t, events)
	assert.Empty(t, resolved)

	// The workflow is reusable immediately.
	assert.True(t, w.Begin(nil))
}

func TestWorkflowSilentCancelRefusedAfterSurface(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)

	require.True(t, w.Begin(nil))
	require.Eventually(t, func() bool {
		events, _ := rec.snapshot()
		return len(events) == 1
	}, time.Second, time.Millisecond)

	assert.False(t, w.CancelSilently())
	assert.True(t, w.Pending())
}

func TestWorkflowConfirm(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)
	loc := &classify.Location{Latitude: 52.0}

	require.True(t, w.Begin(loc))
	require.Eventually(t, func() bool {
		events, _ := rec.snapshot()
		return len(events) == 1
	}, time.Second, time.Millisecond)

	w.Confirm()

	events, resolved := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, EventConfirmed, events[1].Kind)
	require.NotNil(t, events[1].Location, "confirmed shots carry their location")
	assert.Equal(t, []bool{true}, resolved)
	assert.False(t, w.Pending())

	// Double answers are no-ops.
	w.Confirm()
	w.Dismiss()
	events, resolved = rec.snapshot()
	assert.Len(t, events, 2)
	assert.Len(t, resolved, 1)
}

func TestWorkflowDismiss(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)

	require.True(t, w.Begin(&classify.Location{Latitude: 52.0}))
	require.Eventually(t, func() bool {
		events, _ := rec.snapshot()
		return len(events) == 1
	}, time.Second, time.Millisecond)

	w.Dismiss()

	events, resolved := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, EventDismissed, events[1].Kind)
	assert.Nil(t, events[1].Location, "dismissed shots drop their location")
	assert.Equal(t, []bool{false}, resolved)
}

func TestWorkflowAutoDismiss(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)

	require.True(t, w.Begin(nil))

	require.Eventually(t, func() bool {
		events, _ := rec.snapshot()
		return len(events) == 2
	}, time.Second, time.Millisecond)

	events, resolved := rec.snapshot()
	assert.Equal(t, EventPending, events[0].Kind)
	assert.Equal(t, EventDismissed, events[1].Kind)
	assert.Equal(t, []bool{false}, resolved)
	assert.False(t, w.Pending())
}

func TestWorkflowSingleCandidate(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)

	require.True(t, w.Begin(nil))
	assert.False(t, w.Begin(nil), "second candidate refused while one is in flight")
}

func TestWorkflowStopIsSilent(t *testing.T) {
	rec := &recorder{}
	w := New(testConfig(), rec.emit, rec.resolve)

	require.True(t, w.Begin(nil))
	w.Stop()
	assert.False(t, w.Pending())

	time.Sleep(100 * time.Millisecond)
	events, resolved := rec.snapshot()
	assert.Empty(t, events)
	assert.Empty(t, resolved)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "confirmed", StateConfirmed.String())
	assert.Equal(t, "dismissed", StateDismissed.String())
}
