package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFires(t *testing.T) {
	var tm Timer
	fired := make(chan struct{})

	tm.Arm(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestTimerRearmReplacesCallback(t *testing.T) {
	var tm Timer
	var first, second atomic.Int32

	tm.Arm(30*time.Millisecond, func() { first.Add(1) })
	tm.Arm(10*time.Millisecond, func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), first.Load(), "replaced callback must not run")
	assert.Equal(t, int32(1), second.Load())
}

func TestTimerCancel(t *testing.T) {
	var tm Timer
	var fired atomic.Int32

	tm.Arm(10*time.Millisecond, func() { fired.Add(1) })
	tm.Cancel()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimerCancelUnarmedIsNoop(t *testing.T) {
	var tm Timer
	tm.Cancel()
	tm.Cancel()

	fired := make(chan struct{})
	tm.Arm(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer unusable after cancel")
	}
}

func TestTimerReuseAfterFire(t *testing.T) {
	var tm Timer
	var count atomic.Int32

	done := make(chan struct{})
	tm.Arm(5*time.Millisecond, func() { count.Add(1) })
	time.Sleep(30 * time.Millisecond)
	tm.Arm(5*time.Millisecond, func() {
		count.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second arm never fired")
	}
	require.Equal(t, int32(2), count.Load())
}
