// Copyright (c) 2026 Fairway Labs
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampler

import (
	"math"
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense/internal/motion"
)

// mockSource generates a quiet ~1 g baseline with a synthetic swing
// burst every swingEvery, so the full pipeline can be exercised with no
// hardware attached.
type mockSource struct {
	swingEvery time.Duration

	mu     sync.Mutex
	start  time.Time
	ticker *time.Ticker
	stop   chan struct{}
}

// NewMockSource creates a synthetic motion source that produces one
// swing-shaped burst every swingEvery. Non-positive values fall back to
// one burst every ten seconds.
func NewMockSource(swingEvery time.Duration) Source {
	if swingEvery <= 0 {
		swingEvery = 10 * time.Second
	}
	return &mockSource{swingEvery: swingEvery}
}

func (m *mockSource) Available() bool { return true }

func (m *mockSource) Start(interval time.Duration, onSample func(motion.Sample), _ func(error)) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.start = time.Now()
	m.ticker = time.NewTicker(interval)
	m.stop = make(chan struct{})

	go func(ticker *time.Ticker, stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				onSample(m.sampleAt(t))
			}
		}
	}(m.ticker, m.stop)

	return interval, nil
}

func (m *mockSource) Retarget(interval time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Reset(interval)
	}
	return interval
}

func (m *mockSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

// sampleAt synthesizes the reading for wall time t. The swing burst is
// a piecewise profile: address rise, backswing dip, downswing ramp to
// peak, post-impact decay.
func (m *mockSource) sampleAt(t time.Time) motion.Sample {
	m.mu.Lock()
	elapsed := t.Sub(m.start)
	m.mu.Unlock()

	phase := elapsed % m.swingEvery
	sec := elapsed.Seconds()

	// Quiet baseline: gravity plus a little wrist jitter.
	accel := motion.Vec3{
		X: 0.05 * math.Sin(sec*3.1),
		Y: 0.04 * math.Cos(sec*2.3),
		Z: 1.0,
	}
	rot := motion.Vec3{
		X: 4 * math.Sin(sec*1.7),
		Y: 3 * math.Cos(sec*1.1),
		Z: 2 * math.Sin(sec*0.9),
	}

	if p := phase.Seconds(); p < 1.5 {
		var mag float64
		switch {
		case p < 0.3: // takeaway rise
			mag = 1.0 + 1.2*(p/0.3)
		case p < 0.8: // backswing dip toward the top
			mag = 2.2 - 1.0*((p-0.3)/0.5)
		case p < 1.1: // downswing ramp
			mag = 1.2 + 4.8*((p-0.8)/0.3)
		case p < 1.3: // post-impact decay
			mag = 6.0 - 4.5*((p-1.1)/0.2)
		default:
			mag = 1.5 - 0.5*((p-1.3)/0.2)
		}
		accel = motion.Vec3{X: mag * 0.6, Y: mag * 0.3, Z: mag * 0.74}
		if p >= 0.8 && p < 1.3 {
			rot.Z = 90 // inside-out shaped release
		}
	}

	return motion.Sample{Timestamp: t, Accel: accel, Rotation: rot}
}
