package motion

import "time"

// RingVec3 is a fixed-capacity ring buffer of Vec3 values. When full,
// pushing evicts the oldest entry.
type RingVec3 struct {
	buf  []Vec3
	head int
	size int
}

// NewRingVec3 creates a ring with capacity n.
func NewRingVec3(n int) *RingVec3 {
	return &RingVec3{buf: make([]Vec3, n)}
}

// Push appends a value, evicting the oldest if the ring is full.
func (r *RingVec3) Push(v Vec3) {
	r.buf[(r.head+r.size)%len(r.buf)] = v
	if r.size < len(r.buf) {
		r.size++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

// Len returns the number of buffered entries.
func (r *RingVec3) Len() int { return r.size }

// At returns the i-th entry, 0 being the oldest.
func (r *RingVec3) At(i int) Vec3 {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Tail copies the newest n entries, oldest first. If fewer than n are
// buffered, all entries are returned.
func (r *RingVec3) Tail(n int) []Vec3 {
	if n > r.size {
		n = r.size
	}
	out := make([]Vec3, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(r.size - n + i)
	}
	return out
}

// Reset discards all buffered entries.
func (r *RingVec3) Reset() {
	r.head = 0
	r.size = 0
}

// RingTime is a fixed-capacity ring buffer of timestamps, kept in
// lockstep with the value rings.
type RingTime struct {
	buf  []time.Time
	head int
	size int
}

// NewRingTime creates a ring with capacity n.
func NewRingTime(n int) *RingTime {
	return &RingTime{buf: make([]time.Time, n)}
}

// Push appends a timestamp, evicting the oldest if the ring is full.
func (r *RingTime) Push(t time.Time) {
	r.buf[(r.head+r.size)%len(r.buf)] = t
	if r.size < len(r.buf) {
		r.size++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

// Len returns the number of buffered entries.
func (r *RingTime) Len() int { return r.size }

// At returns the i-th entry, 0 being the oldest.
func (r *RingTime) At(i int) time.Time {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Tail copies the newest n entries, oldest first.
func (r *RingTime) Tail(n int) []time.Time {
	if n > r.size {
		n = r.size
	}
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(r.size - n + i)
	}
	return out
}

// Reset discards all buffered entries.
func (r *RingTime) Reset() {
	r.head = 0
	r.size = 0
}
