package audio

import "sync"

// Ring is a fixed-size ring of recent samples. One writer appends in
// chunks while any number of readers take snapshots.
type Ring struct {
	mu     sync.RWMutex
	buffer []float32
	index  int
	filled bool
}

// NewRing creates a ring holding size samples.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Ring{buffer: make([]float32, size)}
}

// Write appends samples, overwriting the oldest once the ring is full.
func (r *Ring) Write(in []float32) {
	if len(in) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(in) >= len(r.buffer) {
		copy(r.buffer, in[len(in)-len(r.buffer):])
		r.index = 0
		r.filled = true
		return
	}

	if r.index+len(in) <= len(r.buffer) {
		copy(r.buffer[r.index:], in)
		r.index += len(in)
		if r.index == len(r.buffer) {
			r.index = 0
			r.filled = true
		}
		return
	}

	remaining := len(r.buffer) - r.index
	copy(r.buffer[r.index:], in[:remaining])
	copy(r.buffer, in[remaining:])
	r.index = len(in) - remaining
	r.filled = true
}

// Snapshot copies the ring contents oldest-first. Before the first
// wrap it returns only the samples written so far.
func (r *Ring) Snapshot() []float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.filled {
		if r.index == 0 {
			return nil
		}
		cp := make([]float32, r.index)
		copy(cp, r.buffer[:r.index])
		return cp
	}

	cp := make([]float32, len(r.buffer))
	copy(cp, r.buffer[r.index:])
	copy(cp[len(r.buffer)-r.index:], r.buffer[:r.index])
	return cp
}

// Len reports the ring capacity.
func (r *Ring) Len() int {
	return len(r.buffer)
}
