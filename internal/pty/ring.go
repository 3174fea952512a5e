package pty

import "sync"

// RingBuffer keeps the last size bytes written to it
type RingBuffer struct {
	mu    sync.Mutex
	data  []byte
	write int
	full  bool
}

// NewRingBuffer creates a ring buffer holding size bytes
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{data: make([]byte, size)}
}

// Write stores p, overwriting the oldest bytes once full. It never fails.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	if n >= len(rb.data) {
		copy(rb.data, p[n-len(rb.data):])
		rb.write = 0
		rb.full = true
		return n, nil
	}

	for len(p) > 0 {
		c := copy(rb.data[rb.write:], p)
		p = p[c:]
		rb.write += c
		if rb.write == len(rb.data) {
			rb.write = 0
			rb.full = true
		}
	}
	return n, nil
}

// Len returns the number of bytes held
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.full {
		return len(rb.data)
	}
	return rb.write
}

// String returns the held bytes, oldest first
func (rb *RingBuffer) String() string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if !rb.full {
		return string(rb.data[:rb.write])
	}
	out := make([]byte, 0, len(rb.data))
	out = append(out, rb.data[rb.write:]...)
	out = append(out, rb.data[:rb.write]...)
	return string(out)
}
