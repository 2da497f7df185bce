package pty

import "sync"

// RingBuffer keeps the most recent bytes written to it
type RingBuffer struct {
	mu   sync.Mutex
	data []byte
	pos  int
	full bool
}

// NewRingBuffer creates a new ring buffer with the given size
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{data: make([]byte, size)}
}

// Write implements io.Writer and never fails
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	if n >= len(rb.data) {
		copy(rb.data, p[n-len(rb.data):])
		rb.pos = 0
		rb.full = true
		return n, nil
	}

	c := copy(rb.data[rb.pos:], p)
	if c < n {
		copy(rb.data, p[c:])
		rb.full = true
	}
	rb.pos = (rb.pos + n) % len(rb.data)
	if rb.pos == 0 && n > 0 {
		rb.full = true
	}
	return n, nil
}

// String returns the buffered bytes, oldest first
func (rb *RingBuffer) String() string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if !rb.full {
		return string(rb.data[:rb.pos])
	}
	return string(rb.data[rb.pos:]) + string(rb.data[:rb.pos])
}
