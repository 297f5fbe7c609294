// Package audio provides the fixed-capacity sample buffers shared
// between the controller and the renderer. Buffers are allocated once
// and never grow, so handing them to the audio thread is safe.
package audio

// Buffer is a single channel of samples with a fixed capacity.
//
// The buffer is owned by the controller's store; everything else holds
// shared handles to it. Only one render node writes a given buffer
// within an audio block, which is guaranteed by plan compilation, not
// by locking.
type Buffer struct {
	data []float32
}

// NewBuffer creates a zeroed buffer of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]float32, capacity)}
}

// Capacity returns the fixed number of samples the buffer holds.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Slice returns the backing samples.
func (b *Buffer) Slice() []float32 {
	return b.data
}

// Fill sets the first n samples to value.
func (b *Buffer) Fill(n int, value float32) {
	if n > len(b.data) {
		n = len(b.data)
	}
	for i := 0; i < n; i++ {
		b.data[i] = value
	}
}
