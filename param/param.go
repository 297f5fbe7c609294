// Package param provides the shared parameter cell read by the audio
// thread and written by the control thread. The cell is lock-free by
// construction: the float value lives in a single atomic word, so a
// write is visible to the very next render that reads it, with no
// ordering guarantee relative to audio block boundaries.
package param

import (
	"math"
	"sync/atomic"
)

// Value is a shared numeric parameter cell.
type Value struct {
	bits atomic.Uint32
}

// NewValue creates a cell holding the initial value.
func NewValue(initial float32) *Value {
	v := &Value{}
	v.Set(initial)
	return v
}

// Get returns the current value.
func (v *Value) Get() float32 {
	return math.Float32frombits(v.bits.Load())
}

// Set replaces the current value.
func (v *Value) Set(value float32) {
	v.bits.Store(math.Float32bits(value))
}
