// Package processor defines the contract between the engine and the
// DSP units it schedules. A Processor declares its ports and
// parameters through a node descriptor and renders one audio block at
// a time through a Context assembled by the render plan.
package processor

import "github.com/chris-zen/kiro-engine/graph"

// Processor renders audio and events one block at a time. Render is
// called on the audio thread and must not block or allocate; it reads
// parameters and input ports and writes output ports for exactly
// Context.NumSamples frames.
type Processor interface {
	Descriptor() graph.NodeDescriptor
	Render(context *Context)
}
