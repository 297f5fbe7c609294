package engine

import (
	"github.com/chris-zen/kiro-engine/audio"
	"github.com/chris-zen/kiro-engine/events"
	"github.com/chris-zen/kiro-engine/internal/ring"
)

// Renderer lives on the audio thread. It owns the live RenderPlan and
// runs it once per block. It never allocates and never frees: new
// plans arrive whole through the forward channel and retired plans are
// pushed back for the Controller to release.
type Renderer struct {
	tx *ring.Ring[message]
	rx *ring.Ring[message]

	plan *RenderPlan
}

func newRenderer(tx, rx *ring.Ring[message], _ Config) *Renderer {
	return &Renderer{
		tx:   tx,
		rx:   rx,
		plan: &RenderPlan{},
	}
}

// AudioInputs returns the buffers the driver fills before Render.
func (r *Renderer) AudioInputs() []*audio.Buffer {
	return r.plan.audioInputs
}

// AudioOutputs returns the buffers the driver reads after Render.
func (r *Renderer) AudioOutputs() []*audio.Buffer {
	return r.plan.audioOutputs
}

// EventsInputs returns the event buffers the driver fills before
// Render.
func (r *Renderer) EventsInputs() []*events.Buffer {
	return r.plan.eventsInputs
}

// EventsOutputs returns the event buffers the driver reads after
// Render.
func (r *Renderer) EventsOutputs() []*events.Buffer {
	return r.plan.eventsOutputs
}

// Render runs one block of numSamples frames: it drains pending plan
// swaps and then executes the current plan to completion.
func (r *Renderer) Render(numSamples int) {
	r.processMessages()
	r.renderPlan(numSamples)
}

func (r *Renderer) processMessages() {
	for {
		incoming, ok := r.rx.Pop()
		if !ok {
			return
		}
		previous := r.plan
		r.plan = incoming.plan
		// a full backward channel leaves the retired plan to the
		// garbage collector; nothing is freed here either way
		r.tx.Push(message{plan: previous})
	}
}

// renderPlan is one Kahn-style run over the compiled dependency
// counts, re-seeded fresh every block.
func (r *Renderer) renderPlan(numSamples int) {
	plan := r.plan

	plan.ready.clear()
	for _, index := range plan.initialReady {
		plan.ready.push(index)
	}
	for i := range plan.completed {
		plan.completed[i] = 0
	}

	for {
		nodeIndex, ok := plan.ready.pop()
		if !ok {
			break
		}
		node := &plan.nodes[nodeIndex]

		for _, port := range node.audioInputPorts {
			port.SetNumSamples(numSamples)
		}
		for _, port := range node.audioOutputPorts {
			port.SetNumSamples(numSamples)
		}
		node.context.SetNumSamples(numSamples)

		node.processor.Render(node.context)

		for _, triggered := range node.triggers {
			plan.completed[triggered]++
			if plan.completed[triggered] >= plan.dependencies[triggered] {
				plan.ready.push(triggered)
			}
		}
	}
}
