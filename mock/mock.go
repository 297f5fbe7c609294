// Package mock provides processors to test the engine with.
package mock

import (
	"github.com/chris-zen/kiro-engine/graph"
	"github.com/chris-zen/kiro-engine/processor"
)

// Entry records one render call of one processor.
type Entry struct {
	Name       string
	NumSamples int
}

// Log collects the render calls of every processor sharing it, in
// execution order. It must only be read once rendering is done.
type Log struct {
	Entries []Entry
}

// Names returns the processor names in execution order.
func (l *Log) Names() []string {
	names := make([]string, len(l.Entries))
	for i, entry := range l.Entries {
		names[i] = entry.Name
	}
	return names
}

// Counter counts what a processor has rendered.
type Counter struct {
	Renders int
	Samples int
}

// Processor records its render calls and optionally runs a callback.
type Processor struct {
	Counter Counter

	name       string
	log        *Log
	descriptor graph.NodeDescriptor
	onRender   func(context *processor.Context)
}

// NewProcessor creates a processor with the descriptor, recording into
// the shared log.
func NewProcessor(name string, log *Log, descriptor graph.NodeDescriptor) *Processor {
	return &Processor{name: name, log: log, descriptor: descriptor}
}

// WithRender sets a callback invoked on every render call.
func (p *Processor) WithRender(f func(context *processor.Context)) *Processor {
	p.onRender = f
	return p
}

// Descriptor implements processor.Processor.
func (p *Processor) Descriptor() graph.NodeDescriptor {
	return p.descriptor
}

// Render implements processor.Processor.
func (p *Processor) Render(context *processor.Context) {
	p.Counter.Renders++
	p.Counter.Samples += context.NumSamples()
	if p.log != nil {
		p.log.Entries = append(p.log.Entries, Entry{Name: p.name, NumSamples: context.NumSamples()})
	}
	if p.onRender != nil {
		p.onRender(context)
	}
}

// SourceDescriptor declares one stereo audio output.
func SourceDescriptor() graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticOutputs(graph.NewAudioDescriptor("out", 2))
		})
}

// FilterDescriptor declares one stereo audio input and output.
func FilterDescriptor() graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticInputs(graph.NewAudioDescriptor("in", 2)).
				WithStaticOutputs(graph.NewAudioDescriptor("out", 2))
		})
}

// MixerDescriptor declares numInputs stereo audio inputs and one
// stereo output.
func MixerDescriptor(numInputs int) graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticInputsCardinality(numInputs, graph.NewAudioDescriptor("in", 2)).
				WithStaticOutputs(graph.NewAudioDescriptor("out", 2))
		})
}

// SinkDescriptor declares one stereo audio input.
func SinkDescriptor() graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticInputs(graph.NewAudioDescriptor("in", 2))
		})
}

// SequencerDescriptor declares one events output.
func SequencerDescriptor() graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithEventsPorts(func(ports graph.PortList[graph.EventsDescriptor]) graph.PortList[graph.EventsDescriptor] {
			return ports.WithStaticOutputs(graph.NewEventsDescriptor("out"))
		})
}

// SynthDescriptor declares one events input and one stereo audio
// output.
func SynthDescriptor() graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticOutputs(graph.NewAudioDescriptor("out", 2))
		}).
		WithEventsPorts(func(ports graph.PortList[graph.EventsDescriptor]) graph.PortList[graph.EventsDescriptor] {
			return ports.WithStaticInputs(graph.NewEventsDescriptor("notes"))
		})
}
