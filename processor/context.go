package processor

import (
	"github.com/chris-zen/kiro-engine/audio"
	"github.com/chris-zen/kiro-engine/events"
	"github.com/chris-zen/kiro-engine/param"
)

// AudioPort is the render-time view of an audio port: one buffer per
// channel, clipped to the number of samples of the current block.
type AudioPort struct {
	numSamples int
	channels   []*audio.Buffer
}

// NewAudioPort creates a port over the channel buffers.
func NewAudioPort(channels []*audio.Buffer) *AudioPort {
	return &AudioPort{channels: channels}
}

// SetNumSamples sets the block length the channel views are clipped to.
func (p *AudioPort) SetNumSamples(numSamples int) {
	p.numSamples = numSamples
}

// NumSamples returns the current block length.
func (p *AudioPort) NumSamples() int {
	return p.numSamples
}

// NumChannels returns the number of channels behind the port.
func (p *AudioPort) NumChannels() int {
	return len(p.channels)
}

// Channel returns the samples of one channel for the current block.
func (p *AudioPort) Channel(index int) []float32 {
	return p.channels[index].Slice()[:p.numSamples]
}

// Fill sets every sample of every channel to value.
func (p *AudioPort) Fill(value float32) {
	for _, channel := range p.channels {
		channel.Fill(p.numSamples, value)
	}
}

// EventsPort is the render-time view of an events port.
type EventsPort struct {
	buffer *events.Buffer
}

// NewEventsPort creates a port over the events buffer.
func NewEventsPort(buffer *events.Buffer) *EventsPort {
	return &EventsPort{buffer: buffer}
}

// Buffer returns the events buffer behind the port.
func (p *EventsPort) Buffer() *events.Buffer {
	return p.buffer
}

// Context gives a processor access to its parameters and ports for one
// render call.
type Context struct {
	numSamples    int
	parameters    []*param.Value
	audioInputs   []*AudioPort
	audioOutputs  []*AudioPort
	eventsInputs  []*EventsPort
	eventsOutputs []*EventsPort
}

// NewContext assembles a render context.
func NewContext(
	numSamples int,
	parameters []*param.Value,
	audioInputs, audioOutputs []*AudioPort,
	eventsInputs, eventsOutputs []*EventsPort,
) *Context {
	return &Context{
		numSamples:    numSamples,
		parameters:    parameters,
		audioInputs:   audioInputs,
		audioOutputs:  audioOutputs,
		eventsInputs:  eventsInputs,
		eventsOutputs: eventsOutputs,
	}
}

// NumSamples returns the number of frames to render.
func (c *Context) NumSamples() int {
	return c.numSamples
}

// SetNumSamples sets the block length for the next render call. It is
// called by the scheduler, never by processors.
func (c *Context) SetNumSamples(numSamples int) {
	c.numSamples = numSamples
}

// NumParameters returns the number of parameters.
func (c *Context) NumParameters() int {
	return len(c.parameters)
}

// Parameter returns the current value of the parameter at index. The
// shared cell stays with the controller; processors only read it.
func (c *Context) Parameter(index int) float32 {
	return c.parameters[index].Get()
}

// NumAudioInputs returns the number of audio input ports.
func (c *Context) NumAudioInputs() int {
	return len(c.audioInputs)
}

// AudioInput returns the audio input port at index.
func (c *Context) AudioInput(index int) *AudioPort {
	return c.audioInputs[index]
}

// NumAudioOutputs returns the number of audio output ports.
func (c *Context) NumAudioOutputs() int {
	return len(c.audioOutputs)
}

// AudioOutput returns the audio output port at index.
func (c *Context) AudioOutput(index int) *AudioPort {
	return c.audioOutputs[index]
}

// NumEventsInputs returns the number of events input ports.
func (c *Context) NumEventsInputs() int {
	return len(c.eventsInputs)
}

// EventsInput returns the events input port at index.
func (c *Context) EventsInput(index int) *EventsPort {
	return c.eventsInputs[index]
}

// NumEventsOutputs returns the number of events output ports.
func (c *Context) NumEventsOutputs() int {
	return len(c.eventsOutputs)
}

// EventsOutput returns the events output port at index.
func (c *Context) EventsOutput(index int) *EventsPort {
	return c.eventsOutputs[index]
}
