//go:build cgo

// Package portaudio drives the renderer from a portaudio stream.
package portaudio

import (
	"errors"

	"github.com/gordonklaus/portaudio"

	engine "github.com/chris-zen/kiro-engine"
	"github.com/chris-zen/kiro-engine/audio"
)

// ErrAlreadyStarted is returned when Start is called on a running driver.
var ErrAlreadyStarted = errors.New("the driver has already been started")

// Driver hosts the renderer inside a portaudio stream callback. Each
// callback moves device samples into the current plan's audio inputs,
// renders one block and moves the plan's audio outputs back out.
//
// The callback runs on the real time audio thread. Everything it
// touches was allocated during setup or plan compilation.
type Driver struct {
	renderer       *engine.Renderer
	sampleRate     int
	bufferSize     int
	inputChannels  int
	outputChannels int
	stream         *portaudio.Stream
}

// NewDriver creates a driver rendering blocks of bufferSize frames.
func NewDriver(renderer *engine.Renderer, sampleRate, bufferSize, inputChannels, outputChannels int) *Driver {
	return &Driver{
		renderer:       renderer,
		sampleRate:     sampleRate,
		bufferSize:     bufferSize,
		inputChannels:  inputChannels,
		outputChannels: outputChannels,
	}
}

// Start initializes portaudio and opens the default stream.
func (d *Driver) Start() error {
	if d.stream != nil {
		return ErrAlreadyStarted
	}
	err := portaudio.Initialize()
	if err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(
		d.inputChannels, d.outputChannels, float64(d.sampleRate), d.bufferSize, d.process)
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return err
	}
	d.stream = stream
	return nil
}

// Stop stops the stream and terminates portaudio.
func (d *Driver) Stop() error {
	if d.stream == nil {
		return nil
	}
	stream := d.stream
	d.stream = nil
	if err := stream.Stop(); err != nil {
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}

func (d *Driver) process(in, out []float32) {
	numSamples := len(out) / d.outputChannels
	deinterleave(in, d.renderer.AudioInputs(), d.inputChannels, numSamples)
	d.renderer.Render(numSamples)
	interleave(d.renderer.AudioOutputs(), out, d.outputChannels, numSamples)
}

// deinterleave spreads interleaved device frames over the plan's input
// channel buffers. Channels beyond what the plan exposes are dropped.
func deinterleave(in []float32, channels []*audio.Buffer, numChannels, numSamples int) {
	for channel := 0; channel < numChannels && channel < len(channels); channel++ {
		samples := channels[channel].Slice()
		for i := 0; i < numSamples; i++ {
			samples[i] = in[i*numChannels+channel]
		}
	}
}

// interleave packs the plan's output channel buffers into the device
// frame layout. Channels the plan does not expose are silenced.
func interleave(channels []*audio.Buffer, out []float32, numChannels, numSamples int) {
	for channel := 0; channel < numChannels; channel++ {
		if channel >= len(channels) {
			for i := 0; i < numSamples; i++ {
				out[i*numChannels+channel] = 0
			}
			continue
		}
		samples := channels[channel].Slice()
		for i := 0; i < numSamples; i++ {
			out[i*numChannels+channel] = samples[i]
		}
	}
}
