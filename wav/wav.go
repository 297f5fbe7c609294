// Package wav records rendered audio into wav files.
package wav

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/chris-zen/kiro-engine/graph"
	"github.com/chris-zen/kiro-engine/processor"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth are supported")

// Capture accumulates the audio arriving at its input and encodes the
// take into a wav file on Flush. It is driven from the render thread
// but grows its take on every block, so it is meant for offline
// rendering and tests rather than long live sessions.
type Capture struct {
	descriptor  graph.NodeDescriptor
	numChannels int
	sampleRate  int
	bitDepth    int
	take        []int
}

// NewCapture creates a capture for the given stream properties.
func NewCapture(sampleRate, numChannels, bitDepth int) (*Capture, error) {
	if bitDepth != 16 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBitDepth, bitDepth)
	}
	descriptor := graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticInputs(graph.NewAudioDescriptor("in", numChannels))
		})
	return &Capture{
		descriptor:  descriptor,
		numChannels: numChannels,
		sampleRate:  sampleRate,
		bitDepth:    bitDepth,
	}, nil
}

// Descriptor implements processor.Processor.
func (c *Capture) Descriptor() graph.NodeDescriptor {
	return c.descriptor
}

// Render implements processor.Processor. It interleaves the input
// channels and appends them to the take.
func (c *Capture) Render(context *processor.Context) {
	in := context.AudioInput(0)
	numSamples := context.NumSamples()
	scale := float32(int(1)<<(c.bitDepth-1) - 1)
	for i := 0; i < numSamples; i++ {
		for channel := 0; channel < c.numChannels; channel++ {
			c.take = append(c.take, int(in.Channel(channel)[i]*scale))
		}
	}
}

// NumFrames returns the number of captured frames.
func (c *Capture) NumFrames() int {
	return len(c.take) / c.numChannels
}

// Flush encodes the take as wav and resets the capture. The writer is
// usually an *os.File created by the caller.
func (c *Capture) Flush(w io.WriteSeeker) error {
	encoder := wav.NewEncoder(w, c.sampleRate, c.bitDepth, c.numChannels, 1)
	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: c.numChannels,
			SampleRate:  c.sampleRate,
		},
		SourceBitDepth: c.bitDepth,
		Data:           c.take,
	}
	if err := encoder.Write(buffer); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	c.take = nil
	return nil
}
