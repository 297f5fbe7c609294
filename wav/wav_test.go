package wav_test

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-zen/kiro-engine/audio"
	"github.com/chris-zen/kiro-engine/processor"
	"github.com/chris-zen/kiro-engine/wav"
)

func renderContext(numSamples, numChannels int, value float32) *processor.Context {
	channels := make([]*audio.Buffer, numChannels)
	for i := range channels {
		channels[i] = audio.NewBuffer(numSamples)
		channels[i].Fill(numSamples, value)
	}
	in := processor.NewAudioPort(channels)
	in.SetNumSamples(numSamples)
	return processor.NewContext(numSamples, nil, []*processor.AudioPort{in}, nil, nil, nil)
}

func TestCaptureRejectsUnsupportedBitDepth(t *testing.T) {
	_, err := wav.NewCapture(44100, 2, 24)
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)
}

func TestCaptureAccumulatesBlocks(t *testing.T) {
	capture, err := wav.NewCapture(44100, 2, 16)
	require.NoError(t, err)

	capture.Render(renderContext(64, 2, 0.5))
	capture.Render(renderContext(32, 2, 0.5))

	assert.Equal(t, 96, capture.NumFrames())
}

func TestCaptureFlushWritesDecodableWav(t *testing.T) {
	capture, err := wav.NewCapture(44100, 2, 16)
	require.NoError(t, err)
	capture.Render(renderContext(64, 2, 0.5))

	path := filepath.Join(t.TempDir(), "take.wav")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, capture.Flush(file))
	require.NoError(t, file.Close())

	assert.Equal(t, 0, capture.NumFrames())

	file, err = os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	decoder := gowav.NewDecoder(file)
	require.True(t, decoder.IsValidFile())
	assert.Equal(t, uint32(44100), decoder.SampleRate)
	assert.Equal(t, uint16(2), decoder.NumChans)

	buffer := &goaudio.IntBuffer{Data: make([]int, 256)}
	read, err := decoder.PCMBuffer(buffer)
	require.NoError(t, err)
	assert.Equal(t, 128, read)
	sample := 0.5
	assert.Equal(t, int(sample*0x7fff), buffer.Data[0])
}
