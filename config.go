package engine

import "github.com/chris-zen/kiro-engine/log"

// Config holds the capacities the engine pre-sizes its buffers with.
// All of them are fixed at construction time: the render path never
// grows anything.
type Config struct {
	// Logger receives the control thread debug entries. When nil the
	// engine derives one tagged with its uid.
	Logger log.Logger

	// RingBufferCapacity is the number of in-flight messages each of
	// the two cross-thread channels can hold.
	RingBufferCapacity int

	// AudioBufferSize is the capacity in samples of every audio buffer.
	AudioBufferSize int

	// AudioInputChannels is the number of input channels exposed to the
	// audio driver.
	AudioInputChannels int

	// AudioOutputChannels is the number of output channels exposed to
	// the audio driver.
	AudioOutputChannels int

	// EventBufferSize is the capacity in events of every events buffer.
	EventBufferSize int
}

// DefaultConfig returns the default capacities.
func DefaultConfig() Config {
	return Config{
		RingBufferCapacity:  1024,
		AudioBufferSize:     256,
		AudioInputChannels:  2,
		AudioOutputChannels: 2,
		EventBufferSize:     4096,
	}
}

// Option configures an Engine.
type Option func(c *Config)

// WithLogger sets the logger the control thread components log to.
func WithLogger(logger log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRingBufferCapacity sets the cross-thread channel capacity.
func WithRingBufferCapacity(capacity int) Option {
	return func(c *Config) {
		c.RingBufferCapacity = capacity
	}
}

// WithAudioBufferSize sets the audio buffer capacity in samples.
func WithAudioBufferSize(size int) Option {
	return func(c *Config) {
		c.AudioBufferSize = size
	}
}

// WithAudioInputChannels sets the number of driver input channels.
func WithAudioInputChannels(channels int) Option {
	return func(c *Config) {
		c.AudioInputChannels = channels
	}
}

// WithAudioOutputChannels sets the number of driver output channels.
func WithAudioOutputChannels(channels int) Option {
	return func(c *Config) {
		c.AudioOutputChannels = channels
	}
}

// WithEventBufferSize sets the events buffer capacity.
func WithEventBufferSize(size int) Option {
	return func(c *Config) {
		c.EventBufferSize = size
	}
}
