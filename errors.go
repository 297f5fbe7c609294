package engine

import "errors"

// Controller errors are local and recoverable: a failed plan compile
// aborts before anything reaches the renderer, and a failed send drops
// the freshly built plan while the previous one keeps running.
var (
	ErrProcessorNotFound    = errors.New("processor not found")
	ErrParamValueNotFound   = errors.New("parameter value not found")
	ErrAudioBufferNotFound  = errors.New("audio buffer not found")
	ErrEventsBufferNotFound = errors.New("events buffer not found")

	// ErrSendFailure is returned when the forward channel is full.
	ErrSendFailure = errors.New("failed to send data to the renderer")
)
