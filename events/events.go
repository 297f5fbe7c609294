// Package events defines the typed event stream flowing through events
// ports: timestamped transport, midi and automation payloads.
//
// Decoding midi wire bytes into messages is a driver concern and stays
// out of this package; events arrive here already typed.
package events

// Ticks is the timestamp of an event, in ticks of the transport clock.
type Ticks uint64

// Event is a timestamped payload.
type Event struct {
	Timestamp Ticks
	Data      Data
}

// Data is the payload of an event: Transport, Midi or Automation.
type Data interface {
	isEventData()
}

// TransportKind enumerates transport state changes.
type TransportKind uint8

const (
	TransportStart TransportKind = iota
	TransportStop
	TransportContinue
	TransportLoop
	TransportTempo
	TransportSignature
	TransportPosition
)

// Transport is a transport control payload. Tempo, Signature and
// Position are meaningful only for the matching kind.
type Transport struct {
	Kind      TransportKind
	Tempo     float64
	Signature Signature
	Position  Position
}

// Signature is a time signature.
type Signature struct {
	Numerator   uint8
	Denominator uint8
}

// Position locates the transport in musical and clock time.
type Position struct {
	Bars  uint64
	Ticks Ticks
	Clock uint64 // nanoseconds
}

// Midi is an already-decoded midi message.
type Midi struct {
	Status byte
	Data1  byte
	Data2  byte
}

// Automation is a recorded parameter change.
type Automation struct {
	Parameter uint32
	Value     float32
}

func (Transport) isEventData()  {}
func (Midi) isEventData()       {}
func (Automation) isEventData() {}
