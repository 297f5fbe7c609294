package graph

import "fmt"

// PortType tells audio ports apart from events ports in diagnostics.
type PortType uint8

const (
	PortTypeAudio PortType = iota
	PortTypeEvents
)

func (t PortType) String() string {
	switch t {
	case PortTypeAudio:
		return "audio"
	case PortTypeEvents:
		return "events"
	}
	return "unknown"
}

// Descriptor is implemented by the typed port descriptors. The type
// parameter ties WithID to the concrete descriptor so that builder
// helpers can derive ports from a template.
type Descriptor[D any] interface {
	ID() string
	Type() PortType
	WithID(id string) D
}

// AudioDescriptor declares an audio port carrying a number of channels.
type AudioDescriptor struct {
	id       string
	channels int
}

// NewAudioDescriptor creates an audio port descriptor.
func NewAudioDescriptor(id string, channels int) AudioDescriptor {
	return AudioDescriptor{id: id, channels: channels}
}

func (d AudioDescriptor) ID() string     { return d.id }
func (d AudioDescriptor) Channels() int  { return d.channels }
func (d AudioDescriptor) Type() PortType { return PortTypeAudio }

// WithID returns a copy of the descriptor with another id.
func (d AudioDescriptor) WithID(id string) AudioDescriptor {
	d.id = id
	return d
}

// EventsDescriptor declares a typed event stream port.
type EventsDescriptor struct {
	id string
}

// NewEventsDescriptor creates an events port descriptor.
func NewEventsDescriptor(id string) EventsDescriptor {
	return EventsDescriptor{id: id}
}

func (d EventsDescriptor) ID() string     { return d.id }
func (d EventsDescriptor) Type() PortType { return PortTypeEvents }

// WithID returns a copy of the descriptor with another id.
func (d EventsDescriptor) WithID(id string) EventsDescriptor {
	d.id = id
	return d
}

// DynamicPorts is the policy for creating ports beyond the static set:
// none at all, up to a limit, or unlimited.
type DynamicPorts struct {
	limited bool
	limit   int
}

// NoDynamicPorts rejects every dynamic port.
func NoDynamicPorts() DynamicPorts {
	return DynamicPorts{limited: true}
}

// LimitedDynamicPorts accepts up to limit dynamic ports.
func LimitedDynamicPorts(limit int) DynamicPorts {
	return DynamicPorts{limited: true, limit: limit}
}

// UnlimitedDynamicPorts accepts every dynamic port.
func UnlimitedDynamicPorts() DynamicPorts {
	return DynamicPorts{}
}

// allows reports whether one more dynamic port can be created given the
// current number of dynamic ports.
func (p DynamicPorts) allows(currentDynamic int) bool {
	return !p.limited || currentDynamic < p.limit
}

// PortList declares the static ports and the dynamic port policy for
// one port family and both directions.
type PortList[D Descriptor[D]] struct {
	StaticInputs   []D
	DynamicInputs  DynamicPorts
	StaticOutputs  []D
	DynamicOutputs DynamicPorts
}

// NewPortList returns a list with no static ports and no dynamic ports
// allowed.
func NewPortList[D Descriptor[D]]() PortList[D] {
	return PortList[D]{
		DynamicInputs:  NoDynamicPorts(),
		DynamicOutputs: NoDynamicPorts(),
	}
}

// WithStaticInputs replaces the static inputs.
func (l PortList[D]) WithStaticInputs(descriptors ...D) PortList[D] {
	l.StaticInputs = descriptors
	return l
}

// WithStaticInputsCardinality derives n static inputs from a template
// descriptor, suffixing its id with the index.
func (l PortList[D]) WithStaticInputsCardinality(n int, template D) PortList[D] {
	l.StaticInputs = cardinality(n, template)
	return l
}

// WithDynamicInputs replaces the dynamic inputs policy.
func (l PortList[D]) WithDynamicInputs(policy DynamicPorts) PortList[D] {
	l.DynamicInputs = policy
	return l
}

// WithStaticOutputs replaces the static outputs.
func (l PortList[D]) WithStaticOutputs(descriptors ...D) PortList[D] {
	l.StaticOutputs = descriptors
	return l
}

// WithStaticOutputsCardinality derives n static outputs from a template
// descriptor, suffixing its id with the index.
func (l PortList[D]) WithStaticOutputsCardinality(n int, template D) PortList[D] {
	l.StaticOutputs = cardinality(n, template)
	return l
}

// WithDynamicOutputs replaces the dynamic outputs policy.
func (l PortList[D]) WithDynamicOutputs(policy DynamicPorts) PortList[D] {
	l.DynamicOutputs = policy
	return l
}

func cardinality[D Descriptor[D]](n int, template D) []D {
	prefix := template.ID()
	descriptors := make([]D, n)
	for i := range descriptors {
		descriptors[i] = template.WithID(fmt.Sprintf("%s-%d", prefix, i))
	}
	return descriptors
}

// PortsDescriptor declares the audio and events port lists of a module
// or node.
type PortsDescriptor struct {
	Audio  PortList[AudioDescriptor]
	Events PortList[EventsDescriptor]
}

// NewPortsDescriptor returns empty port lists.
func NewPortsDescriptor() PortsDescriptor {
	return PortsDescriptor{
		Audio:  NewPortList[AudioDescriptor](),
		Events: NewPortList[EventsDescriptor](),
	}
}

// ModuleDescriptor declares the ports of a module.
type ModuleDescriptor struct {
	Ports PortsDescriptor
}

// NewModuleDescriptor returns a descriptor with no ports.
func NewModuleDescriptor() ModuleDescriptor {
	return ModuleDescriptor{Ports: NewPortsDescriptor()}
}

// WithAudioPorts transforms the audio port list.
func (d ModuleDescriptor) WithAudioPorts(f func(PortList[AudioDescriptor]) PortList[AudioDescriptor]) ModuleDescriptor {
	d.Ports.Audio = f(d.Ports.Audio)
	return d
}

// WithEventsPorts transforms the events port list.
func (d ModuleDescriptor) WithEventsPorts(f func(PortList[EventsDescriptor]) PortList[EventsDescriptor]) ModuleDescriptor {
	d.Ports.Events = f(d.Ports.Events)
	return d
}

// NodeDescriptor declares the ports and parameters of a node.
type NodeDescriptor struct {
	Parameters []ParamDescriptor
	Ports      PortsDescriptor
}

// NewNodeDescriptor returns a descriptor with no ports and no
// parameters.
func NewNodeDescriptor() NodeDescriptor {
	return NodeDescriptor{Ports: NewPortsDescriptor()}
}

// WithParameters replaces the parameter descriptors.
func (d NodeDescriptor) WithParameters(params ...ParamDescriptor) NodeDescriptor {
	d.Parameters = params
	return d
}

// WithAudioPorts transforms the audio port list.
func (d NodeDescriptor) WithAudioPorts(f func(PortList[AudioDescriptor]) PortList[AudioDescriptor]) NodeDescriptor {
	d.Ports.Audio = f(d.Ports.Audio)
	return d
}

// WithEventsPorts transforms the events port list.
func (d NodeDescriptor) WithEventsPorts(f func(PortList[EventsDescriptor]) PortList[EventsDescriptor]) NodeDescriptor {
	d.Ports.Events = f(d.Ports.Events)
	return d
}

// ParamDescriptor declares one parameter of a node.
type ParamDescriptor struct {
	ID      string
	Initial float32
	Min     float32
	Max     float32
	Center  float32
}

// NewParamDescriptor creates a parameter descriptor with the [0, 1]
// range and zero initial and center values.
func NewParamDescriptor(id string) ParamDescriptor {
	return ParamDescriptor{ID: id, Max: 1}
}

// WithInitial replaces the initial value.
func (d ParamDescriptor) WithInitial(initial float32) ParamDescriptor {
	d.Initial = initial
	return d
}

// WithMin replaces the minimum value.
func (d ParamDescriptor) WithMin(min float32) ParamDescriptor {
	d.Min = min
	return d
}

// WithMax replaces the maximum value.
func (d ParamDescriptor) WithMax(max float32) ParamDescriptor {
	d.Max = max
	return d
}

// WithCenter replaces the center value.
func (d ParamDescriptor) WithCenter(center float32) ParamDescriptor {
	d.Center = center
	return d
}
