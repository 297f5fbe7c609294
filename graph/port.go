package graph

import (
	"fmt"

	"github.com/chris-zen/kiro-engine/keystore"
)

// InputPort is an instantiated input port. Source is nil until the port
// gets bound or connected; at most one successful connect or bind may
// ever populate it.
type InputPort[D Descriptor[D]] struct {
	Descriptor D
	Source     InputSource[D]
}

// OutputPort is an instantiated output port. Source tells where the
// signal produced behind this port comes from: a deeper module output
// or, at the end of the chain, a node output.
type OutputPort[D Descriptor[D]] struct {
	Descriptor D
	Source     OutputSource[D]
}

// InputSource is the origin feeding an input port: a binding from the
// parent module's input (ModuleIn), or a connection from a sibling
// module output (ModuleOut) or sibling node output (NodeOut).
type InputSource[D Descriptor[D]] interface {
	isInputSource()
}

// OutputSource is the origin feeding an output port: a binding from a
// child module's output (ModuleOut) or from a child node's output
// (NodeOut). A node output has no further upstream; it is produced by
// rendering.
type OutputSource[D Descriptor[D]] interface {
	isOutputSource()
}

// Concrete audio/events port key types.
type (
	AudioInputPortKey   = keystore.Key[InputPort[AudioDescriptor]]
	AudioOutputPortKey  = keystore.Key[OutputPort[AudioDescriptor]]
	EventsInputPortKey  = keystore.Key[InputPort[EventsDescriptor]]
	EventsOutputPortKey = keystore.Key[OutputPort[EventsDescriptor]]
)

// portSet holds the instantiated ports of one family, indexed by key
// and by the descriptor id.
type portSet[D Descriptor[D]] struct {
	inputs  *keystore.StoreWithID[InputPort[D]]
	outputs *keystore.StoreWithID[OutputPort[D]]
}

func newPortSet[D Descriptor[D]](static PortList[D]) portSet[D] {
	set := portSet[D]{
		inputs:  keystore.NewStoreWithID[InputPort[D]](),
		outputs: keystore.NewStoreWithID[OutputPort[D]](),
	}
	for _, descriptor := range static.StaticInputs {
		set.inputs.Add(descriptor.ID(), InputPort[D]{Descriptor: descriptor})
	}
	for _, descriptor := range static.StaticOutputs {
		set.outputs.Add(descriptor.ID(), OutputPort[D]{Descriptor: descriptor})
	}
	return set
}

// Ports is the record of instantiated ports of a module or node.
type Ports struct {
	audio  portSet[AudioDescriptor]
	events portSet[EventsDescriptor]
}

func newPorts(descriptor PortsDescriptor) Ports {
	return Ports{
		audio:  newPortSet(descriptor.Audio),
		events: newPortSet(descriptor.Events),
	}
}

// family bundles the accessors that select one port family out of the
// shared Ports and PortsDescriptor records, so that the connection and
// topology logic can be written once for audio and events.
type family[D Descriptor[D]] struct {
	ports func(*Ports) *portSet[D]
	list  func(*PortsDescriptor) *PortList[D]
}

var audioFamily = family[AudioDescriptor]{
	ports: func(p *Ports) *portSet[AudioDescriptor] { return &p.audio },
	list:  func(d *PortsDescriptor) *PortList[AudioDescriptor] { return &d.Audio },
}

var eventsFamily = family[EventsDescriptor]{
	ports: func(p *Ports) *portSet[EventsDescriptor] { return &p.events },
	list:  func(d *PortsDescriptor) *PortList[EventsDescriptor] { return &d.Events },
}

// portPath renders a port location for diagnostics, e.g. "/root/m1:audio-in".
func portPath(fullName, portID string) string {
	return fmt.Sprintf("%s:%s", fullName, portID)
}
