package graph

import "github.com/chris-zen/kiro-engine/keystore"

// Typed endpoint aliases for the two port families.
type (
	ModuleAudioIn  = ModuleIn[AudioDescriptor]
	ModuleAudioOut = ModuleOut[AudioDescriptor]
	NodeAudioIn    = NodeIn[AudioDescriptor]
	NodeAudioOut   = NodeOut[AudioDescriptor]

	ModuleEventsIn  = ModuleIn[EventsDescriptor]
	ModuleEventsOut = ModuleOut[EventsDescriptor]
	NodeEventsIn    = NodeIn[EventsDescriptor]
	NodeEventsOut   = NodeOut[EventsDescriptor]

	AudioConnection  = Connection[AudioDescriptor]
	EventsConnection = Connection[EventsDescriptor]
)

// ModuleIn addresses an input port on a module.
type ModuleIn[D Descriptor[D]] struct {
	module ModuleKey
	port   keystore.Key[InputPort[D]]
}

// ModuleKey returns the module the port belongs to.
func (in ModuleIn[D]) ModuleKey() ModuleKey { return in.module }

// PortKey returns the input port key.
func (in ModuleIn[D]) PortKey() keystore.Key[InputPort[D]] { return in.port }

// BindModule binds this module input to an input of a child module.
func (in ModuleIn[D]) BindModule(dst ModuleIn[D]) Connection[D] {
	return Connection[D]{kind: moduleInBindModuleIn, srcModuleIn: in, dstModuleIn: dst}
}

// BindNode binds this module input to an input of a child node.
func (in ModuleIn[D]) BindNode(dst NodeIn[D]) Connection[D] {
	return Connection[D]{kind: moduleInBindNodeIn, srcModuleIn: in, dstNodeIn: dst}
}

func (ModuleIn[D]) isInputSource() {}
func (ModuleIn[D]) isSource()      {}

// ModuleOut addresses an output port on a module.
type ModuleOut[D Descriptor[D]] struct {
	module ModuleKey
	port   keystore.Key[OutputPort[D]]
}

// ModuleKey returns the module the port belongs to.
func (out ModuleOut[D]) ModuleKey() ModuleKey { return out.module }

// PortKey returns the output port key.
func (out ModuleOut[D]) PortKey() keystore.Key[OutputPort[D]] { return out.port }

// Bind binds this module output into an output of the parent module.
func (out ModuleOut[D]) Bind(dst ModuleOut[D]) Connection[D] {
	return Connection[D]{kind: moduleOutBindModuleOut, srcModuleOut: out, dstModuleOut: dst}
}

// ToModule connects this module output to an input of a sibling module.
func (out ModuleOut[D]) ToModule(dst ModuleIn[D]) Connection[D] {
	return Connection[D]{kind: moduleOutToModuleIn, srcModuleOut: out, dstModuleIn: dst}
}

// ToNode connects this module output to an input of a sibling node.
func (out ModuleOut[D]) ToNode(dst NodeIn[D]) Connection[D] {
	return Connection[D]{kind: moduleOutToNodeIn, srcModuleOut: out, dstNodeIn: dst}
}

func (ModuleOut[D]) isInputSource()  {}
func (ModuleOut[D]) isOutputSource() {}
func (ModuleOut[D]) isSource()       {}

// NodeIn addresses an input port on a node.
type NodeIn[D Descriptor[D]] struct {
	node NodeKey
	port keystore.Key[InputPort[D]]
}

// NodeKey returns the node the port belongs to.
func (in NodeIn[D]) NodeKey() NodeKey { return in.node }

// PortKey returns the input port key.
func (in NodeIn[D]) PortKey() keystore.Key[InputPort[D]] { return in.port }

func (NodeIn[D]) isSource() {}

// NodeOut addresses an output port on a node.
type NodeOut[D Descriptor[D]] struct {
	node NodeKey
	port keystore.Key[OutputPort[D]]
}

// NodeKey returns the node the port belongs to.
func (out NodeOut[D]) NodeKey() NodeKey { return out.node }

// PortKey returns the output port key.
func (out NodeOut[D]) PortKey() keystore.Key[OutputPort[D]] { return out.port }

// Bind binds this node output into an output of the parent module.
func (out NodeOut[D]) Bind(dst ModuleOut[D]) Connection[D] {
	return Connection[D]{kind: nodeOutBindModuleOut, srcNodeOut: out, dstModuleOut: dst}
}

// ToModule connects this node output to an input of a sibling module.
func (out NodeOut[D]) ToModule(dst ModuleIn[D]) Connection[D] {
	return Connection[D]{kind: nodeOutToModuleIn, srcNodeOut: out, dstModuleIn: dst}
}

// ToNode connects this node output to an input of a sibling node.
func (out NodeOut[D]) ToNode(dst NodeIn[D]) Connection[D] {
	return Connection[D]{kind: nodeOutToNodeIn, srcNodeOut: out, dstNodeIn: dst}
}

func (NodeOut[D]) isInputSource()  {}
func (NodeOut[D]) isOutputSource() {}
func (NodeOut[D]) isSource()       {}

type connectionKind uint8

const (
	moduleOutBindModuleOut connectionKind = iota
	moduleOutToModuleIn
	moduleOutToNodeIn
	moduleInBindModuleIn
	moduleInBindNodeIn
	nodeOutBindModuleOut
	nodeOutToModuleIn
	nodeOutToNodeIn
)

// Connection is one of the eight legal (source shape, destination
// shape) pairs. Values are ephemeral: they only carry the request into
// ConnectAudio or ConnectEvents and are not stored.
type Connection[D Descriptor[D]] struct {
	kind connectionKind

	srcModuleIn  ModuleIn[D]
	srcModuleOut ModuleOut[D]
	srcNodeOut   NodeOut[D]

	dstModuleIn  ModuleIn[D]
	dstModuleOut ModuleOut[D]
	dstNodeIn    NodeIn[D]
}
