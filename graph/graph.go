// Package graph holds the declared structure of the processing graph:
// modules (hierarchical containers), nodes (leaf processors), their
// ports, and the bindings and connections between them. It resolves
// that structure into a Topology, the dependency order the controller
// compiles render plans from.
//
// The graph is edited from the control thread only and validated at
// edit time: every mutator either succeeds or leaves the graph
// unchanged.
package graph

import (
	"errors"
	"fmt"

	"github.com/chris-zen/kiro-engine/keystore"
)

// Graph owns the modules and nodes.
type Graph struct {
	rootModule ModuleKey
	modules    *keystore.Store[Module]
	nodes      *keystore.Store[Node]
}

// New creates a graph with a root module. The root module accepts
// unlimited dynamic ports on both families: its outputs are the
// graph's outputs, and the topology resolution starts from them.
func New() *Graph {
	rootDescriptor := NewModuleDescriptor().
		WithAudioPorts(func(ports PortList[AudioDescriptor]) PortList[AudioDescriptor] {
			return ports.WithDynamicInputs(UnlimitedDynamicPorts()).WithDynamicOutputs(UnlimitedDynamicPorts())
		}).
		WithEventsPorts(func(ports PortList[EventsDescriptor]) PortList[EventsDescriptor] {
			return ports.WithDynamicInputs(UnlimitedDynamicPorts()).WithDynamicOutputs(UnlimitedDynamicPorts())
		})

	modules := keystore.NewStore[Module]()
	rootModule := modules.Add(newModule("root", rootDescriptor, 0, ""))
	return &Graph{
		rootModule: rootModule,
		modules:    modules,
		nodes:      keystore.NewStore[Node](),
	}
}

// RootModule returns the key of the root module.
func (g *Graph) RootModule() ModuleKey {
	return g.rootModule
}

// Module returns the module for the key.
func (g *Graph) Module(key ModuleKey) (*Module, error) {
	module := g.modules.Get(key)
	if module == nil {
		return nil, fmt.Errorf("%w: %v", ErrModuleNotFound, key)
	}
	return module, nil
}

// Node returns the node for the key.
func (g *Graph) Node(key NodeKey) (*Node, error) {
	node := g.nodes.Get(key)
	if node == nil {
		return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, key)
	}
	return node, nil
}

// CreateModule creates a module under the parent and instantiates the
// static ports declared in the descriptor.
func (g *Graph) CreateModule(parent ModuleKey, name string, descriptor ModuleDescriptor) (ModuleKey, error) {
	parentModule, err := g.Module(parent)
	if err != nil {
		return 0, err
	}
	path := parentModule.FullName()
	return g.modules.Add(newModule(name, descriptor, parent, path)), nil
}

// RemoveModule removes the module with all its descendant modules and
// nodes, and clears any source still referring to a removed entity.
func (g *Graph) RemoveModule(key ModuleKey) error {
	if key == g.rootModule {
		return errors.New("cannot remove the root module")
	}
	if !g.modules.Contains(key) {
		return fmt.Errorf("%w: %v", ErrModuleNotFound, key)
	}

	removedModules := map[ModuleKey]struct{}{key: {}}
	for {
		grown := false
		for _, moduleKey := range g.modules.Keys() {
			if _, removed := removedModules[moduleKey]; removed {
				continue
			}
			parent := g.modules.Get(moduleKey).Parent
			if _, removed := removedModules[parent]; removed {
				removedModules[moduleKey] = struct{}{}
				grown = true
			}
		}
		if !grown {
			break
		}
	}

	removedNodes := make(map[NodeKey]struct{})
	for _, nodeKey := range g.nodes.Keys() {
		if _, removed := removedModules[g.nodes.Get(nodeKey).Parent]; removed {
			removedNodes[nodeKey] = struct{}{}
		}
	}

	for moduleKey := range removedModules {
		g.modules.Remove(moduleKey)
	}
	for nodeKey := range removedNodes {
		g.nodes.Remove(nodeKey)
	}
	g.clearDanglingSources(removedModules, removedNodes)
	return nil
}

// CreateNode creates a node under the parent module and instantiates
// the static ports declared in the descriptor.
func (g *Graph) CreateNode(parent ModuleKey, name string, descriptor NodeDescriptor) (NodeKey, error) {
	parentModule, err := g.Module(parent)
	if err != nil {
		return 0, err
	}
	path := parentModule.FullName()
	return g.nodes.Add(newNode(name, descriptor, parent, path)), nil
}

// RemoveNode removes the node and clears any source still referring to
// its ports.
func (g *Graph) RemoveNode(key NodeKey) error {
	if _, ok := g.nodes.Remove(key); !ok {
		return fmt.Errorf("%w: %v", ErrNodeNotFound, key)
	}
	g.clearDanglingSources(nil, map[NodeKey]struct{}{key: {}})
	return nil
}

// Dynamic module ports. Creation is checked against the dynamic ports
// policy of the module descriptor: only ports beyond the static set
// count against a limit.

func (g *Graph) CreateModuleAudioInput(module ModuleKey, descriptor AudioDescriptor) (ModuleAudioIn, error) {
	return createModuleInput(g, audioFamily, module, descriptor)
}

func (g *Graph) CreateModuleAudioOutput(module ModuleKey, descriptor AudioDescriptor) (ModuleAudioOut, error) {
	return createModuleOutput(g, audioFamily, module, descriptor)
}

func (g *Graph) CreateModuleEventsInput(module ModuleKey, descriptor EventsDescriptor) (ModuleEventsIn, error) {
	return createModuleInput(g, eventsFamily, module, descriptor)
}

func (g *Graph) CreateModuleEventsOutput(module ModuleKey, descriptor EventsDescriptor) (ModuleEventsOut, error) {
	return createModuleOutput(g, eventsFamily, module, descriptor)
}

// Dynamic node ports.

func (g *Graph) CreateNodeAudioInput(node NodeKey, descriptor AudioDescriptor) (NodeAudioIn, error) {
	return createNodeInput(g, audioFamily, node, descriptor)
}

func (g *Graph) CreateNodeAudioOutput(node NodeKey, descriptor AudioDescriptor) (NodeAudioOut, error) {
	return createNodeOutput(g, audioFamily, node, descriptor)
}

func (g *Graph) CreateNodeEventsInput(node NodeKey, descriptor EventsDescriptor) (NodeEventsIn, error) {
	return createNodeInput(g, eventsFamily, node, descriptor)
}

func (g *Graph) CreateNodeEventsOutput(node NodeKey, descriptor EventsDescriptor) (NodeEventsOut, error) {
	return createNodeOutput(g, eventsFamily, node, descriptor)
}

// Port listings, in the same order the ports were declared and created.

func (g *Graph) ModuleAudioInputs(module ModuleKey) ([]ModuleAudioIn, error) {
	return moduleInputs(g, audioFamily, module)
}

func (g *Graph) ModuleAudioOutputs(module ModuleKey) ([]ModuleAudioOut, error) {
	return moduleOutputs(g, audioFamily, module)
}

func (g *Graph) ModuleEventsInputs(module ModuleKey) ([]ModuleEventsIn, error) {
	return moduleInputs(g, eventsFamily, module)
}

func (g *Graph) ModuleEventsOutputs(module ModuleKey) ([]ModuleEventsOut, error) {
	return moduleOutputs(g, eventsFamily, module)
}

func (g *Graph) NodeAudioInputs(node NodeKey) ([]NodeAudioIn, error) {
	return nodeInputs(g, audioFamily, node)
}

func (g *Graph) NodeAudioOutputs(node NodeKey) ([]NodeAudioOut, error) {
	return nodeOutputs(g, audioFamily, node)
}

func (g *Graph) NodeEventsInputs(node NodeKey) ([]NodeEventsIn, error) {
	return nodeInputs(g, eventsFamily, node)
}

func (g *Graph) NodeEventsOutputs(node NodeKey) ([]NodeEventsOut, error) {
	return nodeOutputs(g, eventsFamily, node)
}

// Port lookups by name.

func (g *Graph) ModuleAudioInput(module ModuleKey, name string) (ModuleAudioIn, error) {
	return moduleInputByName(g, audioFamily, module, name)
}

func (g *Graph) ModuleAudioOutput(module ModuleKey, name string) (ModuleAudioOut, error) {
	return moduleOutputByName(g, audioFamily, module, name)
}

func (g *Graph) ModuleEventsInput(module ModuleKey, name string) (ModuleEventsIn, error) {
	return moduleInputByName(g, eventsFamily, module, name)
}

func (g *Graph) ModuleEventsOutput(module ModuleKey, name string) (ModuleEventsOut, error) {
	return moduleOutputByName(g, eventsFamily, module, name)
}

func (g *Graph) NodeAudioInput(node NodeKey, name string) (NodeAudioIn, error) {
	return nodeInputByName(g, audioFamily, node, name)
}

func (g *Graph) NodeAudioOutput(node NodeKey, name string) (NodeAudioOut, error) {
	return nodeOutputByName(g, audioFamily, node, name)
}

func (g *Graph) NodeEventsInput(node NodeKey, name string) (NodeEventsIn, error) {
	return nodeInputByName(g, eventsFamily, node, name)
}

func (g *Graph) NodeEventsOutput(node NodeKey, name string) (NodeEventsOut, error) {
	return nodeOutputByName(g, eventsFamily, node, name)
}

// Descriptor lookups for audio endpoints, used when sizing the buffers
// behind a port.

func (g *Graph) ModuleAudioInputDescriptor(in ModuleAudioIn) (AudioDescriptor, error) {
	module, err := g.Module(in.module)
	if err != nil {
		return AudioDescriptor{}, err
	}
	port, err := moduleInputPort(module, audioFamily, in.port)
	if err != nil {
		return AudioDescriptor{}, err
	}
	return port.Descriptor, nil
}

func (g *Graph) ModuleAudioOutputDescriptor(out ModuleAudioOut) (AudioDescriptor, error) {
	module, err := g.Module(out.module)
	if err != nil {
		return AudioDescriptor{}, err
	}
	port, err := moduleOutputPort(module, audioFamily, out.port)
	if err != nil {
		return AudioDescriptor{}, err
	}
	return port.Descriptor, nil
}

func (g *Graph) NodeAudioInputDescriptor(in NodeAudioIn) (AudioDescriptor, error) {
	node, err := g.Node(in.node)
	if err != nil {
		return AudioDescriptor{}, err
	}
	port, err := nodeInputPort(node, audioFamily, in.port)
	if err != nil {
		return AudioDescriptor{}, err
	}
	return port.Descriptor, nil
}

func (g *Graph) NodeAudioOutputDescriptor(out NodeAudioOut) (AudioDescriptor, error) {
	node, err := g.Node(out.node)
	if err != nil {
		return AudioDescriptor{}, err
	}
	port, err := nodeOutputPort(node, audioFamily, out.port)
	if err != nil {
		return AudioDescriptor{}, err
	}
	return port.Descriptor, nil
}

// ConnectAudio applies an audio connection or binding.
func (g *Graph) ConnectAudio(connection AudioConnection) error {
	return connect(g, audioFamily, connection)
}

// ConnectEvents applies an events connection or binding.
func (g *Graph) ConnectEvents(connection EventsConnection) error {
	return connect(g, eventsFamily, connection)
}

// Generic implementations shared by both port families.

func createModuleInput[D Descriptor[D]](g *Graph, fam family[D], moduleKey ModuleKey, descriptor D) (ModuleIn[D], error) {
	module, err := g.Module(moduleKey)
	if err != nil {
		return ModuleIn[D]{}, err
	}
	list := fam.list(&module.Descriptor.Ports)
	set := fam.ports(&module.Ports)
	if !hasDynamicCapacity(list.DynamicInputs, set.inputs.Len(), len(list.StaticInputs)) {
		return ModuleIn[D]{}, fmt.Errorf("%w: %s", ErrDynamicPortsNotAvailable, portPath(module.FullName(), descriptor.ID()))
	}
	portKey := set.inputs.Add(descriptor.ID(), InputPort[D]{Descriptor: descriptor})
	return ModuleIn[D]{module: moduleKey, port: portKey}, nil
}

func createModuleOutput[D Descriptor[D]](g *Graph, fam family[D], moduleKey ModuleKey, descriptor D) (ModuleOut[D], error) {
	module, err := g.Module(moduleKey)
	if err != nil {
		return ModuleOut[D]{}, err
	}
	list := fam.list(&module.Descriptor.Ports)
	set := fam.ports(&module.Ports)
	if !hasDynamicCapacity(list.DynamicOutputs, set.outputs.Len(), len(list.StaticOutputs)) {
		return ModuleOut[D]{}, fmt.Errorf("%w: %s", ErrDynamicPortsNotAvailable, portPath(module.FullName(), descriptor.ID()))
	}
	portKey := set.outputs.Add(descriptor.ID(), OutputPort[D]{Descriptor: descriptor})
	return ModuleOut[D]{module: moduleKey, port: portKey}, nil
}

func createNodeInput[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey, descriptor D) (NodeIn[D], error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return NodeIn[D]{}, err
	}
	list := fam.list(&node.Descriptor.Ports)
	set := fam.ports(&node.Ports)
	if !hasDynamicCapacity(list.DynamicInputs, set.inputs.Len(), len(list.StaticInputs)) {
		return NodeIn[D]{}, fmt.Errorf("%w: %s", ErrDynamicPortsNotAvailable, portPath(node.FullName(), descriptor.ID()))
	}
	portKey := set.inputs.Add(descriptor.ID(), InputPort[D]{Descriptor: descriptor})
	return NodeIn[D]{node: nodeKey, port: portKey}, nil
}

func createNodeOutput[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey, descriptor D) (NodeOut[D], error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return NodeOut[D]{}, err
	}
	list := fam.list(&node.Descriptor.Ports)
	set := fam.ports(&node.Ports)
	if !hasDynamicCapacity(list.DynamicOutputs, set.outputs.Len(), len(list.StaticOutputs)) {
		return NodeOut[D]{}, fmt.Errorf("%w: %s", ErrDynamicPortsNotAvailable, portPath(node.FullName(), descriptor.ID()))
	}
	portKey := set.outputs.Add(descriptor.ID(), OutputPort[D]{Descriptor: descriptor})
	return NodeOut[D]{node: nodeKey, port: portKey}, nil
}

// hasDynamicCapacity checks the dynamic ports policy: only the ports
// created beyond the static set count against a limit.
func hasDynamicCapacity(policy DynamicPorts, currentLen, staticLen int) bool {
	currentDynamic := currentLen - staticLen
	if currentDynamic < 0 {
		currentDynamic = 0
	}
	return policy.allows(currentDynamic)
}

func moduleInputs[D Descriptor[D]](g *Graph, fam family[D], moduleKey ModuleKey) ([]ModuleIn[D], error) {
	module, err := g.Module(moduleKey)
	if err != nil {
		return nil, err
	}
	keys := fam.ports(&module.Ports).inputs.Keys()
	inputs := make([]ModuleIn[D], len(keys))
	for i, portKey := range keys {
		inputs[i] = ModuleIn[D]{module: moduleKey, port: portKey}
	}
	return inputs, nil
}

func moduleOutputs[D Descriptor[D]](g *Graph, fam family[D], moduleKey ModuleKey) ([]ModuleOut[D], error) {
	module, err := g.Module(moduleKey)
	if err != nil {
		return nil, err
	}
	keys := fam.ports(&module.Ports).outputs.Keys()
	outputs := make([]ModuleOut[D], len(keys))
	for i, portKey := range keys {
		outputs[i] = ModuleOut[D]{module: moduleKey, port: portKey}
	}
	return outputs, nil
}

func nodeInputs[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey) ([]NodeIn[D], error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return nil, err
	}
	keys := fam.ports(&node.Ports).inputs.Keys()
	inputs := make([]NodeIn[D], len(keys))
	for i, portKey := range keys {
		inputs[i] = NodeIn[D]{node: nodeKey, port: portKey}
	}
	return inputs, nil
}

func nodeOutputs[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey) ([]NodeOut[D], error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return nil, err
	}
	keys := fam.ports(&node.Ports).outputs.Keys()
	outputs := make([]NodeOut[D], len(keys))
	for i, portKey := range keys {
		outputs[i] = NodeOut[D]{node: nodeKey, port: portKey}
	}
	return outputs, nil
}

func moduleInputByName[D Descriptor[D]](g *Graph, fam family[D], moduleKey ModuleKey, name string) (ModuleIn[D], error) {
	module, err := g.Module(moduleKey)
	if err != nil {
		return ModuleIn[D]{}, err
	}
	portKey, ok := fam.ports(&module.Ports).inputs.KeyFromID(name)
	if !ok {
		return ModuleIn[D]{}, fmt.Errorf("%w: %s", ErrPortNotFound, portPath(module.FullName(), name))
	}
	return ModuleIn[D]{module: moduleKey, port: portKey}, nil
}

func moduleOutputByName[D Descriptor[D]](g *Graph, fam family[D], moduleKey ModuleKey, name string) (ModuleOut[D], error) {
	module, err := g.Module(moduleKey)
	if err != nil {
		return ModuleOut[D]{}, err
	}
	portKey, ok := fam.ports(&module.Ports).outputs.KeyFromID(name)
	if !ok {
		return ModuleOut[D]{}, fmt.Errorf("%w: %s", ErrPortNotFound, portPath(module.FullName(), name))
	}
	return ModuleOut[D]{module: moduleKey, port: portKey}, nil
}

func nodeInputByName[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey, name string) (NodeIn[D], error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return NodeIn[D]{}, err
	}
	portKey, ok := fam.ports(&node.Ports).inputs.KeyFromID(name)
	if !ok {
		return NodeIn[D]{}, fmt.Errorf("%w: %s", ErrPortNotFound, portPath(node.FullName(), name))
	}
	return NodeIn[D]{node: nodeKey, port: portKey}, nil
}

// clearDanglingSources walks every remaining port and clears sources
// that refer to a removed module or node, so removals cannot leave
// stale endpoints behind.
func (g *Graph) clearDanglingSources(removedModules map[ModuleKey]struct{}, removedNodes map[NodeKey]struct{}) {
	clearFamilySources(g, audioFamily, removedModules, removedNodes)
	clearFamilySources(g, eventsFamily, removedModules, removedNodes)
}

func clearFamilySources[D Descriptor[D]](g *Graph, fam family[D], removedModules map[ModuleKey]struct{}, removedNodes map[NodeKey]struct{}) {
	clearSet := func(set *portSet[D]) {
		for _, portKey := range set.inputs.Keys() {
			port := set.inputs.Get(portKey)
			if inputSourceRemoved[D](port.Source, removedModules, removedNodes) {
				port.Source = nil
			}
		}
		for _, portKey := range set.outputs.Keys() {
			port := set.outputs.Get(portKey)
			if outputSourceRemoved[D](port.Source, removedModules, removedNodes) {
				port.Source = nil
			}
		}
	}
	for _, moduleKey := range g.modules.Keys() {
		clearSet(fam.ports(&g.modules.Get(moduleKey).Ports))
	}
	for _, nodeKey := range g.nodes.Keys() {
		clearSet(fam.ports(&g.nodes.Get(nodeKey).Ports))
	}
}

func inputSourceRemoved[D Descriptor[D]](source InputSource[D], removedModules map[ModuleKey]struct{}, removedNodes map[NodeKey]struct{}) bool {
	switch s := source.(type) {
	case ModuleIn[D]:
		_, removed := removedModules[s.module]
		return removed
	case ModuleOut[D]:
		_, removed := removedModules[s.module]
		return removed
	case NodeOut[D]:
		_, removed := removedNodes[s.node]
		return removed
	}
	return false
}

func outputSourceRemoved[D Descriptor[D]](source OutputSource[D], removedModules map[ModuleKey]struct{}, removedNodes map[NodeKey]struct{}) bool {
	switch s := source.(type) {
	case ModuleOut[D]:
		_, removed := removedModules[s.module]
		return removed
	case NodeOut[D]:
		_, removed := removedNodes[s.node]
		return removed
	}
	return false
}

func nodeOutputByName[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey, name string) (NodeOut[D], error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return NodeOut[D]{}, err
	}
	portKey, ok := fam.ports(&node.Ports).outputs.KeyFromID(name)
	if !ok {
		return NodeOut[D]{}, fmt.Errorf("%w: %s", ErrPortNotFound, portPath(node.FullName(), name))
	}
	return NodeOut[D]{node: nodeKey, port: portKey}, nil
}
