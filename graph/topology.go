package graph

import "fmt"

// Source identifies any port endpoint whose resolved producer gets
// recorded in the topology. All eight endpoint shapes of both families
// implement it.
type Source interface {
	isSource()
}

// Output is a terminal producer: a node output port of either family.
// Every signal in a schedulable graph ultimately comes out of one.
type Output interface {
	Source
	NodeKey() NodeKey
	isOutput()
}

func (NodeOut[D]) isOutput() {}

// Topology is the resolved view of the graph: the nodes reachable from
// the root module outputs in dependency order, the edges between them,
// and the terminal producer behind every port endpoint walked during
// resolution.
type Topology struct {
	// Nodes holds every reachable node in post-order: all of a node's
	// producers appear before the node itself.
	Nodes []NodeKey

	// SourceNodes maps a node to the set of nodes feeding its inputs.
	SourceNodes map[NodeKey]map[NodeKey]struct{}

	// DestinationNodes maps a node to the set of nodes reading its
	// outputs.
	DestinationNodes map[NodeKey]map[NodeKey]struct{}

	// SourcePorts maps every resolved port endpoint to the node output
	// its signal ultimately comes from.
	SourcePorts map[Source]Output

	// ExternalSources maps endpoints whose chain ends at an unconnected
	// root module input, fed from outside the graph.
	ExternalSources map[Source]Source
}

type traversalMark uint8

const (
	unseenMark traversalMark = iota
	traversingMark
	visitedMark
)

// Topology resolves the graph starting from the root module's output
// ports, following every input's source chain through bindings and
// connections until it reaches a node output. Chains that end
// unconnected are skipped. A back-edge onto a node still being
// traversed fails with ErrCycle.
func (g *Graph) Topology() (*Topology, error) {
	topology := &Topology{
		SourceNodes:      make(map[NodeKey]map[NodeKey]struct{}),
		DestinationNodes: make(map[NodeKey]map[NodeKey]struct{}),
		SourcePorts:      make(map[Source]Output),
		ExternalSources:  make(map[Source]Source),
	}

	rootProducers, err := rootModuleProducers(g, topology)
	if err != nil {
		return nil, err
	}

	marks := make(map[NodeKey]traversalMark)
	for _, producer := range rootProducers {
		if err := visitFrom(g, topology, marks, producer); err != nil {
			return nil, err
		}
	}
	return topology, nil
}

// rootModuleProducers resolves the root module output ports, audio
// first, in port declaration order.
func rootModuleProducers(g *Graph, topology *Topology) ([]NodeKey, error) {
	var producers []NodeKey
	audioProducers, err := familyRootProducers(g, audioFamily, topology)
	if err != nil {
		return nil, err
	}
	producers = append(producers, audioProducers...)
	eventsProducers, err := familyRootProducers(g, eventsFamily, topology)
	if err != nil {
		return nil, err
	}
	return append(producers, eventsProducers...), nil
}

func familyRootProducers[D Descriptor[D]](g *Graph, fam family[D], topology *Topology) ([]NodeKey, error) {
	rootModule, err := g.Module(g.rootModule)
	if err != nil {
		return nil, err
	}
	set := fam.ports(&rootModule.Ports)
	var producers []NodeKey
	for _, portKey := range set.outputs.Keys() {
		endpoint := ModuleOut[D]{module: g.rootModule, port: portKey}
		terminal, ok, err := resolveEndpoint(g, fam, endpoint, set.outputs.Get(portKey).Source, topology)
		if err != nil {
			return nil, err
		}
		if ok {
			producers = append(producers, terminal.node)
		}
	}
	return producers, nil
}

// visitFrom runs the explicit-stack depth-first traversal. A node is
// expanded when first seen on top of the stack and appended to the
// order when it comes back on top with all of its producers visited.
func visitFrom(g *Graph, topology *Topology, marks map[NodeKey]traversalMark, start NodeKey) error {
	stack := []NodeKey{start}
	for len(stack) > 0 {
		nodeKey := stack[len(stack)-1]
		switch marks[nodeKey] {
		case unseenMark:
			marks[nodeKey] = traversingMark
			producers, err := nodeProducers(g, nodeKey, topology)
			if err != nil {
				return err
			}
			for _, producer := range producers {
				switch marks[producer] {
				case traversingMark:
					node, err := g.Node(producer)
					if err != nil {
						return err
					}
					return fmt.Errorf("%w: through %s", ErrCycle, node.FullName())
				case unseenMark:
					stack = append(stack, producer)
				}
			}
		case traversingMark:
			marks[nodeKey] = visitedMark
			topology.Nodes = append(topology.Nodes, nodeKey)
			stack = stack[:len(stack)-1]
		case visitedMark:
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// nodeProducers resolves all input ports of a node, records the edges
// and port resolutions, and returns the producing nodes.
func nodeProducers(g *Graph, nodeKey NodeKey, topology *Topology) ([]NodeKey, error) {
	audioProducers, err := familyNodeProducers(g, audioFamily, nodeKey, topology)
	if err != nil {
		return nil, err
	}
	eventsProducers, err := familyNodeProducers(g, eventsFamily, nodeKey, topology)
	if err != nil {
		return nil, err
	}
	return append(audioProducers, eventsProducers...), nil
}

func familyNodeProducers[D Descriptor[D]](g *Graph, fam family[D], nodeKey NodeKey, topology *Topology) ([]NodeKey, error) {
	node, err := g.Node(nodeKey)
	if err != nil {
		return nil, err
	}
	set := fam.ports(&node.Ports)
	var producers []NodeKey
	for _, portKey := range set.inputs.Keys() {
		endpoint := NodeIn[D]{node: nodeKey, port: portKey}
		terminal, ok, err := resolveEndpoint(g, fam, endpoint, set.inputs.Get(portKey).Source, topology)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		producers = append(producers, terminal.node)
		addEdge(topology, terminal.node, nodeKey)
	}
	return producers, nil
}

func addEdge(topology *Topology, producer, consumer NodeKey) {
	sources, ok := topology.SourceNodes[consumer]
	if !ok {
		sources = make(map[NodeKey]struct{})
		topology.SourceNodes[consumer] = sources
	}
	sources[producer] = struct{}{}

	destinations, ok := topology.DestinationNodes[producer]
	if !ok {
		destinations = make(map[NodeKey]struct{})
		topology.DestinationNodes[producer] = destinations
	}
	destinations[consumer] = struct{}{}
}

// resolveEndpoint walks the source chain behind an endpoint until it
// reaches a node output, recording the resolution for every endpoint
// crossed along the way. Reports false when the chain ends unconnected.
func resolveEndpoint[D Descriptor[D]](g *Graph, fam family[D], endpoint Source, source any, topology *Topology) (NodeOut[D], bool, error) {
	chain := []Source{endpoint}
	for {
		switch s := source.(type) {
		case nil:
			// a chain ending at an unconnected root module input is
			// fed from outside the graph
			if external, ok := chain[len(chain)-1].(ModuleIn[D]); ok && external.module == g.rootModule {
				for _, crossed := range chain {
					topology.ExternalSources[crossed] = external
				}
			}
			return NodeOut[D]{}, false, nil
		case NodeOut[D]:
			for _, crossed := range chain {
				topology.SourcePorts[crossed] = s
			}
			return s, true, nil
		case ModuleIn[D]:
			chain = append(chain, s)
			module, err := g.Module(s.module)
			if err != nil {
				return NodeOut[D]{}, false, err
			}
			port, err := moduleInputPort(module, fam, s.port)
			if err != nil {
				return NodeOut[D]{}, false, err
			}
			source = port.Source
		case ModuleOut[D]:
			chain = append(chain, s)
			module, err := g.Module(s.module)
			if err != nil {
				return NodeOut[D]{}, false, err
			}
			port, err := moduleOutputPort(module, fam, s.port)
			if err != nil {
				return NodeOut[D]{}, false, err
			}
			source = port.Source
		default:
			return NodeOut[D]{}, false, fmt.Errorf("unexpected source %T", source)
		}
	}
}
