package engine

import (
	"fmt"
	"sort"

	"github.com/rs/xid"

	"github.com/chris-zen/kiro-engine/graph"
	"github.com/chris-zen/kiro-engine/internal/ring"
	"github.com/chris-zen/kiro-engine/log"
	"github.com/chris-zen/kiro-engine/processor"
)

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

// nodeBinding ties a graph node to the controller resources backing it.
type nodeBinding struct {
	processor ProcessorKey
	params    []ParamKey
}

// Engine couples the Graph, the Controller and the Renderer over the
// two cross-thread channels. It keeps the bookkeeping needed to
// compile the graph into render plans: which processor and parameter
// cells back each node, and which buffers back each port.
type Engine struct {
	uid    string
	log    log.Logger
	config Config

	graph      *graph.Graph
	controller *Controller
	renderer   *Renderer

	bindings         map[graph.NodeKey]nodeBinding
	audioBufferKeys  map[graph.Source][]AudioBufferKey
	eventsBufferKeys map[graph.Source]EventsBufferKey
}

// New creates an engine with the default configuration, applying the
// provided options.
func New(options ...Option) *Engine {
	config := DefaultConfig()
	for _, option := range options {
		option(&config)
	}

	forward := ring.New[message](config.RingBufferCapacity)
	backward := ring.New[message](config.RingBufferCapacity)

	uid := newUID()
	logger := config.Logger
	if logger == nil {
		logger = log.WithUID(log.GetLogger(), uid)
	}

	return &Engine{
		uid:              uid,
		log:              logger,
		config:           config,
		graph:            graph.New(),
		controller:       newController(forward, backward, config, logger),
		renderer:         newRenderer(backward, forward, config),
		bindings:         make(map[graph.NodeKey]nodeBinding),
		audioBufferKeys:  make(map[graph.Source][]AudioBufferKey),
		eventsBufferKeys: make(map[graph.Source]EventsBufferKey),
	}
}

// UID returns the unique id of this engine instance.
func (e *Engine) UID() string {
	return e.uid
}

// Graph returns the graph for direct edits.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Split returns the two thread-bound halves: the Controller stays on
// the control thread and the Renderer moves to the audio thread.
func (e *Engine) Split() (*Controller, *Renderer) {
	return e.controller, e.renderer
}

// RootModule returns a handle on the root module.
func (e *Engine) RootModule() Module {
	return Module{engine: e, key: e.graph.RootModule()}
}

// ConnectAudio applies an audio connection or binding.
func (e *Engine) ConnectAudio(connection graph.AudioConnection) error {
	return e.graph.ConnectAudio(connection)
}

// ConnectEvents applies an events connection or binding.
func (e *Engine) ConnectEvents(connection graph.EventsConnection) error {
	return e.graph.ConnectEvents(connection)
}

// SendRenderPlan compiles the current graph into a render plan and
// hands it to the Renderer. Buffers are allocated once per port and
// reused across plans, so a re-send after an edit only allocates for
// what is new.
func (e *Engine) SendRenderPlan() error {
	topology, err := e.graph.Topology()
	if err != nil {
		return err
	}

	planNodes := make([]PlanNode, 0, len(topology.Nodes))
	for _, nodeKey := range topology.Nodes {
		planNode, err := e.buildPlanNode(topology, nodeKey)
		if err != nil {
			return err
		}
		planNodes = append(planNodes, planNode)
	}

	audioInputs, eventsInputs, err := e.rootInputBuffers()
	if err != nil {
		return err
	}
	audioOutputs, eventsOutputs, err := e.rootOutputBuffers(topology)
	if err != nil {
		return err
	}

	e.log.Debug("render plan compiled: ", len(planNodes), " nodes")
	return e.controller.SendRenderPlan(planNodes, audioInputs, audioOutputs, eventsInputs, eventsOutputs)
}

func (e *Engine) buildPlanNode(topology *graph.Topology, nodeKey graph.NodeKey) (PlanNode, error) {
	binding, ok := e.bindings[nodeKey]
	if !ok {
		return PlanNode{}, fmt.Errorf("%w: graph node %v", ErrProcessorNotFound, nodeKey)
	}
	planNode := NewPlanNode(binding.processor).WithParameters(binding.params...)

	audioInputs, err := e.graph.NodeAudioInputs(nodeKey)
	if err != nil {
		return PlanNode{}, err
	}
	for _, in := range audioInputs {
		keys, err := e.audioInputKeys(topology, in)
		if err != nil {
			return PlanNode{}, err
		}
		planNode = planNode.WithAudioInputPort(keys...)
	}

	audioOutputs, err := e.graph.NodeAudioOutputs(nodeKey)
	if err != nil {
		return PlanNode{}, err
	}
	for _, out := range audioOutputs {
		descriptor, err := e.graph.NodeAudioOutputDescriptor(out)
		if err != nil {
			return PlanNode{}, err
		}
		planNode = planNode.WithAudioOutputPort(e.audioKeysFor(out, descriptor.Channels())...)
	}

	eventsInputs, err := e.graph.NodeEventsInputs(nodeKey)
	if err != nil {
		return PlanNode{}, err
	}
	for _, in := range eventsInputs {
		planNode = planNode.WithEventsInput(e.eventsInputKey(topology, in))
	}

	eventsOutputs, err := e.graph.NodeEventsOutputs(nodeKey)
	if err != nil {
		return PlanNode{}, err
	}
	for _, out := range eventsOutputs {
		planNode = planNode.WithEventsOutput(e.eventsKeyFor(out))
	}

	return planNode.WithDependencies(e.nodeDependencies(topology, nodeKey)...), nil
}

// audioInputKeys returns the buffers an audio input reads: the
// producing output's buffers, the engine input buffers when the chain
// leaves the graph, or dedicated silent buffers when unconnected.
func (e *Engine) audioInputKeys(topology *graph.Topology, in graph.NodeAudioIn) ([]AudioBufferKey, error) {
	descriptor, err := e.graph.NodeAudioInputDescriptor(in)
	if err != nil {
		return nil, err
	}
	if producer, ok := topology.SourcePorts[in]; ok {
		out := producer.(graph.NodeAudioOut)
		outDescriptor, err := e.graph.NodeAudioOutputDescriptor(out)
		if err != nil {
			return nil, err
		}
		return e.audioKeysFor(out, outDescriptor.Channels()), nil
	}
	if external, ok := topology.ExternalSources[in]; ok {
		rootIn := external.(graph.ModuleAudioIn)
		rootDescriptor, err := e.graph.ModuleAudioInputDescriptor(rootIn)
		if err != nil {
			return nil, err
		}
		return e.audioKeysFor(rootIn, rootDescriptor.Channels()), nil
	}
	return e.audioKeysFor(in, descriptor.Channels()), nil
}

func (e *Engine) eventsInputKey(topology *graph.Topology, in graph.NodeEventsIn) EventsBufferKey {
	if producer, ok := topology.SourcePorts[in]; ok {
		return e.eventsKeyFor(producer.(graph.NodeEventsOut))
	}
	if external, ok := topology.ExternalSources[in]; ok {
		return e.eventsKeyFor(external)
	}
	return e.eventsKeyFor(in)
}

// audioKeysFor returns the buffer keys cached for the endpoint,
// allocating one buffer per channel on first use.
func (e *Engine) audioKeysFor(endpoint graph.Source, channels int) []AudioBufferKey {
	if keys, ok := e.audioBufferKeys[endpoint]; ok {
		return keys
	}
	keys := make([]AudioBufferKey, channels)
	for i := range keys {
		keys[i] = e.controller.AddAudioBuffer()
	}
	e.audioBufferKeys[endpoint] = keys
	return keys
}

func (e *Engine) eventsKeyFor(endpoint graph.Source) EventsBufferKey {
	if key, ok := e.eventsBufferKeys[endpoint]; ok {
		return key
	}
	key := e.controller.AddEventBuffer()
	e.eventsBufferKeys[endpoint] = key
	return key
}

func (e *Engine) nodeDependencies(topology *graph.Topology, nodeKey graph.NodeKey) []ProcessorKey {
	producers := make([]graph.NodeKey, 0, len(topology.SourceNodes[nodeKey]))
	for producer := range topology.SourceNodes[nodeKey] {
		producers = append(producers, producer)
	}
	sort.Slice(producers, func(i, j int) bool { return producers[i] < producers[j] })

	keys := make([]ProcessorKey, 0, len(producers))
	for _, producer := range producers {
		if binding, ok := e.bindings[producer]; ok {
			keys = append(keys, binding.processor)
		}
	}
	return keys
}

// rootInputBuffers returns the engine-level input buffers in root
// module port order.
func (e *Engine) rootInputBuffers() ([]AudioBufferKey, []EventsBufferKey, error) {
	var audioKeys []AudioBufferKey
	audioInputs, err := e.graph.ModuleAudioInputs(e.graph.RootModule())
	if err != nil {
		return nil, nil, err
	}
	for _, in := range audioInputs {
		descriptor, err := e.graph.ModuleAudioInputDescriptor(in)
		if err != nil {
			return nil, nil, err
		}
		audioKeys = append(audioKeys, e.audioKeysFor(in, descriptor.Channels())...)
	}

	var eventsKeys []EventsBufferKey
	eventsInputs, err := e.graph.ModuleEventsInputs(e.graph.RootModule())
	if err != nil {
		return nil, nil, err
	}
	for _, in := range eventsInputs {
		eventsKeys = append(eventsKeys, e.eventsKeyFor(in))
	}
	return audioKeys, eventsKeys, nil
}

// rootOutputBuffers returns the engine-level output buffers in root
// module port order. An output resolves to the buffers of the node
// output producing it; an unconnected output gets silent buffers of
// its own.
func (e *Engine) rootOutputBuffers(topology *graph.Topology) ([]AudioBufferKey, []EventsBufferKey, error) {
	var audioKeys []AudioBufferKey
	audioOutputs, err := e.graph.ModuleAudioOutputs(e.graph.RootModule())
	if err != nil {
		return nil, nil, err
	}
	for _, out := range audioOutputs {
		if producer, ok := topology.SourcePorts[out]; ok {
			nodeOut := producer.(graph.NodeAudioOut)
			descriptor, err := e.graph.NodeAudioOutputDescriptor(nodeOut)
			if err != nil {
				return nil, nil, err
			}
			audioKeys = append(audioKeys, e.audioKeysFor(nodeOut, descriptor.Channels())...)
			continue
		}
		descriptor, err := e.graph.ModuleAudioOutputDescriptor(out)
		if err != nil {
			return nil, nil, err
		}
		audioKeys = append(audioKeys, e.audioKeysFor(out, descriptor.Channels())...)
	}

	var eventsKeys []EventsBufferKey
	eventsOutputs, err := e.graph.ModuleEventsOutputs(e.graph.RootModule())
	if err != nil {
		return nil, nil, err
	}
	for _, out := range eventsOutputs {
		if producer, ok := topology.SourcePorts[out]; ok {
			eventsKeys = append(eventsKeys, e.eventsKeyFor(producer.(graph.NodeEventsOut)))
			continue
		}
		eventsKeys = append(eventsKeys, e.eventsKeyFor(out))
	}
	return audioKeys, eventsKeys, nil
}

// Module is a handle on a graph module bound to its engine.
type Module struct {
	engine *Engine
	key    graph.ModuleKey
}

// Key returns the graph key of the module.
func (m Module) Key() graph.ModuleKey {
	return m.key
}

// Name returns the module name.
func (m Module) Name() (string, error) {
	module, err := m.engine.graph.Module(m.key)
	if err != nil {
		return "", err
	}
	return module.Name, nil
}

// Path returns the module path.
func (m Module) Path() (string, error) {
	module, err := m.engine.graph.Module(m.key)
	if err != nil {
		return "", err
	}
	return module.Path, nil
}

// Parent returns the parent module. ok is false for the root module.
func (m Module) Parent() (parent Module, ok bool, err error) {
	module, err := m.engine.graph.Module(m.key)
	if err != nil {
		return Module{}, false, err
	}
	if module.IsRoot() {
		return Module{}, false, nil
	}
	return Module{engine: m.engine, key: module.Parent}, true, nil
}

// CreateModule creates a child module.
func (m Module) CreateModule(name string, descriptor graph.ModuleDescriptor) (Module, error) {
	key, err := m.engine.graph.CreateModule(m.key, name, descriptor)
	if err != nil {
		return Module{}, err
	}
	m.engine.log.Debug("module created: ", name)
	return Module{engine: m.engine, key: key}, nil
}

// CreateProcessor creates a node under this module running the
// processor, registering the processor and one parameter cell per
// parameter descriptor with the controller.
func (m Module) CreateProcessor(name string, p processor.Processor) (ProcessorNode, error) {
	descriptor := p.Descriptor()
	nodeKey, err := m.engine.graph.CreateNode(m.key, name, descriptor)
	if err != nil {
		return ProcessorNode{}, err
	}

	processorKey := m.engine.controller.AddProcessor(p)
	initialValues := make([]float32, len(descriptor.Parameters))
	for i, paramDescriptor := range descriptor.Parameters {
		initialValues[i] = paramDescriptor.Initial
	}
	paramKeys := m.engine.controller.AddParameters(initialValues)

	m.engine.bindings[nodeKey] = nodeBinding{processor: processorKey, params: paramKeys}
	m.engine.log.Debug("processor created: ", name)
	return ProcessorNode{
		engine:    m.engine,
		node:      nodeKey,
		processor: processorKey,
		params:    paramKeys,
	}, nil
}

// AudioInput looks up a module audio input port by name.
func (m Module) AudioInput(name string) (graph.ModuleAudioIn, error) {
	return m.engine.graph.ModuleAudioInput(m.key, name)
}

// AudioOutput looks up a module audio output port by name.
func (m Module) AudioOutput(name string) (graph.ModuleAudioOut, error) {
	return m.engine.graph.ModuleAudioOutput(m.key, name)
}

// EventsInput looks up a module events input port by name.
func (m Module) EventsInput(name string) (graph.ModuleEventsIn, error) {
	return m.engine.graph.ModuleEventsInput(m.key, name)
}

// EventsOutput looks up a module events output port by name.
func (m Module) EventsOutput(name string) (graph.ModuleEventsOut, error) {
	return m.engine.graph.ModuleEventsOutput(m.key, name)
}

// CreateAudioInput creates a dynamic audio input port.
func (m Module) CreateAudioInput(descriptor graph.AudioDescriptor) (graph.ModuleAudioIn, error) {
	return m.engine.graph.CreateModuleAudioInput(m.key, descriptor)
}

// CreateAudioOutput creates a dynamic audio output port.
func (m Module) CreateAudioOutput(descriptor graph.AudioDescriptor) (graph.ModuleAudioOut, error) {
	return m.engine.graph.CreateModuleAudioOutput(m.key, descriptor)
}

// CreateEventsInput creates a dynamic events input port.
func (m Module) CreateEventsInput(descriptor graph.EventsDescriptor) (graph.ModuleEventsIn, error) {
	return m.engine.graph.CreateModuleEventsInput(m.key, descriptor)
}

// CreateEventsOutput creates a dynamic events output port.
func (m Module) CreateEventsOutput(descriptor graph.EventsDescriptor) (graph.ModuleEventsOut, error) {
	return m.engine.graph.CreateModuleEventsOutput(m.key, descriptor)
}

// ProcessorNode is a handle on a graph node bound to the processor and
// parameter cells backing it.
type ProcessorNode struct {
	engine    *Engine
	node      graph.NodeKey
	processor ProcessorKey
	params    []ParamKey
}

// Key returns the graph key of the node.
func (n ProcessorNode) Key() graph.NodeKey {
	return n.node
}

// ProcessorKey returns the controller key of the processor.
func (n ProcessorNode) ProcessorKey() ProcessorKey {
	return n.processor
}

// ParamKeys returns the controller keys of the parameter cells, in
// descriptor order.
func (n ProcessorNode) ParamKeys() []ParamKey {
	return n.params
}

// SetParameter updates the parameter cell at index.
func (n ProcessorNode) SetParameter(index int, value float32) error {
	if index < 0 || index >= len(n.params) {
		return fmt.Errorf("%w: parameter index %d", ErrParamValueNotFound, index)
	}
	return n.engine.controller.SetParameterValue(n.params[index], value)
}

// AudioInput looks up a node audio input port by name.
func (n ProcessorNode) AudioInput(name string) (graph.NodeAudioIn, error) {
	return n.engine.graph.NodeAudioInput(n.node, name)
}

// AudioOutput looks up a node audio output port by name.
func (n ProcessorNode) AudioOutput(name string) (graph.NodeAudioOut, error) {
	return n.engine.graph.NodeAudioOutput(n.node, name)
}

// EventsInput looks up a node events input port by name.
func (n ProcessorNode) EventsInput(name string) (graph.NodeEventsIn, error) {
	return n.engine.graph.NodeEventsInput(n.node, name)
}

// EventsOutput looks up a node events output port by name.
func (n ProcessorNode) EventsOutput(name string) (graph.NodeEventsOut, error) {
	return n.engine.graph.NodeEventsOutput(n.node, name)
}
