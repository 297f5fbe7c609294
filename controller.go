package engine

import (
	"fmt"
	"sort"

	"github.com/chris-zen/kiro-engine/audio"
	"github.com/chris-zen/kiro-engine/events"
	"github.com/chris-zen/kiro-engine/internal/ring"
	"github.com/chris-zen/kiro-engine/keystore"
	"github.com/chris-zen/kiro-engine/log"
	"github.com/chris-zen/kiro-engine/param"
	"github.com/chris-zen/kiro-engine/processor"
)

// Controller lives on the control thread. It owns the long-lived
// resources (processors, parameter cells, buffers), compiles render
// plans out of them, and releases the plans the Renderer retires.
type Controller struct {
	tx *ring.Ring[message]
	rx *ring.Ring[message]

	config Config
	log    log.Logger

	processors   *keystore.Store[processor.Processor]
	parameters   *keystore.Store[*param.Value]
	audioBuffers *keystore.Store[*audio.Buffer]
	eventBuffers *keystore.Store[*events.Buffer]
}

func newController(tx, rx *ring.Ring[message], config Config, logger log.Logger) *Controller {
	return &Controller{
		tx:           tx,
		rx:           rx,
		config:       config,
		log:          logger,
		processors:   keystore.NewStore[processor.Processor](),
		parameters:   keystore.NewStore[*param.Value](),
		audioBuffers: keystore.NewStore[*audio.Buffer](),
		eventBuffers: keystore.NewStore[*events.Buffer](),
	}
}

// AddProcessor takes ownership of a processor and returns its key.
func (c *Controller) AddProcessor(p processor.Processor) ProcessorKey {
	return c.processors.Add(p)
}

// AddParameters creates one shared parameter cell per initial value.
func (c *Controller) AddParameters(initialValues []float32) []ParamKey {
	keys := make([]ParamKey, len(initialValues))
	for i, value := range initialValues {
		keys[i] = c.parameters.Add(param.NewValue(value))
	}
	return keys
}

// SetParameterValue updates a shared parameter cell. The new value is
// visible to the very next render of any node reading it.
func (c *Controller) SetParameterValue(key ParamKey, value float32) error {
	cell, err := c.parameterByKey(key)
	if err != nil {
		return err
	}
	cell.Set(value)
	return nil
}

// AddAudioBuffer creates an audio buffer of the configured capacity.
func (c *Controller) AddAudioBuffer() AudioBufferKey {
	return c.audioBuffers.Add(audio.NewBuffer(c.config.AudioBufferSize))
}

// AddEventBuffer creates an events buffer of the configured capacity.
func (c *Controller) AddEventBuffer() EventsBufferKey {
	return c.eventBuffers.Add(events.NewBuffer(c.config.EventBufferSize))
}

// SendRenderPlan compiles the plan nodes into a RenderPlan and pushes
// it to the Renderer. A stale key aborts the compile before anything
// is sent; a full channel drops the plan and returns ErrSendFailure.
func (c *Controller) SendRenderPlan(
	planNodes []PlanNode,
	audioInputs, audioOutputs []AudioBufferKey,
	eventsInputs, eventsOutputs []EventsBufferKey,
) error {
	plan, err := c.buildRenderPlan(planNodes, audioInputs, audioOutputs, eventsInputs, eventsOutputs)
	if err != nil {
		return err
	}
	if !c.tx.Push(message{plan: plan}) {
		return ErrSendFailure
	}
	c.log.Debug("render plan sent: ", len(plan.nodes), " nodes")
	return nil
}

// ProcessMessages drains the backward channel, releasing retired plans
// here so their disposal cost never lands on the audio thread.
func (c *Controller) ProcessMessages() {
	released := 0
	for {
		if _, ok := c.rx.Pop(); !ok {
			break
		}
		released++
	}
	if released > 0 {
		c.log.Debug("retired plans released: ", released)
	}
}

func (c *Controller) buildRenderPlan(
	planNodes []PlanNode,
	audioInputs, audioOutputs []AudioBufferKey,
	eventsInputs, eventsOutputs []EventsBufferKey,
) (*RenderPlan, error) {
	nodes := make([]RenderNode, 0, len(planNodes))
	nodesByKey := make(map[ProcessorKey]int, len(planNodes))
	dependencies := make([]int, len(planNodes))
	triggers := make(map[ProcessorKey]map[int]struct{})

	for index, planNode := range planNodes {
		proc, err := c.processorByKey(planNode.processor)
		if err != nil {
			return nil, err
		}
		parameters, err := c.buildParameters(planNode.parameters)
		if err != nil {
			return nil, err
		}
		audioInputPorts, err := c.buildAudioPorts(planNode.audioInputBuffers)
		if err != nil {
			return nil, err
		}
		audioOutputPorts, err := c.buildAudioPorts(planNode.audioOutputBuffers)
		if err != nil {
			return nil, err
		}
		eventsInputPorts, err := c.buildEventsPorts(planNode.eventsInputBuffers)
		if err != nil {
			return nil, err
		}
		eventsOutputPorts, err := c.buildEventsPorts(planNode.eventsOutputBuffers)
		if err != nil {
			return nil, err
		}

		dependencies[index] = len(planNode.dependencies)
		for _, dependency := range planNode.dependencies {
			indices, ok := triggers[dependency]
			if !ok {
				indices = make(map[int]struct{})
				triggers[dependency] = indices
			}
			indices[index] = struct{}{}
		}

		nodes = append(nodes, RenderNode{
			processor:         proc,
			parameters:        parameters,
			audioInputPorts:   audioInputPorts,
			audioOutputPorts:  audioOutputPorts,
			eventsInputPorts:  eventsInputPorts,
			eventsOutputPorts: eventsOutputPorts,
			context: processor.NewContext(
				0, parameters,
				audioInputPorts, audioOutputPorts,
				eventsInputPorts, eventsOutputPorts,
			),
		})
		nodesByKey[planNode.processor] = index
	}

	// materialize the trigger lists in plan order so that unblocked
	// nodes enter the ready queue deterministically
	for processorKey, index := range nodesByKey {
		indices := triggers[processorKey]
		list := make([]int, 0, len(indices))
		for triggered := range indices {
			list = append(list, triggered)
		}
		sort.Ints(list)
		nodes[index].triggers = list
	}

	var initialReady []int
	for index, count := range dependencies {
		if count == 0 {
			initialReady = append(initialReady, index)
		}
	}

	planAudioInputs, err := c.buildAudioBuffers(audioInputs)
	if err != nil {
		return nil, err
	}
	planAudioOutputs, err := c.buildAudioBuffers(audioOutputs)
	if err != nil {
		return nil, err
	}
	planEventsInputs, err := c.buildEventsBuffers(eventsInputs)
	if err != nil {
		return nil, err
	}
	planEventsOutputs, err := c.buildEventsBuffers(eventsOutputs)
	if err != nil {
		return nil, err
	}

	return &RenderPlan{
		nodes:         nodes,
		audioInputs:   planAudioInputs,
		audioOutputs:  planAudioOutputs,
		eventsInputs:  planEventsInputs,
		eventsOutputs: planEventsOutputs,
		dependencies:  dependencies,
		completed:     make([]int, len(nodes)),
		initialReady:  initialReady,
		ready:         newReadyQueue(len(nodes)),
	}, nil
}

func (c *Controller) processorByKey(key ProcessorKey) (processor.Processor, error) {
	proc := c.processors.Get(key)
	if proc == nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessorNotFound, key)
	}
	return *proc, nil
}

func (c *Controller) parameterByKey(key ParamKey) (*param.Value, error) {
	cell := c.parameters.Get(key)
	if cell == nil {
		return nil, fmt.Errorf("%w: %v", ErrParamValueNotFound, key)
	}
	return *cell, nil
}

func (c *Controller) audioBufferByKey(key AudioBufferKey) (*audio.Buffer, error) {
	buffer := c.audioBuffers.Get(key)
	if buffer == nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioBufferNotFound, key)
	}
	return *buffer, nil
}

func (c *Controller) eventsBufferByKey(key EventsBufferKey) (*events.Buffer, error) {
	buffer := c.eventBuffers.Get(key)
	if buffer == nil {
		return nil, fmt.Errorf("%w: %v", ErrEventsBufferNotFound, key)
	}
	return *buffer, nil
}

func (c *Controller) buildParameters(keys []ParamKey) ([]*param.Value, error) {
	parameters := make([]*param.Value, len(keys))
	for i, key := range keys {
		cell, err := c.parameterByKey(key)
		if err != nil {
			return nil, err
		}
		parameters[i] = cell
	}
	return parameters, nil
}

func (c *Controller) buildAudioPorts(keyLists [][]AudioBufferKey) ([]*processor.AudioPort, error) {
	ports := make([]*processor.AudioPort, len(keyLists))
	for i, keys := range keyLists {
		channels, err := c.buildAudioBuffers(keys)
		if err != nil {
			return nil, err
		}
		ports[i] = processor.NewAudioPort(channels)
	}
	return ports, nil
}

func (c *Controller) buildAudioBuffers(keys []AudioBufferKey) ([]*audio.Buffer, error) {
	buffers := make([]*audio.Buffer, len(keys))
	for i, key := range keys {
		buffer, err := c.audioBufferByKey(key)
		if err != nil {
			return nil, err
		}
		buffers[i] = buffer
	}
	return buffers, nil
}

func (c *Controller) buildEventsPorts(keys []EventsBufferKey) ([]*processor.EventsPort, error) {
	ports := make([]*processor.EventsPort, len(keys))
	for i, key := range keys {
		buffer, err := c.eventsBufferByKey(key)
		if err != nil {
			return nil, err
		}
		ports[i] = processor.NewEventsPort(buffer)
	}
	return ports, nil
}

func (c *Controller) buildEventsBuffers(keys []EventsBufferKey) ([]*events.Buffer, error) {
	buffers := make([]*events.Buffer, len(keys))
	for i, key := range keys {
		buffer, err := c.eventsBufferByKey(key)
		if err != nil {
			return nil, err
		}
		buffers[i] = buffer
	}
	return buffers, nil
}
