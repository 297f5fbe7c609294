package engine

import (
	"github.com/chris-zen/kiro-engine/audio"
	"github.com/chris-zen/kiro-engine/events"
	"github.com/chris-zen/kiro-engine/keystore"
	"github.com/chris-zen/kiro-engine/param"
	"github.com/chris-zen/kiro-engine/processor"
)

// Keys into the Controller stores.
type (
	ProcessorKey    = keystore.Key[processor.Processor]
	ParamKey        = keystore.Key[*param.Value]
	AudioBufferKey  = keystore.Key[*audio.Buffer]
	EventsBufferKey = keystore.Key[*events.Buffer]
)

// PlanNode declares one node of a render plan by keys: the processor
// to run, the buffers behind every port, and the processors that must
// have rendered before it. The Controller resolves the keys into live
// handles at compile time.
type PlanNode struct {
	processor           ProcessorKey
	parameters          []ParamKey
	audioInputBuffers   [][]AudioBufferKey
	audioOutputBuffers  [][]AudioBufferKey
	eventsInputBuffers  []EventsBufferKey
	eventsOutputBuffers []EventsBufferKey
	dependencies        []ProcessorKey
}

// NewPlanNode declares a node running the processor.
func NewPlanNode(processorKey ProcessorKey) PlanNode {
	return PlanNode{processor: processorKey}
}

// WithParameters appends parameter keys.
func (n PlanNode) WithParameters(keys ...ParamKey) PlanNode {
	n.parameters = append(n.parameters, keys...)
	return n
}

// WithAudioInputPort appends one audio input port backed by one buffer
// per channel.
func (n PlanNode) WithAudioInputPort(keys ...AudioBufferKey) PlanNode {
	n.audioInputBuffers = append(n.audioInputBuffers, keys)
	return n
}

// WithAudioOutputPort appends one audio output port backed by one
// buffer per channel.
func (n PlanNode) WithAudioOutputPort(keys ...AudioBufferKey) PlanNode {
	n.audioOutputBuffers = append(n.audioOutputBuffers, keys)
	return n
}

// WithEventsInput appends events input ports, one per buffer.
func (n PlanNode) WithEventsInput(keys ...EventsBufferKey) PlanNode {
	n.eventsInputBuffers = append(n.eventsInputBuffers, keys...)
	return n
}

// WithEventsOutput appends events output ports, one per buffer.
func (n PlanNode) WithEventsOutput(keys ...EventsBufferKey) PlanNode {
	n.eventsOutputBuffers = append(n.eventsOutputBuffers, keys...)
	return n
}

// WithDependencies appends the processors this node waits for.
func (n PlanNode) WithDependencies(keys ...ProcessorKey) PlanNode {
	n.dependencies = append(n.dependencies, keys...)
	return n
}

// RenderNode is a compiled plan node: every key resolved into a live
// handle, plus the indices of the nodes it unblocks.
type RenderNode struct {
	processor         processor.Processor
	parameters        []*param.Value
	audioInputPorts   []*processor.AudioPort
	audioOutputPorts  []*processor.AudioPort
	eventsInputPorts  []*processor.EventsPort
	eventsOutputPorts []*processor.EventsPort
	context           *processor.Context
	triggers          []int
}

// RenderPlan is the compiled, schedulable form of the graph. It is
// built by the Controller, handed to the Renderer whole, and freed by
// the Controller once retired. Everything in it is pre-sized so the
// render path never allocates.
type RenderPlan struct {
	nodes []RenderNode

	audioInputs   []*audio.Buffer
	audioOutputs  []*audio.Buffer
	eventsInputs  []*events.Buffer
	eventsOutputs []*events.Buffer

	dependencies []int
	completed    []int
	initialReady []int
	ready        readyQueue
}

// readyQueue is a fixed-capacity FIFO of node indices. Its capacity is
// the plan's node count, which bounds the pushes of a well-formed
// schedule.
type readyQueue struct {
	buf  []int
	head int
	size int
}

func newReadyQueue(capacity int) readyQueue {
	if capacity == 0 {
		capacity = 1
	}
	return readyQueue{buf: make([]int, capacity)}
}

func (q *readyQueue) clear() {
	q.head = 0
	q.size = 0
}

func (q *readyQueue) push(index int) {
	if q.size == len(q.buf) {
		// only reachable through a malformed plan with more triggers
		// than declared dependencies
		grown := make([]int, 2*len(q.buf))
		for i := 0; i < q.size; i++ {
			grown[i] = q.buf[(q.head+i)%len(q.buf)]
		}
		q.buf = grown
		q.head = 0
	}
	q.buf[(q.head+q.size)%len(q.buf)] = index
	q.size++
}

func (q *readyQueue) pop() (int, bool) {
	if q.size == 0 {
		return 0, false
	}
	index := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return index, true
}
