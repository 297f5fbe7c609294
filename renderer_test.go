package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/chris-zen/kiro-engine"
	"github.com/chris-zen/kiro-engine/events"
	"github.com/chris-zen/kiro-engine/graph"
	"github.com/chris-zen/kiro-engine/mock"
	"github.com/chris-zen/kiro-engine/processor"
)

// buildChain wires source -> filter -> sink and binds the sink input
// chain to the root output through the filter.
func buildChain(t *testing.T) (*engine.Engine, *mock.Log) {
	t.Helper()
	log := &mock.Log{}
	e := engine.New()
	root := e.RootModule()

	source, err := root.CreateProcessor("source", mock.NewProcessor("source", log, mock.SourceDescriptor()))
	require.NoError(t, err)
	filter, err := root.CreateProcessor("filter", mock.NewProcessor("filter", log, mock.FilterDescriptor()))
	require.NoError(t, err)
	gain, err := root.CreateProcessor("gain", mock.NewProcessor("gain", log, mock.FilterDescriptor()))
	require.NoError(t, err)

	connectNodes(t, e, source, filter, "in")
	connectNodes(t, e, filter, gain, "in")
	bindToMainOutput(t, e, gain)
	return e, log
}

func connectNodes(t *testing.T, e *engine.Engine, from, to engine.ProcessorNode, toPort string) {
	t.Helper()
	out, err := from.AudioOutput("out")
	require.NoError(t, err)
	in, err := to.AudioInput(toPort)
	require.NoError(t, err)
	require.NoError(t, e.ConnectAudio(out.ToNode(in)))
}

func bindToMainOutput(t *testing.T, e *engine.Engine, node engine.ProcessorNode) {
	t.Helper()
	mainOut, err := e.RootModule().CreateAudioOutput(graph.NewAudioDescriptor("main", 2))
	require.NoError(t, err)
	nodeOut, err := node.AudioOutput("out")
	require.NoError(t, err)
	require.NoError(t, e.ConnectAudio(nodeOut.Bind(mainOut)))
}

func TestRenderLinearChainOrder(t *testing.T) {
	e, log := buildChain(t)
	require.NoError(t, e.SendRenderPlan())
	_, renderer := e.Split()

	renderer.Render(64)

	assert.Equal(t, []string{"source", "filter", "gain"}, log.Names())
	for _, entry := range log.Entries {
		assert.Equal(t, 64, entry.NumSamples)
	}
}

func TestRenderReseedsEveryBlock(t *testing.T) {
	e, log := buildChain(t)
	require.NoError(t, e.SendRenderPlan())
	_, renderer := e.Split()

	renderer.Render(64)
	renderer.Render(32)

	require.Len(t, log.Entries, 6)
	assert.Equal(t, []string{"source", "filter", "gain", "source", "filter", "gain"}, log.Names())
	assert.Equal(t, 32, log.Entries[5].NumSamples)
}

func TestRenderDiamondWaitsForAllDependencies(t *testing.T) {
	log := &mock.Log{}
	e := engine.New()
	root := e.RootModule()

	source, err := root.CreateProcessor("source", mock.NewProcessor("source", log, mock.SourceDescriptor()))
	require.NoError(t, err)
	left, err := root.CreateProcessor("left", mock.NewProcessor("left", log, mock.FilterDescriptor()))
	require.NoError(t, err)
	right, err := root.CreateProcessor("right", mock.NewProcessor("right", log, mock.FilterDescriptor()))
	require.NoError(t, err)
	mixer, err := root.CreateProcessor("mixer", mock.NewProcessor("mixer", log, mock.MixerDescriptor(2)))
	require.NoError(t, err)

	connectNodes(t, e, source, left, "in")
	connectNodes(t, e, source, right, "in")
	connectNodes(t, e, left, mixer, "in-0")
	connectNodes(t, e, right, mixer, "in-1")
	bindToMainOutput(t, e, mixer)

	require.NoError(t, e.SendRenderPlan())
	_, renderer := e.Split()

	renderer.Render(64)

	names := log.Names()
	require.Len(t, names, 4)
	assert.Equal(t, "source", names[0])
	assert.Equal(t, "mixer", names[3])
	assert.ElementsMatch(t, []string{"left", "right"}, names[1:3])
}

func TestRenderDataFlowsThroughSharedBuffers(t *testing.T) {
	const value = float32(0.5)

	var observed []float32
	e := engine.New()
	root := e.RootModule()

	source, err := root.CreateProcessor("source",
		mock.NewProcessor("source", nil, mock.SourceDescriptor()).
			WithRender(func(context *processor.Context) {
				context.AudioOutput(0).Fill(value)
			}))
	require.NoError(t, err)
	sink, err := root.CreateProcessor("sink",
		mock.NewProcessor("sink", nil, mock.FilterDescriptor()).
			WithRender(func(context *processor.Context) {
				in := context.AudioInput(0).Channel(0)
				observed = append(observed, in...)
				out := context.AudioOutput(0).Channel(0)
				copy(out, in)
			}))
	require.NoError(t, err)

	connectNodes(t, e, source, sink, "in")
	bindToMainOutput(t, e, sink)
	require.NoError(t, e.SendRenderPlan())
	_, renderer := e.Split()

	renderer.Render(8)

	require.Len(t, observed, 8)
	for _, sample := range observed {
		assert.Equal(t, value, sample)
	}

	// the root output aliases the sink's output buffers
	outputs := renderer.AudioOutputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, value, outputs[0].Slice()[0])
}

func TestRenderEventsFlowThroughSharedBuffers(t *testing.T) {
	note := events.Event{
		Timestamp: 16,
		Data:      events.Midi{Status: 0x90, Data1: 60, Data2: 100},
	}

	e := engine.New()
	root := e.RootModule()

	sequencer, err := root.CreateProcessor("sequencer",
		mock.NewProcessor("sequencer", nil, mock.SequencerDescriptor()).
			WithRender(func(context *processor.Context) {
				context.EventsOutput(0).Buffer().Push(note)
			}))
	require.NoError(t, err)

	var observed []events.Event
	synth, err := root.CreateProcessor("synth",
		mock.NewProcessor("synth", nil, mock.SynthDescriptor()).
			WithRender(func(context *processor.Context) {
				in := context.EventsInput(0).Buffer()
				observed = append(observed, in.Slice()...)
				in.Clear()
			}))
	require.NoError(t, err)

	sequencerOut, err := sequencer.EventsOutput("out")
	require.NoError(t, err)
	synthIn, err := synth.EventsInput("notes")
	require.NoError(t, err)
	require.NoError(t, e.ConnectEvents(sequencerOut.ToNode(synthIn)))
	bindToMainOutput(t, e, synth)

	require.NoError(t, e.SendRenderPlan())
	_, renderer := e.Split()

	renderer.Render(8)
	renderer.Render(8)

	// the synth reads exactly what the sequencer pushed, one event per
	// block, through the buffer both ports share
	require.Len(t, observed, 2)
	assert.Equal(t, note, observed[0])
	assert.Equal(t, note, observed[1])
}

func TestRenderExternalInput(t *testing.T) {
	const value = float32(0.25)

	e := engine.New()
	root := e.RootModule()

	sink, err := root.CreateProcessor("sink", mock.NewProcessor("sink", nil, mock.FilterDescriptor()).
		WithRender(func(context *processor.Context) {
			in := context.AudioInput(0).Channel(0)
			out := context.AudioOutput(0).Channel(0)
			copy(out, in)
		}))
	require.NoError(t, err)

	mainIn, err := root.CreateAudioInput(graph.NewAudioDescriptor("main-in", 2))
	require.NoError(t, err)
	sinkIn, err := sink.AudioInput("in")
	require.NoError(t, err)
	require.NoError(t, e.ConnectAudio(mainIn.BindNode(sinkIn)))
	bindToMainOutput(t, e, sink)

	require.NoError(t, e.SendRenderPlan())
	_, renderer := e.Split()
	renderer.Render(0) // pick up the plan

	inputs := renderer.AudioInputs()
	require.Len(t, inputs, 2)
	inputs[0].Fill(4, value)

	renderer.Render(4)

	outputs := renderer.AudioOutputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, value, outputs[0].Slice()[0])
}

func TestRenderPlanSwap(t *testing.T) {
	log := &mock.Log{}
	e := engine.New()
	root := e.RootModule()

	source, err := root.CreateProcessor("source", mock.NewProcessor("source", log, mock.SourceDescriptor()))
	require.NoError(t, err)
	bindToMainOutput(t, e, source)
	require.NoError(t, e.SendRenderPlan())

	controller, renderer := e.Split()
	renderer.Render(64)
	assert.Equal(t, []string{"source"}, log.Names())

	// extend the graph and swap the plan in
	filter, err := root.CreateProcessor("filter", mock.NewProcessor("filter", log, mock.FilterDescriptor()))
	require.NoError(t, err)
	sourceOut, err := source.AudioOutput("out")
	require.NoError(t, err)
	filterIn, err := filter.AudioInput("in")
	require.NoError(t, err)
	require.NoError(t, e.ConnectAudio(sourceOut.ToNode(filterIn)))

	mainOut2, err := root.CreateAudioOutput(graph.NewAudioDescriptor("aux", 2))
	require.NoError(t, err)
	filterOut, err := filter.AudioOutput("out")
	require.NoError(t, err)
	require.NoError(t, e.ConnectAudio(filterOut.Bind(mainOut2)))

	require.NoError(t, e.SendRenderPlan())
	renderer.Render(64)
	controller.ProcessMessages()

	assert.Equal(t, []string{"source", "source", "filter"}, log.Names())
}
