package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-zen/kiro-engine/graph"
)

// mixerDescriptor declares two audio inputs and one output.
func mixerDescriptor() graph.NodeDescriptor {
	return graph.NewNodeDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticInputsCardinality(2, stereo("in")).WithStaticOutputs(stereo("out"))
		})
}

func connectChain(t *testing.T, g *graph.Graph, from, to graph.NodeKey, toPort string) {
	t.Helper()
	out, err := g.NodeAudioOutput(from, "out")
	require.NoError(t, err)
	in, err := g.NodeAudioInput(to, toPort)
	require.NoError(t, err)
	require.NoError(t, g.ConnectAudio(out.ToNode(in)))
}

func bindToRootOutput(t *testing.T, g *graph.Graph, node graph.NodeKey) {
	t.Helper()
	rootOut, err := g.CreateModuleAudioOutput(g.RootModule(), stereo("main"))
	require.NoError(t, err)
	nodeOut, err := g.NodeAudioOutput(node, "out")
	require.NoError(t, err)
	require.NoError(t, g.ConnectAudio(nodeOut.Bind(rootOut)))
}

func TestTopologyLinearChain(t *testing.T) {
	g := graph.New()
	osc, err := g.CreateNode(g.RootModule(), "osc", oscillatorDescriptor())
	require.NoError(t, err)
	filter, err := g.CreateNode(g.RootModule(), "filter", filterDescriptor())
	require.NoError(t, err)
	gain, err := g.CreateNode(g.RootModule(), "gain", filterDescriptor())
	require.NoError(t, err)

	connectChain(t, g, osc, filter, "in")
	connectChain(t, g, filter, gain, "in")
	bindToRootOutput(t, g, gain)

	topology, err := g.Topology()
	require.NoError(t, err)

	assert.Equal(t, []graph.NodeKey{osc, filter, gain}, topology.Nodes)
	assert.Contains(t, topology.SourceNodes[filter], osc)
	assert.Contains(t, topology.SourceNodes[gain], filter)
	assert.Contains(t, topology.DestinationNodes[osc], filter)
	assert.Contains(t, topology.DestinationNodes[filter], gain)
}

func TestTopologyDiamondOrder(t *testing.T) {
	g := graph.New()
	osc, err := g.CreateNode(g.RootModule(), "osc", oscillatorDescriptor())
	require.NoError(t, err)
	left, err := g.CreateNode(g.RootModule(), "left", filterDescriptor())
	require.NoError(t, err)
	right, err := g.CreateNode(g.RootModule(), "right", filterDescriptor())
	require.NoError(t, err)
	mixer, err := g.CreateNode(g.RootModule(), "mixer", mixerDescriptor())
	require.NoError(t, err)

	connectChain(t, g, osc, left, "in")
	connectChain(t, g, osc, right, "in")
	connectChain(t, g, left, mixer, "in-0")
	connectChain(t, g, right, mixer, "in-1")
	bindToRootOutput(t, g, mixer)

	topology, err := g.Topology()
	require.NoError(t, err)
	require.Len(t, topology.Nodes, 4)

	// every producer comes before its consumer
	position := make(map[graph.NodeKey]int, len(topology.Nodes))
	for i, key := range topology.Nodes {
		position[key] = i
	}
	for consumer, producers := range topology.SourceNodes {
		for producer := range producers {
			assert.Less(t, position[producer], position[consumer])
		}
	}

	assert.Len(t, topology.SourceNodes[mixer], 2)
	assert.Len(t, topology.DestinationNodes[osc], 2)
}

func TestTopologyThroughModuleBoundaries(t *testing.T) {
	voiceDescriptor := graph.NewModuleDescriptor().
		WithAudioPorts(func(ports graph.PortList[graph.AudioDescriptor]) graph.PortList[graph.AudioDescriptor] {
			return ports.WithStaticOutputs(stereo("out"))
		})

	g := graph.New()
	voice, err := g.CreateModule(g.RootModule(), "voice", voiceDescriptor)
	require.NoError(t, err)
	osc, err := g.CreateNode(voice, "osc", oscillatorDescriptor())
	require.NoError(t, err)
	filter, err := g.CreateNode(g.RootModule(), "filter", filterDescriptor())
	require.NoError(t, err)

	// osc.out is bound up into voice.out, which connects to filter.in
	oscOut, err := g.NodeAudioOutput(osc, "out")
	require.NoError(t, err)
	voiceOut, err := g.ModuleAudioOutput(voice, "out")
	require.NoError(t, err)
	require.NoError(t, g.ConnectAudio(oscOut.Bind(voiceOut)))

	filterIn, err := g.NodeAudioInput(filter, "in")
	require.NoError(t, err)
	require.NoError(t, g.ConnectAudio(voiceOut.ToNode(filterIn)))
	bindToRootOutput(t, g, filter)

	topology, err := g.Topology()
	require.NoError(t, err)

	assert.Equal(t, []graph.NodeKey{osc, filter}, topology.Nodes)

	// both the module output and the node input resolve to osc.out
	resolved, ok := topology.SourcePorts[filterIn]
	require.True(t, ok)
	assert.Equal(t, osc, resolved.NodeKey())
	resolved, ok = topology.SourcePorts[voiceOut]
	require.True(t, ok)
	assert.Equal(t, osc, resolved.NodeKey())
}

func TestTopologySkipsUnconnectedInputs(t *testing.T) {
	g := graph.New()
	filter, err := g.CreateNode(g.RootModule(), "filter", filterDescriptor())
	require.NoError(t, err)
	bindToRootOutput(t, g, filter)

	topology, err := g.Topology()
	require.NoError(t, err)

	assert.Equal(t, []graph.NodeKey{filter}, topology.Nodes)
	assert.Empty(t, topology.SourceNodes[filter])
}

func TestTopologyDetectsCycle(t *testing.T) {
	g := graph.New()
	a, err := g.CreateNode(g.RootModule(), "a", filterDescriptor())
	require.NoError(t, err)
	b, err := g.CreateNode(g.RootModule(), "b", filterDescriptor())
	require.NoError(t, err)

	connectChain(t, g, a, b, "in")
	connectChain(t, g, b, a, "in")
	bindToRootOutput(t, g, b)

	_, err = g.Topology()
	assert.ErrorIs(t, err, graph.ErrCycle)
}
