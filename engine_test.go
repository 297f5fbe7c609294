package engine_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	engine "github.com/chris-zen/kiro-engine"
	"github.com/chris-zen/kiro-engine/graph"
	"github.com/chris-zen/kiro-engine/mock"
)

// recordingLogger captures control thread log entries for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) Debug(args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprint(args...))
}

func (l *recordingLogger) Info(args ...interface{}) {
	l.Debug(args...)
}

func TestEngineFacade(t *testing.T) {
	e := engine.New()
	root := e.RootModule()

	name, err := root.Name()
	require.NoError(t, err)
	assert.Equal(t, "root", name)

	_, ok, err := root.Parent()
	require.NoError(t, err)
	assert.False(t, ok)

	voice, err := root.CreateModule("voice", graph.NewModuleDescriptor())
	require.NoError(t, err)
	parent, ok, err := voice.Parent()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root.Key(), parent.Key())

	path, err := voice.Path()
	require.NoError(t, err)
	assert.Equal(t, "/root", path)
}

func TestEngineLogsGraphEditsAndPlanCompiles(t *testing.T) {
	logger := &recordingLogger{}
	e := engine.New(engine.WithLogger(logger))
	root := e.RootModule()

	assert.NotEmpty(t, e.UID())

	_, err := root.CreateModule("voice", graph.NewModuleDescriptor())
	require.NoError(t, err)
	source, err := root.CreateProcessor("source", mock.NewProcessor("source", nil, mock.SourceDescriptor()))
	require.NoError(t, err)
	bindToMainOutput(t, e, source)
	require.NoError(t, e.SendRenderPlan())

	assert.Contains(t, logger.entries, "module created: voice")
	assert.Contains(t, logger.entries, "processor created: source")
	assert.Contains(t, logger.entries, "render plan compiled: 1 nodes")
}

func TestCreateProcessorRegistersParameters(t *testing.T) {
	e := engine.New()
	controller, _ := e.Split()

	descriptor := mock.SourceDescriptor().
		WithParameters(
			graph.NewParamDescriptor("freq").WithInitial(440),
			graph.NewParamDescriptor("amp").WithInitial(0.8),
		)
	node, err := e.RootModule().CreateProcessor("osc", mock.NewProcessor("osc", nil, descriptor))
	require.NoError(t, err)

	require.Len(t, node.ParamKeys(), 2)
	assert.NoError(t, node.SetParameter(0, 220))
	assert.ErrorIs(t, node.SetParameter(2, 1), engine.ErrParamValueNotFound)
	assert.NoError(t, controller.SetParameterValue(node.ParamKeys()[1], 0.5))
}

// TestPlanHandoffAtomicity pushes plans from the control goroutine
// while the audio goroutine renders. Every render must observe one
// fully formed plan: the execution log of a block is always a whole
// number of chains.
func TestPlanHandoffAtomicity(t *testing.T) {
	defer goleak.VerifyNone(t)

	const plans = 32
	const renders = 256

	log := &mock.Log{}
	e := engine.New()
	root := e.RootModule()

	source, err := root.CreateProcessor("source", mock.NewProcessor("source", log, mock.SourceDescriptor()))
	require.NoError(t, err)
	sink, err := root.CreateProcessor("sink", mock.NewProcessor("sink", log, mock.FilterDescriptor()))
	require.NoError(t, err)
	connectNodes(t, e, source, sink, "in")
	bindToMainOutput(t, e, sink)

	require.NoError(t, e.SendRenderPlan())
	controller, renderer := e.Split()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sent := 0
		for sent < plans {
			err := e.SendRenderPlan()
			if errors.Is(err, engine.ErrSendFailure) {
				continue
			}
			if err != nil {
				return
			}
			sent++
			controller.ProcessMessages()
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < renders; i++ {
			renderer.Render(16)
		}
	}()

	wg.Wait()
	controller.ProcessMessages()

	// every block rendered the whole two node chain, never a mix
	require.Len(t, log.Entries, 2*renders)
	for i := 0; i < len(log.Entries); i += 2 {
		assert.Equal(t, "source", log.Entries[i].Name)
		assert.Equal(t, "sink", log.Entries[i+1].Name)
	}
}
