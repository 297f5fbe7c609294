package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/chris-zen/kiro-engine"
	"github.com/chris-zen/kiro-engine/mock"
)

func TestSendRenderPlanStaleProcessorKey(t *testing.T) {
	e := engine.New()
	controller, renderer := e.Split()

	var stale engine.ProcessorKey
	err := controller.SendRenderPlan([]engine.PlanNode{engine.NewPlanNode(stale)}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, engine.ErrProcessorNotFound)

	// the aborted compile must not have sent anything
	renderer.Render(64)
	assert.Empty(t, renderer.AudioOutputs())
}

func TestSendRenderPlanStaleResourceKeys(t *testing.T) {
	e := engine.New()
	controller, _ := e.Split()
	log := &mock.Log{}
	processorKey := controller.AddProcessor(mock.NewProcessor("source", log, mock.SourceDescriptor()))

	tests := []struct {
		description string
		planNode    engine.PlanNode
		expected    error
	}{
		{
			description: "stale parameter key",
			planNode: engine.NewPlanNode(processorKey).
				WithParameters(engine.ParamKey(0)),
			expected: engine.ErrParamValueNotFound,
		},
		{
			description: "stale audio buffer key",
			planNode: engine.NewPlanNode(processorKey).
				WithAudioOutputPort(engine.AudioBufferKey(0)),
			expected: engine.ErrAudioBufferNotFound,
		},
		{
			description: "stale events buffer key",
			planNode: engine.NewPlanNode(processorKey).
				WithEventsInput(engine.EventsBufferKey(0)),
			expected: engine.ErrEventsBufferNotFound,
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			err := controller.SendRenderPlan([]engine.PlanNode{test.planNode}, nil, nil, nil, nil)
			assert.ErrorIs(t, err, test.expected)
		})
	}
}

func TestSendRenderPlanChannelFull(t *testing.T) {
	e := engine.New(engine.WithRingBufferCapacity(1))
	controller, renderer := e.Split()
	log := &mock.Log{}
	processorKey := controller.AddProcessor(mock.NewProcessor("source", log, mock.SourceDescriptor()))

	planNodes := []engine.PlanNode{engine.NewPlanNode(processorKey)}
	require.NoError(t, controller.SendRenderPlan(planNodes, nil, nil, nil, nil))

	err := controller.SendRenderPlan(planNodes, nil, nil, nil, nil)
	assert.ErrorIs(t, err, engine.ErrSendFailure)

	// once the renderer drains the channel the send succeeds again
	renderer.Render(64)
	assert.NoError(t, controller.SendRenderPlan(planNodes, nil, nil, nil, nil))
}

func TestSetParameterValue(t *testing.T) {
	e := engine.New()
	controller, _ := e.Split()

	keys := controller.AddParameters([]float32{0.25, 0.5})
	require.Len(t, keys, 2)

	require.NoError(t, controller.SetParameterValue(keys[1], 0.75))

	var stale engine.ParamKey
	assert.ErrorIs(t, controller.SetParameterValue(stale, 1), engine.ErrParamValueNotFound)
}

func TestProcessMessagesReleasesRetiredPlans(t *testing.T) {
	e := engine.New()
	controller, renderer := e.Split()
	log := &mock.Log{}
	processorKey := controller.AddProcessor(mock.NewProcessor("source", log, mock.SourceDescriptor()))

	for i := 0; i < 4; i++ {
		planNodes := []engine.PlanNode{engine.NewPlanNode(processorKey)}
		require.NoError(t, controller.SendRenderPlan(planNodes, nil, nil, nil, nil))
		renderer.Render(64)
		controller.ProcessMessages()
	}
	assert.Len(t, log.Entries, 4)
}
