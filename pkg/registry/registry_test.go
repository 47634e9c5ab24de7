package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes/output"
	"github.com/dukex/flowrun/pkg/nodes/transform"
	"github.com/dukex/flowrun/pkg/nodes/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	registry := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	registry.Register(trigger.NewScheduleFactory())
	registry.Register(transform.NewFactory())
	registry.Register(output.NewFactory())

	return registry
}

func TestRegistry_Handler(t *testing.T) {
	registry := newTestRegistry()

	handler, err := registry.Handler(context.Background(), &models.Node{ID: "out", Type: models.NodeTypeOutput})
	require.NoError(t, err)

	result, err := handler.Execute(context.Background(), map[string]any{"a": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, result["completed"])
}

func TestRegistry_HandlerNotFound(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.Handler(context.Background(), &models.Node{ID: "x", Type: "tool.fax"})
	require.ErrorIs(t, err, ErrHandlerNotFound)
	assert.EqualError(t, err, "No handler found for node type: tool.fax")
}

func TestRegistry_HandlerCreateError(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.Handler(context.Background(), &models.Node{
		ID:     "sched",
		Type:   models.NodeTypeScheduleTrigger,
		Config: map[string]any{"schedule": "every tuesday"},
	})
	require.ErrorIs(t, err, models.ErrInvalidSchedule)
	assert.Contains(t, err.Error(), "node sched")
}

func TestRegistry_TypesSorted(t *testing.T) {
	registry := newTestRegistry()

	assert.Equal(t, []models.NodeType{
		models.NodeTypeOutput,
		models.NodeTypeTransform,
		models.NodeTypeScheduleTrigger,
	}, registry.Types())
	assert.Len(t, registry.Factories(), 3)

	factory, ok := registry.Factory(models.NodeTypeTransform)
	require.True(t, ok)
	assert.Equal(t, models.NodeTypeTransform, factory.ID())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(output.NewFactory())

	assert.Len(t, registry.Types(), 3)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.ValidateConfig(&models.Node{
		ID:     "t",
		Type:   models.NodeTypeTransform,
		Config: map[string]any{"type": models.TransformSqueezeScore},
	}))

	err := registry.ValidateConfig(&models.Node{
		ID:     "t",
		Type:   models.NodeTypeTransform,
		Config: map[string]any{"type": "shuffle"},
	})
	require.ErrorIs(t, err, ErrInvalidNodeConfig)
	assert.Contains(t, err.Error(), "node t")
}

func TestRegistry_ValidateGraph(t *testing.T) {
	registry := newTestRegistry()

	valid := &models.FlowGraph{
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeScheduleTrigger, Config: map[string]any{"schedule": "daily"}},
			{ID: "score", Type: models.NodeTypeTransform, Config: map[string]any{"type": models.TransformSqueezeScore}},
			{ID: "out", Type: models.NodeTypeOutput},
		},
		Edges: []*models.Edge{
			{From: "trigger", To: "score"},
			{From: "score", To: "out"},
		},
	}
	require.NoError(t, registry.ValidateGraph(valid))

	cyclic := &models.FlowGraph{
		Nodes: valid.Nodes,
		Edges: append([]*models.Edge{{From: "out", To: "score"}}, valid.Edges...),
	}
	require.ErrorIs(t, registry.ValidateGraph(cyclic), models.ErrCyclicGraph)

	unknown := &models.FlowGraph{Nodes: []*models.Node{{ID: "x", Type: "tool.fax"}}}
	require.ErrorIs(t, registry.ValidateGraph(unknown), ErrHandlerNotFound)
}
