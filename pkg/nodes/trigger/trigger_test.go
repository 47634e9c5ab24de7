package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/runctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }

func TestScheduleNode_Execute(t *testing.T) {
	node := NewScheduleNode(&models.ScheduleTriggerConfig{Schedule: "daily"}, fixedNow)

	output, err := node.Execute(context.Background(), map[string]any{}, runctx.New("run", "ws"))
	require.NoError(t, err)

	assert.Equal(t, true, output["triggered"])
	assert.Equal(t, "daily", output["schedule"])
	assert.Equal(t, "2025-06-02T09:00:00.000Z", output["timestamp"])
}

func TestScheduleNode_DefaultsToManual(t *testing.T) {
	node := NewScheduleNode(&models.ScheduleTriggerConfig{}, fixedNow)

	output, err := node.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "manual", output["schedule"])
}

func TestScheduleFactory_RejectsInvalidSchedule(t *testing.T) {
	factory := NewScheduleFactory()

	_, err := factory.Create(context.Background(), &models.Node{
		ID:     "t",
		Type:   models.NodeTypeScheduleTrigger,
		Config: map[string]any{"schedule": map[string]any{"hour": 30}},
	})
	assert.ErrorIs(t, err, models.ErrInvalidSchedule)

	handler, err := factory.Create(context.Background(), &models.Node{
		ID:     "t",
		Type:   models.NodeTypeScheduleTrigger,
		Config: map[string]any{"schedule": "hourly"},
	})
	require.NoError(t, err)
	assert.NotNil(t, handler)
}

func TestWebhookNode_Execute(t *testing.T) {
	node := NewWebhookNode(fixedNow)

	t.Run("input payload wins", func(t *testing.T) {
		rc := runctx.New("run", "ws")
		rc.SetGlobalVar(runctx.VarTriggerPayload, map[string]any{"from": "run"})

		output, err := node.Execute(context.Background(), map[string]any{"payload": map[string]any{"from": "input"}}, rc)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"from": "input"}, output["payload"])
	})

	t.Run("falls back to trigger payload", func(t *testing.T) {
		rc := runctx.New("run", "ws")
		rc.SetGlobalVar(runctx.VarTriggerPayload, map[string]any{"from": "run"})

		output, err := node.Execute(context.Background(), map[string]any{}, rc)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"from": "run"}, output["payload"])
	})

	t.Run("empty payload", func(t *testing.T) {
		output, err := node.Execute(context.Background(), map[string]any{}, runctx.New("run", "ws"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{}, output["payload"])
		assert.Equal(t, true, output["triggered"])
	})
}
