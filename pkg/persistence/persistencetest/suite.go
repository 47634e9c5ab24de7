// Package persistencetest holds the behaviour every persistence
// implementation must share, run against each one from its own tests.
package persistencetest

import (
	"testing"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store; cleanup is registered on t.
type Factory func(t *testing.T) persistence.Persistence

var base = time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

// SampleGraph returns a two node graph.
func SampleGraph(id string) *models.FlowGraph {
	return &models.FlowGraph{
		ID: id,
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeScheduleTrigger, Config: map[string]any{"schedule": "daily"}},
			{ID: "out", Type: models.NodeTypeOutput, Label: "Result"},
		},
		Edges: []*models.Edge{{ID: "e1", From: "trigger", To: "out"}},
	}
}

// SampleRun returns a pending run created at createdAt.
func SampleRun(id string, createdAt time.Time) *models.Run {
	return &models.Run{
		ID:             id,
		AgentID:        "agent-1",
		AgentVersionID: "version-1",
		WorkspaceID:    "ws-1",
		TriggerType:    models.TriggerTypeSchedule,
		TriggerPayload: map[string]any{"source": "test"},
		Status:         models.RunStatusPending,
		CreatedAt:      createdAt,
	}
}

func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("runs", func(t *testing.T) { testRuns(t, factory(t)) })
	t.Run("run exists", func(t *testing.T) { testRunExists(t, factory(t)) })
	t.Run("run nodes", func(t *testing.T) { testRunNodes(t, factory(t)) })
	t.Run("agents", func(t *testing.T) { testAgents(t, factory(t)) })
	t.Run("flow graphs", func(t *testing.T) { testFlowGraphs(t, factory(t)) })
}

func testRuns(t *testing.T, store persistence.Persistence) {
	ctx := t.Context()

	_, err := store.RunByID(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrRunNotFound)

	run := SampleRun("run-1", base)
	require.NoError(t, store.CreateRun(ctx, run))

	got, err := store.RunByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, got.Status)
	assert.Equal(t, models.TriggerTypeSchedule, got.TriggerType)
	assert.Equal(t, "test", got.TriggerPayload["source"])
	assert.True(t, base.Equal(got.CreatedAt))
	assert.Nil(t, got.StartedAt)

	started := base.Add(time.Second)
	require.NoError(t, store.UpdateRunStatus(ctx, "run-1", models.RunStatusUpdate{
		Status:    models.RunStatusRunning,
		StartedAt: &started,
	}))

	finished := base.Add(2 * time.Second)
	require.NoError(t, store.UpdateRunStatus(ctx, "run-1", models.RunStatusUpdate{
		Status:       models.RunStatusFailed,
		FinishedAt:   &finished,
		ErrorMessage: "Run failed: boom",
	}))

	got, err = store.RunByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "Run failed: boom", got.ErrorMessage)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, started.Equal(*got.StartedAt), "started_at kept across updates")
	assert.True(t, finished.Equal(*got.FinishedAt))

	err = store.UpdateRunStatus(ctx, "missing", models.RunStatusUpdate{Status: models.RunStatusRunning})
	require.ErrorIs(t, err, persistence.ErrRunNotFound)
}

func testRunExists(t *testing.T, store persistence.Persistence) {
	ctx := t.Context()

	require.NoError(t, store.CreateRun(ctx, SampleRun("run-1", base)))

	manual := SampleRun("run-2", base.Add(48*time.Hour))
	manual.TriggerType = models.TriggerTypeManual
	require.NoError(t, store.CreateRun(ctx, manual))

	day := models.RunFilter{
		AgentID:        "agent-1",
		AgentVersionID: "version-1",
		TriggerType:    models.TriggerTypeSchedule,
		CreatedFrom:    base.Truncate(24 * time.Hour),
		CreatedTo:      base.Truncate(24 * time.Hour).Add(24 * time.Hour),
	}

	exists, err := store.RunExists(ctx, day)
	require.NoError(t, err)
	assert.True(t, exists)

	nextDay := day
	nextDay.CreatedFrom = day.CreatedTo
	nextDay.CreatedTo = day.CreatedTo.Add(24 * time.Hour)

	exists, err = store.RunExists(ctx, nextDay)
	require.NoError(t, err)
	assert.False(t, exists)

	otherVersion := day
	otherVersion.AgentVersionID = "version-2"

	exists, err = store.RunExists(ctx, otherVersion)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.RunExists(ctx, models.RunFilter{TriggerType: models.TriggerTypeManual})
	require.NoError(t, err)
	assert.True(t, exists)
}

func testRunNodes(t *testing.T, store persistence.Persistence) {
	ctx := t.Context()

	require.NoError(t, store.CreateRun(ctx, SampleRun("run-1", base)))

	first := base.Add(time.Second)
	second := base.Add(2 * time.Second)

	nodes := []*models.RunNode{
		{
			ID:        "rn-1",
			RunID:     "run-1",
			NodeID:    "trigger",
			NodeType:  models.NodeTypeScheduleTrigger,
			Status:    models.RunNodeStatusRunning,
			Input:     map[string]any{"schedule": "daily"},
			StartedAt: &first,
		},
		{
			ID:        "rn-2",
			RunID:     "run-1",
			NodeID:    "out",
			NodeType:  models.NodeTypeOutput,
			Status:    models.RunNodeStatusRunning,
			StartedAt: &second,
		},
	}

	// Inserted out of order; the trace comes back by start time.
	require.NoError(t, store.CreateRunNode(ctx, nodes[1]))
	require.NoError(t, store.CreateRunNode(ctx, nodes[0]))

	finished := base.Add(3 * time.Second)
	nodes[0].Status = models.RunNodeStatusSuccess
	nodes[0].Output = map[string]any{"triggered": true}
	nodes[0].FinishedAt = &finished
	require.NoError(t, store.UpdateRunNode(ctx, nodes[0]))

	trace, err := store.RunNodes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trace, 2)

	assert.Equal(t, "trigger", trace[0].NodeID)
	assert.Equal(t, models.RunNodeStatusSuccess, trace[0].Status)
	assert.Equal(t, true, trace[0].Output["triggered"])
	assert.Equal(t, "daily", trace[0].Input["schedule"])
	require.NotNil(t, trace[0].FinishedAt)
	assert.True(t, finished.Equal(*trace[0].FinishedAt))

	assert.Equal(t, "out", trace[1].NodeID)
	assert.Equal(t, models.RunNodeStatusRunning, trace[1].Status)
	assert.Nil(t, trace[1].FinishedAt)

	empty, err := store.RunNodes(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)

	err = store.UpdateRunNode(ctx, &models.RunNode{ID: "missing", RunID: "run-1", Status: models.RunNodeStatusFailed})
	require.ErrorIs(t, err, persistence.ErrRunNodeNotFound)
}

func testAgents(t *testing.T, store persistence.Persistence) {
	ctx := t.Context()

	_, err := store.AgentByID(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrAgentNotFound)

	active := &models.Agent{
		ID:              "agent-1",
		WorkspaceID:     "ws-1",
		Name:            "Squeeze watcher",
		ActiveVersionID: "version-1",
		FlowGraphID:     "graph-1",
		CreatedAt:       base,
		UpdatedAt:       base,
	}
	inactive := &models.Agent{ID: "agent-2", WorkspaceID: "ws-1", Name: "Draft", CreatedAt: base.Add(time.Minute), UpdatedAt: base}

	require.NoError(t, store.SaveAgent(ctx, active))
	require.NoError(t, store.SaveAgent(ctx, inactive))

	agents, err := store.ActiveAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "agent-1", agents[0].ID)
	assert.Equal(t, "graph-1", agents[0].FlowGraphID)

	active.ActiveVersionID = "version-2"
	active.Name = "Renamed"
	require.NoError(t, store.SaveAgent(ctx, active))

	got, err := store.AgentByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "version-2", got.ActiveVersionID)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, base.Equal(got.CreatedAt))
}

func testFlowGraphs(t *testing.T, store persistence.Persistence) {
	ctx := t.Context()

	_, err := store.FlowGraphByID(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrFlowGraphNotFound)

	graph := SampleGraph("graph-1")
	require.NoError(t, store.SaveFlowGraph(ctx, graph))

	got, err := store.FlowGraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Equal(t, graph, got)

	graph.Nodes[1].Label = "Final"
	require.NoError(t, store.SaveFlowGraph(ctx, graph))

	got, err = store.FlowGraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Nodes[1].Label)
}
