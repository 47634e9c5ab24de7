package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowrun/pkg/mocks"
	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence/file"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeAgent() *models.Agent {
	return &models.Agent{
		ID:              "agent-1",
		WorkspaceID:     "ws-1",
		Name:            "Squeeze watcher",
		ActiveVersionID: "v1",
		FlowGraphID:     "graph-1",
	}
}

func newRuns(t *testing.T) (*Runs, *file.Persistence, *queue.Memory) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	jobs := queue.NewMemory()

	runs := NewRuns(discard(), store, jobs,
		WithClock(func() time.Time { return createdAt }),
		WithIDGenerator(func() string { return "run-1" }),
	)

	return runs, store, jobs
}

func TestRuns_Create(t *testing.T) {
	runs, store, jobs := newRuns(t)

	run, err := runs.Create(t.Context(), activeAgent(), models.TriggerTypeManual, map[string]any{"ticker": "GME"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, "v1", run.AgentVersionID)
	assert.Equal(t, createdAt, run.CreatedAt)

	stored, err := store.RunByID(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.TriggerTypeManual, stored.TriggerType)
	assert.Equal(t, "GME", stored.TriggerPayload["ticker"])

	job, err := jobs.Dequeue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &models.RunJob{
		RunID:          "run-1",
		AgentID:        "agent-1",
		AgentVersionID: "v1",
		WorkspaceID:    "ws-1",
		FlowGraphID:    "graph-1",
		TriggerType:    models.TriggerTypeManual,
		TriggerPayload: map[string]any{"ticker": "GME"},
		Attempt:        1,
	}, job)
}

func TestRuns_CreateRejects(t *testing.T) {
	runs, _, jobs := newRuns(t)

	inactive := activeAgent()
	inactive.ActiveVersionID = ""

	_, err := runs.Create(t.Context(), inactive, models.TriggerTypeManual, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAgentInactive)
	assert.True(t, IsConflictError(err))

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "AGENT_INACTIVE", serviceErr.Code)

	_, err = runs.Create(t.Context(), activeAgent(), "email", nil)
	assert.ErrorIs(t, err, ErrInvalidTriggerType)
	assert.True(t, IsValidationError(err))

	assert.Equal(t, 0, jobs.Len())
}

func TestRuns_Trigger(t *testing.T) {
	runs, store, _ := newRuns(t)

	require.NoError(t, store.SaveAgent(t.Context(), activeAgent()))

	run, err := runs.Trigger(t.Context(), "agent-1", models.TriggerTypeWebhook, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerTypeWebhook, run.TriggerType)
	assert.Equal(t, map[string]any{}, run.TriggerPayload)

	_, err = runs.Trigger(t.Context(), "missing", models.TriggerTypeManual, nil)
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestRuns_Get(t *testing.T) {
	runs, store, _ := newRuns(t)

	_, err := runs.Create(t.Context(), activeAgent(), models.TriggerTypeManual, nil)
	require.NoError(t, err)

	require.NoError(t, store.CreateRunNode(t.Context(), &models.RunNode{
		ID:        "rn-1",
		RunID:     "run-1",
		NodeID:    "trigger",
		NodeType:  models.NodeTypeScheduleTrigger,
		Status:    models.RunNodeStatusSuccess,
		StartedAt: &createdAt,
	}))

	got, err := runs.Get(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "trigger", got.Nodes[0].NodeID)

	_, err = runs.Get(t.Context(), "missing")
	assert.True(t, IsNotFoundError(err))
}

func TestRuns_EnqueueFailureMarksRunFailed(t *testing.T) {
	store := &mocks.MockPersistence{}
	jobs := &mocks.MockQueue{}

	store.On("CreateRun", mock.Anything, mock.AnythingOfType("*models.Run")).Return(nil)
	jobs.On("Enqueue", mock.Anything, mock.AnythingOfType("*models.RunJob")).Return(errors.New("redis down"))
	store.On("UpdateRunStatus", mock.Anything, "run-1", mock.MatchedBy(func(update models.RunStatusUpdate) bool {
		return update.Status == models.RunStatusFailed && update.ErrorMessage != ""
	})).Return(nil)

	runs := NewRuns(discard(), store, jobs, WithIDGenerator(func() string { return "run-1" }))

	_, err := runs.Create(t.Context(), activeAgent(), models.TriggerTypeSchedule, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")

	store.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestRuns_HealthCheck(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("connection refused")).Once()
	store.On("HealthCheck", mock.Anything).Return(nil).Once()

	runs := NewRuns(discard(), store, queue.NewMemory())

	message, ok := runs.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer is unhealthy: connection refused", message)

	message, ok = runs.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)
}
