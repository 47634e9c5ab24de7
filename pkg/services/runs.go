package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/google/uuid"
)

type RunsOption func(*Runs)

// WithClock replaces time.Now for run creation timestamps.
func WithClock(now func() time.Time) RunsOption {
	return func(r *Runs) {
		r.now = now
	}
}

// WithIDGenerator replaces the uuid run id generator.
func WithIDGenerator(newID func() string) RunsOption {
	return func(r *Runs) {
		r.newID = newID
	}
}

// Runs creates runs and hands them to workers. Manual, webhook and scheduled
// triggers all go through Create.
type Runs struct {
	persistence persistence.Persistence
	queue       queue.Queue
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

func NewRuns(logger *slog.Logger, persistence persistence.Persistence, queue queue.Queue, opts ...RunsOption) *Runs {
	runs := &Runs{
		persistence: persistence,
		queue:       queue,
		logger:      logger.With("module", "runs_service"),
		now:         time.Now,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(runs)
	}

	return runs
}

// Create persists a pending run for the agent's active version and enqueues
// its job.
func (r *Runs) Create(ctx context.Context, agent *models.Agent, triggerType models.TriggerType, payload map[string]any) (*models.Run, error) {
	switch triggerType {
	case models.TriggerTypeManual, models.TriggerTypeSchedule, models.TriggerTypeWebhook:
	default:
		return nil, newError("create_run", "INVALID_TRIGGER_TYPE", string(triggerType), ErrInvalidTriggerType)
	}

	if !agent.IsActive() {
		return nil, newError("create_run", "AGENT_INACTIVE", agent.ID, ErrAgentInactive)
	}

	if payload == nil {
		payload = map[string]any{}
	}

	run := &models.Run{
		ID:             r.newID(),
		AgentID:        agent.ID,
		AgentVersionID: agent.ActiveVersionID,
		WorkspaceID:    agent.WorkspaceID,
		TriggerType:    triggerType,
		TriggerPayload: payload,
		Status:         models.RunStatusPending,
		CreatedAt:      r.now(),
	}

	if err := r.persistence.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	job := &models.RunJob{
		RunID:          run.ID,
		AgentID:        agent.ID,
		AgentVersionID: agent.ActiveVersionID,
		WorkspaceID:    agent.WorkspaceID,
		FlowGraphID:    agent.FlowGraphID,
		TriggerType:    triggerType,
		TriggerPayload: payload,
		Attempt:        1,
	}

	if err := r.queue.Enqueue(ctx, job); err != nil {
		finishedAt := r.now()

		if updateErr := r.persistence.UpdateRunStatus(ctx, run.ID, models.RunStatusUpdate{
			Status:       models.RunStatusFailed,
			FinishedAt:   &finishedAt,
			ErrorMessage: "Run failed: could not enqueue run",
		}); updateErr != nil {
			r.logger.ErrorContext(ctx, "Failed to mark unqueued run failed", "run_id", run.ID, "error", updateErr)
		}

		return nil, fmt.Errorf("failed to enqueue run %s: %w", run.ID, err)
	}

	r.logger.InfoContext(ctx, "Run created",
		"run_id", run.ID,
		"agent_id", agent.ID,
		"trigger_type", triggerType)

	return run, nil
}

// Trigger loads the agent and creates a run for it.
func (r *Runs) Trigger(ctx context.Context, agentID string, triggerType models.TriggerType, payload map[string]any) (*models.Run, error) {
	agent, err := r.persistence.AgentByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent %s: %w", agentID, err)
	}

	return r.Create(ctx, agent, triggerType, payload)
}

// RunWithTrace is a run with its node execution records.
type RunWithTrace struct {
	*models.Run

	Nodes []*models.RunNode `json:"nodes"`
}

// Get returns a run with its trace.
func (r *Runs) Get(ctx context.Context, runID string) (*RunWithTrace, error) {
	run, err := r.persistence.RunByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	nodes, err := r.persistence.RunNodes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trace of run %s: %w", runID, err)
	}

	if nodes == nil {
		nodes = []*models.RunNode{}
	}

	return &RunWithTrace{Run: run, Nodes: nodes}, nil
}

// HealthCheck checks the health of the persistence layer.
func (r *Runs) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}
