// Package runlog persists the per-node execution trace of runs.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/redact"
	"github.com/google/uuid"
)

// Handle identifies a started node execution.
type Handle struct {
	ID        string
	RunID     string
	NodeID    string
	NodeType  models.NodeType
	StartedAt time.Time
}

type Option func(*Logger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Logger) {
		l.newID = newID
	}
}

// Logger writes redacted run node records.
type Logger struct {
	repository persistence.RunNodeRepository
	now        func() time.Time
	newID      func() string
}

func New(repository persistence.RunNodeRepository, opts ...Option) *Logger {
	logger := &Logger{
		repository: repository,
		now:        time.Now,
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(logger)
	}

	return logger
}

// LogNodeStart records a running entry with the redacted input.
func (l *Logger) LogNodeStart(ctx context.Context, runID, nodeID string, nodeType models.NodeType, input map[string]any) (*Handle, error) {
	handle := &Handle{
		ID:        l.newID(),
		RunID:     runID,
		NodeID:    nodeID,
		NodeType:  nodeType,
		StartedAt: l.now(),
	}

	startedAt := handle.StartedAt

	err := l.repository.CreateRunNode(ctx, &models.RunNode{
		ID:        handle.ID,
		RunID:     runID,
		NodeID:    nodeID,
		NodeType:  nodeType,
		Status:    models.RunNodeStatusRunning,
		Input:     redact.Payload(input),
		StartedAt: &startedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log start of node %s: %w", nodeID, err)
	}

	return handle, nil
}

// LogNodeSuccess completes the entry with the redacted output.
func (l *Logger) LogNodeSuccess(ctx context.Context, handle *Handle, output map[string]any) error {
	return l.finish(ctx, handle, models.RunNodeStatusSuccess, redact.Payload(output), "")
}

// LogNodeFailure completes the entry with the redacted error message.
func (l *Logger) LogNodeFailure(ctx context.Context, handle *Handle, message string) error {
	return l.finish(ctx, handle, models.RunNodeStatusFailed, nil, redact.Message(message))
}

// LogNodeSkip marks the entry as skipped.
func (l *Logger) LogNodeSkip(ctx context.Context, handle *Handle) error {
	return l.finish(ctx, handle, models.RunNodeStatusSkipped, nil, "")
}

func (l *Logger) finish(ctx context.Context, handle *Handle, status models.RunNodeStatus, output map[string]any, message string) error {
	finishedAt := l.now()

	err := l.repository.UpdateRunNode(ctx, &models.RunNode{
		ID:           handle.ID,
		RunID:        handle.RunID,
		NodeID:       handle.NodeID,
		NodeType:     handle.NodeType,
		Status:       status,
		Output:       output,
		ErrorMessage: message,
		FinishedAt:   &finishedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to log %s of node %s: %w", status, handle.NodeID, err)
	}

	return nil
}

// Trace returns the persisted entries of a run.
func (l *Logger) Trace(ctx context.Context, runID string) ([]*models.RunNode, error) {
	return l.repository.RunNodes(ctx, runID)
}
