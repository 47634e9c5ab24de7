// Package events defines the run lifecycle notifications published by workers.
package events

import (
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every run event.
const Topic = "flowrun.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunSucceededEvent      EventType = "run.succeeded"
	RunFailedEvent         EventType = "run.failed"
	RunRetryScheduledEvent EventType = "run.retry_scheduled"
)

type BaseEvent struct {
	ID          string             `json:"id"`
	Type        EventType          `json:"type"`
	Timestamp   time.Time          `json:"timestamp"`
	RunID       string             `json:"run_id"`
	AgentID     string             `json:"agent_id"`
	WorkspaceID string             `json:"workspace_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	Attempt     int                `json:"attempt"`
	WorkerID    string             `json:"worker_id,omitempty"`
}

type RunSucceeded struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e RunSucceeded) GetType() EventType {
	return RunSucceededEvent
}

// RunFailed is published once a run has failed for good.
type RunFailed struct {
	BaseEvent

	Error     string        `json:"error"`
	Kind      string        `json:"kind"`
	Retryable bool          `json:"retryable"`
	Duration  time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunRetryScheduled struct {
	BaseEvent

	Error       string        `json:"error"`
	NextAttempt int           `json:"next_attempt"`
	Delay       time.Duration `json:"delay"`
}

func (e RunRetryScheduled) GetType() EventType {
	return RunRetryScheduledEvent
}

// NewBaseEvent fills the common fields of an event about job.
func NewBaseEvent(eventType EventType, job *models.RunJob) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		RunID:       job.RunID,
		AgentID:     job.AgentID,
		WorkspaceID: job.WorkspaceID,
		TriggerType: job.TriggerType,
		Attempt:     job.Attempt,
	}
}
