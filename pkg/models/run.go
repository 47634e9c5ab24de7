package models

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunNodeStatus is the lifecycle state of one node execution inside a run.
type RunNodeStatus string

const (
	RunNodeStatusPending RunNodeStatus = "pending"
	RunNodeStatusRunning RunNodeStatus = "running"
	RunNodeStatusSuccess RunNodeStatus = "success"
	RunNodeStatusFailed  RunNodeStatus = "failed"
	RunNodeStatusSkipped RunNodeStatus = "skipped"
)

// TriggerType tells what created a run.
type TriggerType string

const (
	TriggerTypeManual   TriggerType = "manual"
	TriggerTypeSchedule TriggerType = "schedule"
	TriggerTypeWebhook  TriggerType = "webhook"
)

// Run is one execution instance of an agent's active flow graph.
type Run struct {
	ID             string         `json:"id"`
	AgentID        string         `json:"agent_id"                  validate:"required"`
	AgentVersionID string         `json:"agent_version_id"          validate:"required"`
	WorkspaceID    string         `json:"workspace_id"              validate:"required"`
	TriggerType    TriggerType    `json:"trigger_type"              validate:"required,oneof=manual schedule webhook"`
	TriggerPayload map[string]any `json:"trigger_payload"`
	Status         RunStatus      `json:"status"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RunStatusUpdate carries the fields the executor mutates on a run.
// Nil timestamps leave the stored value untouched.
type RunStatusUpdate struct {
	Status       RunStatus
	StartedAt    *time.Time
	FinishedAt   *time.Time
	ErrorMessage string
}

// Apply copies the update onto run.
func (u RunStatusUpdate) Apply(run *Run) {
	run.Status = u.Status
	run.ErrorMessage = u.ErrorMessage

	if u.StartedAt != nil {
		run.StartedAt = u.StartedAt
	}

	if u.FinishedAt != nil {
		run.FinishedAt = u.FinishedAt
	}
}

// RunFilter selects runs for deduplication checks. Zero-valued fields match anything.
type RunFilter struct {
	AgentID        string
	AgentVersionID string
	TriggerType    TriggerType
	CreatedFrom    time.Time
	CreatedTo      time.Time
}

// Matches reports whether run satisfies the filter.
func (f RunFilter) Matches(run *Run) bool {
	if f.AgentID != "" && run.AgentID != f.AgentID {
		return false
	}

	if f.AgentVersionID != "" && run.AgentVersionID != f.AgentVersionID {
		return false
	}

	if f.TriggerType != "" && run.TriggerType != f.TriggerType {
		return false
	}

	if !f.CreatedFrom.IsZero() && run.CreatedAt.Before(f.CreatedFrom) {
		return false
	}

	if !f.CreatedTo.IsZero() && !run.CreatedAt.Before(f.CreatedTo) {
		return false
	}

	return true
}

// RunNode is the persisted trace of one node execution.
type RunNode struct {
	ID           string         `json:"id"`
	RunID        string         `json:"run_id"`
	NodeID       string         `json:"node_id"`
	NodeType     NodeType       `json:"node_type"`
	Status       RunNodeStatus  `json:"status"`
	Input        map[string]any `json:"input,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

// RunJob is the queue payload asking a worker to execute a run.
type RunJob struct {
	RunID          string         `json:"run_id"`
	AgentID        string         `json:"agent_id"`
	AgentVersionID string         `json:"agent_version_id"`
	WorkspaceID    string         `json:"workspace_id"`
	FlowGraphID    string         `json:"flow_graph_id"`
	TriggerType    TriggerType    `json:"trigger_type"`
	TriggerPayload map[string]any `json:"trigger_payload,omitempty"`
	Attempt        int            `json:"attempt"`
	NotBefore      *time.Time     `json:"not_before,omitempty"`
}

// Agent owns the flow graph that runs execute. Only agents with an active
// version are picked up by the scheduler.
type Agent struct {
	ID              string    `json:"id"                          validate:"required"`
	WorkspaceID     string    `json:"workspace_id"                validate:"required"`
	Name            string    `json:"name"                        validate:"required"`
	ActiveVersionID string    `json:"active_version_id,omitempty"`
	FlowGraphID     string    `json:"flow_graph_id,omitempty"     validate:"required_with=ActiveVersionID"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsActive reports whether the agent has an active version.
func (a *Agent) IsActive() bool {
	return a.ActiveVersionID != ""
}
