package web

import (
	"github.com/dukex/flowrun/pkg/models"
)

// TriggerRunRequest is the optional body of a manual trigger.
type TriggerRunRequest struct {
	TriggerPayload map[string]any `json:"triggerPayload,omitempty"`
}

type pathParams struct {
	ID string `validate:"required,max=128,printascii"`
}

type TriggerRunResponse struct {
	Run *models.Run `json:"run"`
}

// WebhookResponse acknowledges a webhook; the run executes asynchronously.
type WebhookResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

type NodeTypeResponse struct {
	ID          models.NodeType `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      map[string]any  `json:"schema"`
}

type RunNodesResponse struct {
	Nodes []*models.RunNode `json:"nodes"`
}
