package trigger

import (
	"context"

	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

// WebhookNode exposes the payload that started the run.
type WebhookNode struct {
	now nodes.Clock
}

func NewWebhookNode(now nodes.Clock) *WebhookNode {
	return &WebhookNode{now: now}
}

// Execute prefers an explicit payload field of the input and falls back to the
// trigger payload stored on the run context.
func (n *WebhookNode) Execute(_ context.Context, input map[string]any, rc *runctx.RunContext) (map[string]any, error) {
	var payload any = map[string]any{}

	if value, ok := input["payload"]; ok && nodes.Truthy(value) {
		payload = value
	} else if rc != nil {
		if value, ok := rc.GlobalVar(runctx.VarTriggerPayload); ok && value != nil {
			payload = value
		}
	}

	return map[string]any{
		"triggered": true,
		"payload":   payload,
		"timestamp": nodes.Timestamp(n.now()),
	}, nil
}
