package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/protocol"
)

// ScheduleFactory creates schedule trigger nodes.
type ScheduleFactory struct {
	now nodes.Clock
}

func NewScheduleFactory() protocol.NodeFactory {
	return &ScheduleFactory{now: time.Now}
}

func (f *ScheduleFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	scheduleConfig, ok := config.(*models.ScheduleTriggerConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	if scheduleConfig.Schedule != nil {
		if _, err := models.ParseSchedule(scheduleConfig.Schedule); err != nil {
			return nil, err
		}
	}

	return NewScheduleNode(scheduleConfig, f.now), nil
}

func (f *ScheduleFactory) ID() models.NodeType {
	return models.NodeTypeScheduleTrigger
}

func (f *ScheduleFactory) Name() string {
	return "Schedule Trigger"
}

func (f *ScheduleFactory) Description() string {
	return "Starts the flow at matching wall-clock times"
}

func (f *ScheduleFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"schedule": map[string]any{
				"description": `"daily", "hourly", a cron expression, or {hour, minute, days}`,
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{
						"type": "object",
						"properties": map[string]any{
							"hour":   map[string]any{"type": "integer", "minimum": 0, "maximum": 23},
							"minute": map[string]any{"type": "integer", "minimum": 0, "maximum": 59},
							"days": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "integer", "minimum": 0, "maximum": 6},
							},
						},
					},
				},
				"examples": []any{"daily", "hourly", "0 9 * * 1-5", map[string]any{"hour": 9, "minute": 30}},
			},
		},
	}
}

// WebhookFactory creates webhook trigger nodes.
type WebhookFactory struct {
	now nodes.Clock
}

func NewWebhookFactory() protocol.NodeFactory {
	return &WebhookFactory{now: time.Now}
}

func (f *WebhookFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	if _, err := models.DecodeConfig(node); err != nil {
		return nil, err
	}

	return NewWebhookNode(f.now), nil
}

func (f *WebhookFactory) ID() models.NodeType {
	return models.NodeTypeWebhookTrigger
}

func (f *WebhookFactory) Name() string {
	return "Webhook Trigger"
}

func (f *WebhookFactory) Description() string {
	return "Starts the flow when its webhook receives a request"
}

func (f *WebhookFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"secret": map[string]any{
				"type":        "string",
				"description": "Shared secret expected in the X-Webhook-Secret header",
			},
		},
	}
}
