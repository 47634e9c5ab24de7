// Package trigger provides the entry nodes started by the scheduler and by webhooks.
package trigger

import (
	"context"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

// ScheduleNode marks the start of a scheduled run. Matching the schedule is
// the scheduler's job; at execution time the node only reports it.
type ScheduleNode struct {
	schedule any
	now      nodes.Clock
}

func NewScheduleNode(config *models.ScheduleTriggerConfig, now nodes.Clock) *ScheduleNode {
	return &ScheduleNode{schedule: config.Schedule, now: now}
}

func (n *ScheduleNode) Execute(_ context.Context, _ map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	schedule := n.schedule
	if !nodes.Truthy(schedule) {
		schedule = string(models.ScheduleManual)
	}

	return map[string]any{
		"triggered": true,
		"schedule":  schedule,
		"timestamp": nodes.Timestamp(n.now()),
	}, nil
}
