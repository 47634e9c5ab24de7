// Package persistence defines the storage capabilities used by the engine.
package persistence

import (
	"context"

	"github.com/dukex/flowrun/pkg/models"
)

type RunRepository interface {
	CreateRun(ctx context.Context, run *models.Run) error
	RunByID(ctx context.Context, id string) (*models.Run, error)
	UpdateRunStatus(ctx context.Context, id string, update models.RunStatusUpdate) error
	// RunExists reports whether a run matching filter was created.
	RunExists(ctx context.Context, filter models.RunFilter) (bool, error)
}

type RunNodeRepository interface {
	CreateRunNode(ctx context.Context, runNode *models.RunNode) error
	UpdateRunNode(ctx context.Context, runNode *models.RunNode) error
	// RunNodes returns the trace of a run ordered by start time.
	RunNodes(ctx context.Context, runID string) ([]*models.RunNode, error)
}

type AgentRepository interface {
	SaveAgent(ctx context.Context, agent *models.Agent) error
	AgentByID(ctx context.Context, id string) (*models.Agent, error)
	// ActiveAgents returns the agents with an active version.
	ActiveAgents(ctx context.Context) ([]*models.Agent, error)
}

type FlowGraphRepository interface {
	SaveFlowGraph(ctx context.Context, graph *models.FlowGraph) error
	FlowGraphByID(ctx context.Context, id string) (*models.FlowGraph, error)
}

type Persistence interface {
	RunRepository
	RunNodeRepository
	AgentRepository
	FlowGraphRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
