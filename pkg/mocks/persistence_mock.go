// Package mocks provides testify mocks of the engine's capabilities.
package mocks

import (
	"context"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func (m *MockPersistence) CreateRun(ctx context.Context, run *models.Run) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockPersistence) RunByID(ctx context.Context, id string) (*models.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Run), args.Error(1)
}

func (m *MockPersistence) UpdateRunStatus(ctx context.Context, id string, update models.RunStatusUpdate) error {
	args := m.Called(ctx, id, update)

	return args.Error(0)
}

func (m *MockPersistence) RunExists(ctx context.Context, filter models.RunFilter) (bool, error) {
	args := m.Called(ctx, filter)

	return args.Bool(0), args.Error(1)
}

func (m *MockPersistence) CreateRunNode(ctx context.Context, runNode *models.RunNode) error {
	args := m.Called(ctx, runNode)

	return args.Error(0)
}

func (m *MockPersistence) UpdateRunNode(ctx context.Context, runNode *models.RunNode) error {
	args := m.Called(ctx, runNode)

	return args.Error(0)
}

func (m *MockPersistence) RunNodes(ctx context.Context, runID string) ([]*models.RunNode, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.RunNode), args.Error(1)
}

func (m *MockPersistence) SaveAgent(ctx context.Context, agent *models.Agent) error {
	args := m.Called(ctx, agent)

	return args.Error(0)
}

func (m *MockPersistence) AgentByID(ctx context.Context, id string) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockPersistence) ActiveAgents(ctx context.Context) ([]*models.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Agent), args.Error(1)
}

func (m *MockPersistence) SaveFlowGraph(ctx context.Context, graph *models.FlowGraph) error {
	args := m.Called(ctx, graph)

	return args.Error(0)
}

func (m *MockPersistence) FlowGraphByID(ctx context.Context, id string) (*models.FlowGraph, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FlowGraph), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
