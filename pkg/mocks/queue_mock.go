package mocks

import (
	"context"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/stretchr/testify/mock"
)

// MockQueue is a mock implementation of queue.Queue.
type MockQueue struct {
	mock.Mock
}

var _ queue.Queue = (*MockQueue)(nil)

func (m *MockQueue) Enqueue(ctx context.Context, job *models.RunJob) error {
	args := m.Called(ctx, job)

	return args.Error(0)
}

func (m *MockQueue) Dequeue(ctx context.Context) (*models.RunJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RunJob), args.Error(1)
}

func (m *MockQueue) Close() error {
	args := m.Called()

	return args.Error(0)
}
