// Package queue carries run jobs from intake to workers.
package queue

import (
	"context"
	"errors"

	"github.com/dukex/flowrun/pkg/models"
)

// Name is the queue key shared by producers and workers.
const Name = "agent-runs"

// ErrClosed is returned by operations on a closed queue.
var ErrClosed = errors.New("queue closed")

type Queue interface {
	Enqueue(ctx context.Context, job *models.RunJob) error
	// Dequeue blocks until a job is available, ctx is done or the queue is closed.
	Dequeue(ctx context.Context) (*models.RunJob, error)
	Close() error
}
