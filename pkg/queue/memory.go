package queue

import (
	"context"
	"sync"

	"github.com/dukex/flowrun/pkg/models"
)

// Memory is an unbounded FIFO queue living in process memory.
type Memory struct {
	mu     sync.Mutex
	jobs   []*models.RunJob
	notify chan struct{}
	done   chan struct{}
	closed bool
}

var _ Queue = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (q *Memory) Enqueue(_ context.Context, job *models.RunJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.jobs = append(q.jobs, job)
	q.signal()

	return nil
}

func (q *Memory) Dequeue(ctx context.Context) (*models.RunJob, error) {
	for {
		q.mu.Lock()

		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]

			if len(q.jobs) > 0 {
				q.signal()
			}

			q.mu.Unlock()

			return job, nil
		}

		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
		case <-q.notify:
		}
	}
}

// Len returns the number of waiting jobs.
func (q *Memory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs)
}

// Close wakes blocked consumers. Jobs still queued remain dequeueable.
func (q *Memory) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.done)
	}

	return nil
}

// signal must be called with mu held.
func (q *Memory) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
