package cmd

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/queue"
	"github.com/dukex/flowrun/pkg/queue/redisqueue"
)

// NewQueue builds the run queue: memory:// (or empty) keeps jobs in process,
// redis:// and rediss:// share them between processes.
func NewQueue(ctx context.Context, queueURL string) (queue.Queue, error) {
	switch provider := parseProvider(queueURL); provider {
	case "", "memory":
		return queue.NewMemory(), nil
	case "redis", "rediss":
		return redisqueue.NewFromURL(ctx, queueURL)
	default:
		return nil, fmt.Errorf("%w: queue %s", ErrUnsupportedProvider, provider)
	}
}
