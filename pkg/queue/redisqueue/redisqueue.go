// Package redisqueue implements the run queue on a Redis list.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/redis/go-redis/v9"
)

// pollTimeout bounds each BRPOP so a cancelled context is noticed.
const pollTimeout = time.Second

// Queue pushes jobs with LPUSH and pops them with BRPOP, giving FIFO order.
// Jobs are JSON encoded.
type Queue struct {
	client *redis.Client
	key    string
	closed atomic.Bool
}

var _ queue.Queue = (*Queue)(nil)

// New wraps client. An empty key defaults to queue.Name.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = queue.Name
	}

	return &Queue{client: client, key: key}
}

// NewFromURL connects to a redis:// URL.
func NewFromURL(ctx context.Context, url string) (*Queue, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(client, queue.Name), nil
}

func (q *Queue) Enqueue(ctx context.Context, job *models.RunJob) error {
	if q.closed.Load() {
		return queue.ErrClosed
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.RunID, err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.RunID, err)
	}

	return nil
}

func (q *Queue) Dequeue(ctx context.Context) (*models.RunJob, error) {
	for {
		if q.closed.Load() {
			return nil, queue.ErrClosed
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// BRPop returns [key, value].
		result, err := q.client.BRPop(ctx, pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			if q.closed.Load() {
				return nil, queue.ErrClosed
			}

			return nil, fmt.Errorf("failed to dequeue: %w", err)
		}

		if len(result) != 2 {
			return nil, fmt.Errorf("unexpected BRPOP reply: %v", result)
		}

		var job models.RunJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			return nil, fmt.Errorf("failed to decode job: %w", err)
		}

		return &job, nil
	}
}

// Len returns the number of waiting jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *Queue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}

	return q.client.Close()
}
