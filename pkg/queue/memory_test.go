package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_FIFO(t *testing.T) {
	q := NewMemory()

	for i := range 3 {
		require.NoError(t, q.Enqueue(t.Context(), &models.RunJob{RunID: fmt.Sprintf("run-%d", i)}))
	}

	assert.Equal(t, 3, q.Len())

	for i := range 3 {
		job, err := q.Dequeue(t.Context())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("run-%d", i), job.RunID)
	}

	assert.Equal(t, 0, q.Len())
}

func TestMemory_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewMemory()

	result := make(chan *models.RunJob, 1)

	go func() {
		job, err := q.Dequeue(context.Background())
		if assert.NoError(t, err) {
			result <- job
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(t.Context(), &models.RunJob{RunID: "late"}))

	select {
	case job := <-result:
		assert.Equal(t, "late", job.RunID)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestMemory_DequeueHonorsContext(t *testing.T) {
	q := NewMemory()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemory_Close(t *testing.T) {
	q := NewMemory()
	require.NoError(t, q.Enqueue(t.Context(), &models.RunJob{RunID: "left"}))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Enqueue(t.Context(), &models.RunJob{}), ErrClosed)

	job, err := q.Dequeue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "left", job.RunID)

	_, err = q.Dequeue(t.Context())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_ManyConsumers(t *testing.T) {
	q := NewMemory()

	const jobs = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				job, err := q.Dequeue(ctx)
				if err != nil {
					return
				}

				mu.Lock()
				seen[job.RunID] = true
				done := len(seen) == jobs
				mu.Unlock()

				if done {
					cancel()
				}
			}
		}()
	}

	for i := range jobs {
		require.NoError(t, q.Enqueue(t.Context(), &models.RunJob{RunID: fmt.Sprintf("run-%d", i)}))
	}

	wg.Wait()
	assert.Len(t, seen, jobs)
}
