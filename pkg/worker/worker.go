// Package worker consumes run jobs and executes them on a bounded pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dukex/flowrun/pkg/eventbus"
	"github.com/dukex/flowrun/pkg/events"
	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/dukex/flowrun/pkg/workflow"
	"github.com/panjf2000/ants/v2"
)

const (
	DefaultConcurrency  = 5
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second

	backoffMultiplier = 2
	dequeueRetryDelay = time.Second
)

// ErrFlowGraphNotFound marks jobs whose graph no longer exists. They are not retried.
var ErrFlowGraphNotFound = errors.New("Flow graph not found")

// Executor runs one flow graph for a run.
type Executor interface {
	ExecuteRun(ctx context.Context, runID, workspaceID string, graph *models.FlowGraph, opts ...workflow.RunOption) error
}

// Store is the storage the worker needs besides the executor's own.
type Store interface {
	persistence.FlowGraphRepository
	persistence.RunRepository
}

type Option func(*Worker)

func WithConcurrency(concurrency int) Option {
	return func(w *Worker) {
		if concurrency > 0 {
			w.concurrency = concurrency
		}
	}
}

func WithMaxAttempts(attempts int) Option {
	return func(w *Worker) {
		if attempts > 0 {
			w.maxAttempts = attempts
		}
	}
}

// WithInitialDelay sets the delay before the second attempt. Later attempts
// double it.
func WithInitialDelay(delay time.Duration) Option {
	return func(w *Worker) {
		w.initialDelay = delay
	}
}

// WithPublisher publishes run lifecycle events.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Worker) {
		w.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func WithWorkerID(id string) Option {
	return func(w *Worker) {
		w.id = id
	}
}

type Worker struct {
	id           string
	logger       *slog.Logger
	queue        queue.Queue
	store        Store
	executor     Executor
	publisher    eventbus.EventPublisher
	concurrency  int
	maxAttempts  int
	initialDelay time.Duration
	now          func() time.Time
}

func New(logger *slog.Logger, jobs queue.Queue, store Store, executor Executor, opts ...Option) *Worker {
	worker := &Worker{
		logger:       logger.With("module", "worker"),
		queue:        jobs,
		store:        store,
		executor:     executor,
		concurrency:  DefaultConcurrency,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(worker)
	}

	if worker.id != "" {
		worker.logger = worker.logger.With("worker_id", worker.id)
	}

	return worker
}

// Run consumes jobs until ctx is done or the queue is closed, then waits for
// in-flight jobs. Jobs already taken finish even after ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	pool, err := ants.NewPool(w.concurrency)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	w.logger.InfoContext(ctx, "Worker started", "concurrency", w.concurrency, "max_attempts", w.maxAttempts)

	jobCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				break
			}

			w.logger.ErrorContext(ctx, "Failed to dequeue job", "error", err)

			select {
			case <-ctx.Done():
			case <-time.After(dequeueRetryDelay):
			}

			continue
		}

		wg.Add(1)

		// Submit blocks while every pool slot is busy.
		if err := pool.Submit(func() {
			defer wg.Done()

			w.Process(jobCtx, job)
		}); err != nil {
			wg.Done()

			w.logger.ErrorContext(ctx, "Failed to submit job", "run_id", job.RunID, "error", err)

			if err := w.queue.Enqueue(jobCtx, job); err != nil {
				w.logger.ErrorContext(ctx, "Failed to return job to queue", "run_id", job.RunID, "error", err)
			}
		}
	}

	wg.Wait()
	w.logger.InfoContext(ctx, "Worker stopped")

	return nil
}

// Process executes one job and applies the retry policy to its outcome.
func (w *Worker) Process(ctx context.Context, job *models.RunJob) {
	logger := w.logger.With("run_id", job.RunID, "agent_id", job.AgentID, "attempt", job.Attempt)

	if err := w.waitUntil(ctx, job.NotBefore); err != nil {
		logger.WarnContext(ctx, "Job wait interrupted", "error", err)

		return
	}

	startedAt := w.now()

	err := w.execute(ctx, job)
	if err == nil {
		logger.InfoContext(ctx, "Run succeeded")
		w.publish(ctx, job, events.RunSucceeded{
			BaseEvent: w.baseEvent(events.RunSucceededEvent, job),
			Duration:  w.now().Sub(startedAt),
		})

		return
	}

	if w.shouldRetry(err) && job.Attempt < w.maxAttempts {
		retryErr := w.retry(ctx, job, err)
		if retryErr == nil {
			return
		}

		logger.ErrorContext(ctx, "Failed to schedule retry", "error", retryErr)
	}

	logger.ErrorContext(ctx, "Run failed", "error", err)

	failed := events.RunFailed{
		BaseEvent: w.baseEvent(events.RunFailedEvent, job),
		Error:     err.Error(),
		Kind:      string(workflow.KindGeneric),
		Duration:  w.now().Sub(startedAt),
	}

	var runErr *workflow.RunError
	if errors.As(err, &runErr) {
		failed.Kind = string(runErr.Kind)
		failed.Retryable = runErr.Retryable
	}

	w.publish(ctx, job, failed)
}

func (w *Worker) execute(ctx context.Context, job *models.RunJob) error {
	graph, err := w.store.FlowGraphByID(ctx, job.FlowGraphID)
	if err != nil {
		if !persistence.IsFlowGraphNotFound(err) {
			return fmt.Errorf("failed to load flow graph %s: %w", job.FlowGraphID, err)
		}

		err = fmt.Errorf("%w: %s", ErrFlowGraphNotFound, job.FlowGraphID)
		finishedAt := w.now()

		if updateErr := w.store.UpdateRunStatus(ctx, job.RunID, models.RunStatusUpdate{
			Status:       models.RunStatusFailed,
			FinishedAt:   &finishedAt,
			ErrorMessage: err.Error(),
		}); updateErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark run failed", "run_id", job.RunID, "error", updateErr)
		}

		return err
	}

	return w.executor.ExecuteRun(ctx, job.RunID, job.WorkspaceID, graph,
		workflow.WithTriggerPayload(job.TriggerPayload),
		workflow.WithTriggerType(job.TriggerType),
	)
}

// shouldRetry retries run failures the executor marks retryable and
// infrastructure errors. Missing graphs and cancellations are final.
func (w *Worker) shouldRetry(err error) bool {
	if errors.Is(err, ErrFlowGraphNotFound) || errors.Is(err, context.Canceled) {
		return false
	}

	var runErr *workflow.RunError
	if errors.As(err, &runErr) {
		return runErr.Retryable
	}

	return true
}

func (w *Worker) retry(ctx context.Context, job *models.RunJob, cause error) error {
	delay := w.Delay(job.Attempt)
	notBefore := w.now().Add(delay)

	if err := w.store.UpdateRunStatus(ctx, job.RunID, models.RunStatusUpdate{
		Status: models.RunStatusPending,
	}); err != nil {
		return fmt.Errorf("failed to reset run %s: %w", job.RunID, err)
	}

	next := *job
	next.Attempt = job.Attempt + 1
	next.NotBefore = &notBefore

	if err := w.queue.Enqueue(ctx, &next); err != nil {
		return fmt.Errorf("failed to requeue run %s: %w", job.RunID, err)
	}

	w.logger.WarnContext(ctx, "Run failed, retry scheduled",
		"run_id", job.RunID,
		"attempt", job.Attempt,
		"next_attempt", next.Attempt,
		"delay", delay,
		"error", cause)

	w.publish(ctx, job, events.RunRetryScheduled{
		BaseEvent:   w.baseEvent(events.RunRetryScheduledEvent, job),
		Error:       cause.Error(),
		NextAttempt: next.Attempt,
		Delay:       delay,
	})

	return nil
}

// Delay returns the wait before the attempt following attempt: the initial
// delay, doubled for every later attempt, without jitter.
func (w *Worker) Delay(attempt int) time.Duration {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.initialDelay
	policy.Multiplier = backoffMultiplier
	policy.RandomizationFactor = 0
	policy.MaxInterval = w.initialDelay << w.maxAttempts
	policy.Reset()

	delay := policy.NextBackOff()
	for range attempt - 1 {
		delay = policy.NextBackOff()
	}

	return delay
}

func (w *Worker) waitUntil(ctx context.Context, notBefore *time.Time) error {
	if notBefore == nil {
		return nil
	}

	wait := notBefore.Sub(w.now())
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Worker) baseEvent(eventType events.EventType, job *models.RunJob) events.BaseEvent {
	base := events.NewBaseEvent(eventType, job)
	base.WorkerID = w.id

	return base
}

func (w *Worker) publish(ctx context.Context, job *models.RunJob, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, job.RunID, event); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish run event",
			"run_id", job.RunID,
			"event_type", event.GetType(),
			"error", err)
	}
}
