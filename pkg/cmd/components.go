package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowrun/pkg/eventbus"
	"github.com/dukex/flowrun/pkg/events"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/dukex/flowrun/pkg/registry"
	"github.com/dukex/flowrun/pkg/runlog"
	"github.com/dukex/flowrun/pkg/scheduler"
	"github.com/dukex/flowrun/pkg/services"
	"github.com/dukex/flowrun/pkg/web"
	"github.com/dukex/flowrun/pkg/worker"
	"github.com/dukex/flowrun/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	cli "github.com/urfave/cli/v3"
)

// NewWorker wires the executor and the job consumer from WorkerFlags.
func NewWorker(logger *slog.Logger, command *cli.Command, resources *Resources, reg *registry.Registry, workerID string) *worker.Worker {
	executor := workflow.NewExecutor(
		logger,
		reg,
		resources.Persistence,
		runlog.New(resources.Persistence),
		workflow.WithTracer(resources.Tracer),
	)

	return worker.New(
		logger,
		resources.Queue,
		resources.Persistence,
		executor,
		worker.WithWorkerID(workerID),
		worker.WithConcurrency(command.Int("worker-concurrency")),
		worker.WithMaxAttempts(command.Int("max-attempts")),
		worker.WithPublisher(resources.EventBus),
	)
}

// NewScheduler wires the schedule poller from SchedulerFlags.
func NewScheduler(logger *slog.Logger, command *cli.Command, resources *Resources) (*scheduler.Scheduler, error) {
	location := time.Local

	if name := command.String("timezone"); name != "" {
		loaded, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
		}

		location = loaded
	}

	runs := services.NewRuns(logger, resources.Persistence, resources.Queue)

	return scheduler.New(
		logger,
		resources.Persistence,
		runs,
		scheduler.WithInterval(command.Duration("scheduler-interval")),
		scheduler.WithLocation(location),
	), nil
}

// NewAPIApp wires the intake HTTP app.
func NewAPIApp(logger *slog.Logger, store persistence.Persistence, jobs queue.Queue, reg *registry.Registry) *fiber.App {
	runs := services.NewRuns(logger, store, jobs)
	handlers := web.NewAPIHandlers(runs, validator.New(validator.WithRequiredStructEnabled()), reg)

	return web.NewApp(handlers)
}

// LogRunEvents subscribes to run events and logs each one.
func LogRunEvents(ctx context.Context, logger *slog.Logger, bus eventbus.EventBus) error {
	logger = logger.With("module", "run_events")

	handlers := map[events.EventType]eventbus.EventHandler{
		events.RunSucceededEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.RunSucceeded); ok {
				logger.InfoContext(ctx, "Run succeeded", "run_id", e.RunID, "agent_id", e.AgentID, "attempt", e.Attempt)
			}

			return nil
		},
		events.RunFailedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.RunFailed); ok {
				logger.WarnContext(ctx, "Run failed", "run_id", e.RunID, "agent_id", e.AgentID, "attempt", e.Attempt, "kind", e.Kind, "error", e.Error)
			}

			return nil
		},
		events.RunRetryScheduledEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.RunRetryScheduled); ok {
				logger.InfoContext(ctx, "Run retry scheduled", "run_id", e.RunID, "next_attempt", e.NextAttempt, "delay", e.Delay)
			}

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return bus.Subscribe(ctx)
}
