package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/flowrun/pkg/eventbus"
	"github.com/dukex/flowrun/pkg/otelhelper"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/queue"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// Resources are the shared backends every binary opens from CommonFlags.
type Resources struct {
	Persistence persistence.Persistence
	Queue       queue.Queue
	EventBus    eventbus.EventBus
	Tracer      trace.Tracer

	shutdownTracer otelhelper.ShutdownFunc
	logger         *slog.Logger
}

// OpenResources opens everything CommonFlags describe. On error whatever was
// already opened is closed.
func OpenResources(ctx context.Context, command *cli.Command, logger *slog.Logger, serviceName string) (*Resources, error) {
	resources := &Resources{logger: logger}

	store, err := NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, err
	}

	resources.Persistence = store

	jobs, err := NewQueue(ctx, command.String("queue-url"))
	if err != nil {
		resources.Close(ctx)

		return nil, err
	}

	resources.Queue = jobs

	bus, err := NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), serviceName, logger)
	if err != nil {
		resources.Close(ctx)

		return nil, err
	}

	resources.EventBus = bus

	tracer, shutdown, err := NewTracer(ctx, command.Bool("otel-enabled"), serviceName)
	if err != nil {
		resources.Close(ctx)

		return nil, err
	}

	resources.Tracer = tracer
	resources.shutdownTracer = shutdown

	return resources, nil
}

// Close releases the resources in reverse order of opening and logs failures.
func (r *Resources) Close(ctx context.Context) {
	if r.shutdownTracer != nil {
		if err := r.shutdownTracer(ctx); err != nil {
			r.logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}

	if r.EventBus != nil {
		if err := r.EventBus.Close(); err != nil {
			r.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}

	if r.Queue != nil {
		if err := r.Queue.Close(); err != nil && !errors.Is(err, queue.ErrClosed) {
			r.logger.ErrorContext(ctx, "Failed to close queue", "error", err)
		}
	}

	if r.Persistence != nil {
		if err := r.Persistence.Close(ctx); err != nil {
			r.logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}
}
