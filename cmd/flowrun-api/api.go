package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowrun/pkg/cmd"
	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/dukex/flowrun/pkg/registry"
	"github.com/gofiber/fiber/v3"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	queue       queue.Queue
	registry    *registry.Registry
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	queue queue.Queue,
	registry *registry.Registry,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		queue:       queue,
		registry:    registry,
	}
}

func (a *API) App() *fiber.App {
	return cmd.NewAPIApp(a.logger, a.persistence, a.queue, a.registry)
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.ShutdownWithContext(context.WithoutCancel(ctx)); err != nil {
			a.logger.ErrorContext(ctx, "Failed to shutdown API server", "error", err)
		}
	}()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
