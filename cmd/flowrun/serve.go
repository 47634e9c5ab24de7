package main

import (
	"context"
	"slices"
	"strconv"

	"github.com/dukex/flowrun/pkg/cmd"
	"github.com/dukex/flowrun/pkg/log"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the API, the scheduler and a worker",
		Flags: slices.Concat(
			cmd.CommonFlags(),
			cmd.APIFlags(),
			cmd.WorkerFlags(),
			cmd.SchedulerFlags(),
			cmd.RegistryFlags(),
		),
		Action: serve,
	}
}

func serve(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("flowrun")

	logger.InfoContext(ctx, "Initializing flowrun")

	resources, err := cmd.OpenResources(ctx, command, logger, "flowrun")
	if err != nil {
		return err
	}
	defer resources.Close(context.WithoutCancel(ctx))

	registry, err := cmd.NewRegistry(ctx, logger, cmd.RegistryConfigFrom(command))
	if err != nil {
		return err
	}

	if err := cmd.LogRunEvents(ctx, logger, resources.EventBus); err != nil {
		return err
	}

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	worker := cmd.NewWorker(logger, command, resources, registry, workerID)

	scheduler, err := cmd.NewScheduler(logger, command, resources)
	if err != nil {
		return err
	}

	app := cmd.NewAPIApp(logger, resources.Persistence, resources.Queue, registry)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return worker.Run(ctx)
	})

	group.Go(func() error {
		if err := scheduler.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return scheduler.Stop(context.WithoutCancel(ctx))
	})

	group.Go(func() error {
		return app.Listen(":"+strconv.Itoa(command.Int("port")), fiber.ListenConfig{DisableStartupMessage: true})
	})

	group.Go(func() error {
		<-ctx.Done()

		return app.ShutdownWithContext(context.WithoutCancel(ctx))
	})

	return group.Wait()
}
