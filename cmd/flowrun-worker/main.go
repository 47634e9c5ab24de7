// Command flowrun-worker consumes run jobs and executes their flow graphs.
package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/dukex/flowrun/pkg/cmd"
	"github.com/dukex/flowrun/pkg/log"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "flowrun-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute agent runs",
		Flags:                 slices.Concat(cmd.CommonFlags(), cmd.WorkerFlags(), cmd.RegistryFlags()),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("flowrun-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing flowrun worker")

			resources, err := cmd.OpenResources(ctx, command, logger, "flowrun-worker")
			if err != nil {
				return err
			}
			defer resources.Close(context.WithoutCancel(ctx))

			registry, err := cmd.NewRegistry(ctx, logger, cmd.RegistryConfigFrom(command))
			if err != nil {
				return err
			}

			worker := cmd.NewWorker(logger, command, resources, registry, workerID)

			return worker.Run(ctx)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := command.Run(ctx, os.Args)

	stop()

	if err != nil {
		log.WithModule("flowrun-worker").Error("Worker exited", "error", err)
		os.Exit(1)
	}
}
