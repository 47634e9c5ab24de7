// Command flowrun-api accepts manual and webhook triggers and serves run traces.
package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/dukex/flowrun/pkg/cmd"
	"github.com/dukex/flowrun/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "flowrun-api",
		Usage:                 "Trigger agent runs and inspect their traces",
		EnableShellCompletion: true,
		Flags:                 slices.Concat(cmd.CommonFlags(), cmd.APIFlags(), cmd.RegistryFlags()),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing flowrun API")

			resources, err := cmd.OpenResources(ctx, command, logger, "flowrun-api")
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

			api := NewAPI(logger, resources.Persistence, resources.Queue, registry)

			return api.Start(ctx, command.Int("port"))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := command.Run(ctx, os.Args)

	stop()

	if err != nil {
		log.WithModule("api").Error("API exited", "error", err)
		os.Exit(1)
	}
}
