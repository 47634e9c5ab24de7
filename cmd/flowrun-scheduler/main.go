// Command flowrun-scheduler creates runs for agents whose schedule trigger is due.
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
		Name:                  "flowrun-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Poll schedule triggers and enqueue due runs",
		Flags:                 slices.Concat(cmd.CommonFlags(), cmd.SchedulerFlags()),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("flowrun-scheduler")

			logger.InfoContext(ctx, "Initializing flowrun scheduler")

			resources, err := cmd.OpenResources(ctx, command, logger, "flowrun-scheduler")
			if err != nil {
				return err
			}
			defer resources.Close(context.WithoutCancel(ctx))

			scheduler, err := cmd.NewScheduler(logger, command, resources)
			if err != nil {
				return err
			}

			if err := scheduler.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			return scheduler.Stop(context.WithoutCancel(ctx))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := command.Run(ctx, os.Args)

	stop()

	if err != nil {
		log.WithModule("flowrun-scheduler").Error("Scheduler exited", "error", err)
		os.Exit(1)
	}
}
