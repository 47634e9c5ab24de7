// Command flowrun runs the intake API, the scheduler and a worker in one
// process, sharing an in-memory queue unless QUEUE_URL says otherwise.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/flowrun/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "flowrun",
		Usage:                 "Run AI agents built as flow graphs",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := command.Run(ctx, os.Args)

	stop()

	if err != nil {
		log.WithModule("flowrun").Error("flowrun exited", "error", err)
		os.Exit(1)
	}
}
