// Command exprsql builds typed SQL expressions from YAML documents and
// renders them per dialect.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/exprsql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
