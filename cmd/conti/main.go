package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"conti/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		os.Exit(cli.ExitCode(err))
	}
}
