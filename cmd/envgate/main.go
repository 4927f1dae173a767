package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/envgate/envgate/cmd/envgate/commands"
)

func main() {
	// Ctrl-C must cancel in-flight waits (device-grant polling in particular)
	// instead of letting them run to the next tick.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "envgate:", err)
		os.Exit(1)
	}
}
