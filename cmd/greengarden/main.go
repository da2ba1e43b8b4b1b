// Package main is the entry point for the greengarden CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"greengarden/internal/cli"
	"greengarden/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.DefaultFactory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
