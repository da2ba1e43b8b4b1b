// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"

	"greengarden/internal/config"
	"greengarden/internal/service"
)

// FlagValues reads parsed flags by name. *cli.Command satisfies it.
type FlagValues interface {
	String(name string) string
	Bool(name string) bool
	IsSet(name string) bool
}

// Env is everything a command runs with.
type Env struct {
	// Config is always provided (config dir, paths).
	Config *config.Config

	// Tracker is nil unless NeedsTracker returns true.
	Tracker service.Tracker

	// Flags holds the command-specific flag values.
	Flags FlagValues

	// Args contains positional arguments after flag parsing.
	Args []string

	Out    io.Writer
	ErrOut io.Writer
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsTracker returns true if the command talks to the tracker.
	NeedsTracker() bool

	// Flags returns fresh definitions of the command-specific flags.
	Flags() []cli.Flag

	// Run executes the command and returns the exit code.
	Run(ctx context.Context, env *Env) int
}
