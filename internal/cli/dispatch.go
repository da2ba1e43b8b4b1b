// Package cli parses the command line and dispatches to registered commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"greengarden/internal/backend/greengarden"
	"greengarden/internal/commands"
	"greengarden/internal/config"
	"greengarden/internal/exitcode"
	"greengarden/internal/logging"
	"greengarden/internal/output"
	"greengarden/internal/popup"
	"greengarden/internal/service"
	"greengarden/internal/telemetry"
)

// TrackerFactory creates a Tracker from config. Failures of calls made
// without an errback must be passed to sink.
type TrackerFactory func(ctx context.Context, cfg *config.Config, sink service.ErrorHandler) (service.Tracker, error)

// DefaultFactory builds the HTTP client from options.toml and token.json.
func DefaultFactory(ctx context.Context, cfg *config.Config, sink service.ErrorHandler) (service.Tracker, error) {
	return greengarden.NewFromConfig(ctx, cfg, greengarden.WithErrorSink(sink))
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  TrackerFactory
}

// NewDispatcher creates a new dispatcher with the given registry and tracker factory.
func NewDispatcher(registry *commands.Registry, factory TrackerFactory) *Dispatcher {
	if factory == nil {
		factory = DefaultFactory
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// globals are the flags accepted by every command.
type globals struct {
	configDir string
	quiet     bool
	debug     bool
	logFormat string
}

func (g *globals) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "override config directory", Destination: &g.configDir},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress informational output", Destination: &g.quiet},
		&cli.BoolFlag{Name: "debug", Usage: "print debug logs to stderr", Destination: &g.debug, Sources: cli.EnvVars("GREENGARDEN_DEBUG")},
		&cli.StringFlag{Name: "log-format", Value: "console", Usage: "log format: console or json", Destination: &g.logFormat},
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> help
	if len(args) == 0 {
		args = []string{"help"}
	}

	// Flags require a command
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}

	var g globals
	code := exitcode.Success

	root := &cli.Command{
		Name:           config.AppName,
		Usage:          "Create Greengarden tasks from the pages you read",
		HideHelp:       true,
		HideVersion:    true,
		Writer:         out,
		ErrWriter:      errOut,
		Flags:          g.flags(),
		OnUsageError:   usageError,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, c *cli.Command) error {
			return goerr.New("unknown command: " + c.Args().First())
		},
	}

	for _, cmd := range d.registry.All() {
		root.Commands = append(root.Commands, &cli.Command{
			Name:         cmd.Name(),
			Aliases:      cmd.Aliases(),
			Usage:        cmd.Synopsis(),
			UsageText:    cmd.Usage(),
			HideHelp:     true,
			Flags:        cmd.Flags(),
			OnUsageError: usageError,
			Action: func(ctx context.Context, c *cli.Command) error {
				code = d.dispatch(ctx, cmd, &g, c, out, errOut)
				return nil
			},
		})
	}

	if err := root.Run(ctx, append([]string{config.AppName}, args...)); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

func usageError(ctx context.Context, c *cli.Command, err error, isSubcommand bool) error {
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd commands.Command, g *globals, c *cli.Command, out, errOut io.Writer) int {
	cfg, err := config.New(g.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = g.quiet
	cfg.Debug = g.debug
	cfg.LogFormat = g.logFormat

	logger, err := logging.New(errOut, cfg.LogFormat, cfg.Debug)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger.With("command", cmd.Name()))

	env := &commands.Env{
		Config: cfg,
		Flags:  c,
		Args:   c.Args().Slice(),
		Out:    out,
		ErrOut: errOut,
	}

	if cmd.NeedsTracker() {
		tracker, reporter, code := d.openTracker(ctx, cfg, out, errOut)
		if tracker == nil {
			return code
		}
		defer reporter.Flush()
		env.Tracker = tracker
	}

	logger.Debug("running command", "command", cmd.Name(), "args", env.Args)
	return cmd.Run(ctx, env)
}

// openTracker builds the tracker with a sink that shows errors on the
// terminal and forwards them to Sentry when configured.
func (d *Dispatcher) openTracker(ctx context.Context, cfg *config.Config, out, errOut io.Writer) (service.Tracker, *telemetry.Reporter, int) {
	opts, err := cfg.LoadOptions()
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return nil, nil, exitcode.AuthError
	}

	reporter, err := telemetry.New(opts.SentryDSN, commands.Version)
	if err != nil {
		logging.From(ctx).Warn("sentry disabled", "error", err)
		reporter = &telemetry.Reporter{}
	}

	sink := reporter.Wrap(popup.ErrorSink(output.NewTerminal(out, errOut, cfg.Quiet)))
	tracker, err := d.factory(ctx, cfg, sink)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %s\n", err)
		return nil, nil, exitcode.AuthError
	}
	return tracker, reporter, exitcode.Success
}
