package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"greengarden/internal/exitcode"
)

func init() {
	Register(&HelpCmd{registry: DefaultRegistry})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	registry *Registry
}

// NewHelpCmd creates a help command listing the commands of r.
func NewHelpCmd(r *Registry) *HelpCmd {
	return &HelpCmd{registry: r}
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "greengarden help" }
func (c *HelpCmd) NeedsTracker() bool { return false }

func (c *HelpCmd) Flags() []cli.Flag { return nil }

func (c *HelpCmd) Run(ctx context.Context, env *Env) int {
	WriteHelp(env.Out, c.registry)
	return exitcode.Success
}

// WriteHelp prints the usage of every command in r.
func WriteHelp(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Usage:")
	for _, cmd := range r.All() {
		fmt.Fprintf(w, "  %s\n", cmd.Usage())
		fmt.Fprintf(w, "      %s\n", cmd.Synopsis())
	}
	fmt.Fprint(w, commonFlags)
}

const commonFlags = `
Common flags:
  --config <dir>        Override config directory
  --quiet               Suppress informational output
  --debug               Print debug logs to stderr
  --log-format <fmt>    Log format: console or json
`
