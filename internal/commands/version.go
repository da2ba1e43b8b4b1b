package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"greengarden/internal/exitcode"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd implements the version command.
type VersionCmd struct{}

func (c *VersionCmd) Name() string       { return "version" }
func (c *VersionCmd) Aliases() []string  { return nil }
func (c *VersionCmd) Synopsis() string   { return "Print version" }
func (c *VersionCmd) Usage() string      { return "greengarden version" }
func (c *VersionCmd) NeedsTracker() bool { return false }

func (c *VersionCmd) Flags() []cli.Flag { return nil }

func (c *VersionCmd) Run(ctx context.Context, env *Env) int {
	fmt.Fprintf(env.Out, "greengarden %s\n", Version)
	return exitcode.Success
}
