package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"greengarden/internal/exitcode"
	"greengarden/internal/output"
	"greengarden/internal/service"
)

func init() {
	Register(&WorkspacesCmd{})
	Register(&MembersCmd{})
	Register(&WhoamiCmd{})
}

// WorkspacesCmd implements the workspaces command.
type WorkspacesCmd struct{}

func (c *WorkspacesCmd) Name() string       { return "workspaces" }
func (c *WorkspacesCmd) Aliases() []string  { return []string{"ws"} }
func (c *WorkspacesCmd) Synopsis() string   { return "Print workspaces, optionally saving the default" }
func (c *WorkspacesCmd) Usage() string      { return "greengarden workspaces [--default <id>]" }
func (c *WorkspacesCmd) NeedsTracker() bool { return true }

func (c *WorkspacesCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "default", Usage: "save this workspace as the default"},
	}
}

func (c *WorkspacesCmd) Run(ctx context.Context, env *Env) int {
	list, err := env.Tracker.Workspaces(ctx)
	if err != nil {
		return exitFor(env.ErrOut, err)
	}

	defaultID := service.ID(env.Tracker.Options().DefaultWorkspaceID)
	if env.Flags.IsSet("default") {
		id := service.ID(env.Flags.String("default"))
		if !slices.ContainsFunc(list, func(w service.Workspace) bool { return w.ID == id }) {
			fmt.Fprintf(env.ErrOut, "error: unknown workspace: %s\n", id)
			return exitcode.UserError
		}
		if err := saveDefaultWorkspace(env, id); err != nil {
			fmt.Fprintf(env.ErrOut, "error: failed to save options: %v\n", err)
			return exitcode.AuthError
		}
		defaultID = id
	}

	for _, ws := range list {
		output.FormatWorkspace(env.Out, ws, ws.ID == defaultID)
	}
	return exitcode.Success
}

func saveDefaultWorkspace(env *Env, id service.ID) error {
	opts, err := env.Config.LoadOptions()
	if err != nil {
		return err
	}
	opts.DefaultWorkspaceID = id.String()
	if err := env.Config.EnsureDir(); err != nil {
		return err
	}
	return env.Config.SaveOptions(opts)
}

// MembersCmd implements the members command.
type MembersCmd struct{}

func (c *MembersCmd) Name() string       { return "members" }
func (c *MembersCmd) Aliases() []string  { return nil }
func (c *MembersCmd) Synopsis() string   { return "Print the members of a workspace" }
func (c *MembersCmd) Usage() string      { return "greengarden members [<workspace-id>]" }
func (c *MembersCmd) NeedsTracker() bool { return true }

func (c *MembersCmd) Flags() []cli.Flag { return nil }

func (c *MembersCmd) Run(ctx context.Context, env *Env) int {
	if len(env.Args) > 1 {
		fmt.Fprintln(env.ErrOut, "error: too many arguments")
		return exitcode.UserError
	}

	id := service.ID(env.Tracker.Options().DefaultWorkspaceID)
	if len(env.Args) == 1 {
		id = service.ID(env.Args[0])
	}
	if id == "" {
		fmt.Fprintln(env.ErrOut, "error: workspace required (no default workspace set)")
		return exitcode.UserError
	}

	members, err := env.Tracker.Members(ctx, id)
	if err != nil {
		return exitFor(env.ErrOut, err)
	}
	me, err := env.Tracker.Me(ctx)
	if err != nil {
		return exitFor(env.ErrOut, err)
	}

	for _, m := range members {
		output.FormatMember(env.Out, m, m.ID == me.ID)
	}
	return exitcode.Success
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return []string{"me"} }
func (c *WhoamiCmd) Synopsis() string   { return "Print the current user" }
func (c *WhoamiCmd) Usage() string      { return "greengarden whoami" }
func (c *WhoamiCmd) NeedsTracker() bool { return true }

func (c *WhoamiCmd) Flags() []cli.Flag { return nil }

func (c *WhoamiCmd) Run(ctx context.Context, env *Env) int {
	me, err := env.Tracker.Me(ctx)
	if err != nil {
		return exitFor(env.ErrOut, err)
	}
	output.FormatIdentity(env.Out, me)
	return exitcode.Success
}
