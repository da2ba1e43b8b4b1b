package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"greengarden/internal/exitcode"
	"greengarden/internal/handshake"
	"greengarden/internal/output"
	"greengarden/internal/popup"
	"greengarden/internal/service"
)

// NoAssignee clears the assignee when passed to --assignee.
const NoAssignee = "none"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command: the popup flow on the terminal.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task for a page" }
func (c *AddCmd) Usage() string {
	return "greengarden add --url <url> [--selection <text> | --clipboard] [--workspace <id>] [--assignee <id|none>] [title...]"
}
func (c *AddCmd) NeedsTracker() bool { return true }

func (c *AddCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "page URL"},
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "task title, defaults to the positional arguments"},
		&cli.StringFlag{Name: "selection", Aliases: []string{"s"}, Usage: "selected text, skips reading the page selection"},
		&cli.BoolFlag{Name: "clipboard", Usage: "read the page selection from the clipboard"},
		&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "workspace ID"},
		&cli.StringFlag{Name: "assignee", Aliases: []string{"a"}, Usage: `member ID, or "none"`},
	}
}

// heldForm defers the form summary until flag overrides are applied.
type heldForm struct {
	*output.Terminal
}

func (heldForm) ShowAdd(*popup.Form) {}

func (c *AddCmd) Run(ctx context.Context, env *Env) int {
	url := env.Flags.String("url")
	if url == "" {
		fmt.Fprintln(env.ErrOut, "error: --url required")
		return exitcode.UserError
	}
	title := env.Flags.String("title")
	if title == "" {
		title = strings.Join(env.Args, " ")
	}

	term := output.NewTerminal(env.Out, env.ErrOut, env.Config.Quiet)
	bus := handshake.NewBus()
	hs := handshake.New(bus, handshake.NewExecutor(bus),
		handshake.WithTimeout(env.Tracker.Options().SelectionTimeout()),
	)
	p := popup.New(env.Tracker, hs, heldForm{term})

	form, err := p.Open(ctx, newRequest(env, url, title))
	if err != nil {
		return exitFor(env.ErrOut, err)
	}

	if ws := service.ID(env.Flags.String("workspace")); ws != "" && ws != form.WorkspaceID {
		if err := p.ChangeWorkspace(ctx, form, ws); err != nil {
			return exitFor(env.ErrOut, err)
		}
	}

	if env.Flags.IsSet("assignee") {
		assignee := service.ID(env.Flags.String("assignee"))
		switch {
		case assignee == NoAssignee:
			form.AssigneeID = ""
		case slices.ContainsFunc(form.Members, func(m service.Member) bool { return m.ID == assignee }):
			form.AssigneeID = assignee
		default:
			fmt.Fprintf(env.ErrOut, "error: %s is not a member of workspace %s\n", assignee, form.WorkspaceID)
			return exitcode.UserError
		}
	}

	term.ShowAdd(form)
	if _, err := p.Submit(ctx, form); err != nil {
		return exitFor(env.ErrOut, err)
	}
	return exitcode.Success
}

func newRequest(env *Env, url, title string) popup.Request {
	if env.Flags.IsSet("selection") {
		selected := env.Flags.String("selection")
		if selected != "" {
			selected = "\n" + selected
		}
		return popup.Request{QuickAdd: &popup.QuickAdd{URL: url, Title: title, SelectedText: selected}}
	}

	var source handshake.SelectionSource
	if env.Flags.Bool("clipboard") {
		source = handshake.ClipboardSelection{}
	}
	return popup.Request{Tab: handshake.Tab{
		ID:      1,
		URL:     url,
		Title:   title,
		Content: handshake.NewPage(source),
	}}
}
