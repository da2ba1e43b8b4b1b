// Package output renders tracker data and popup states for the terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"greengarden/internal/popup"
	"greengarden/internal/service"
)

// UnnamedTask is shown for tasks whose name is blank.
const UnnamedTask = "unnamed task"

// TaskLabel returns the display name of a task.
// Newlines become spaces and surrounding whitespace is trimmed.
func TaskLabel(task service.Task) string {
	name := strings.ReplaceAll(task.Name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return UnnamedTask
	}
	return name
}

// FormatWorkspace writes one workspace line.
// Format: "{ID}  {NAME}" with " [default]" appended for the default workspace.
func FormatWorkspace(w io.Writer, ws service.Workspace, isDefault bool) {
	line := ws.ID.String() + "  " + displayName(ws.Name)
	if isDefault {
		line += " [default]"
	}
	fmt.Fprintln(w, line)
}

// FormatMember writes one member line, marking the current user.
func FormatMember(w io.Writer, m service.Member, isMe bool) {
	line := m.ID.String() + "  " + displayName(m.Name)
	if isMe {
		line += " (you)"
	}
	fmt.Fprintln(w, line)
}

// FormatIdentity writes the current user.
func FormatIdentity(w io.Writer, id service.Identity) {
	fmt.Fprintf(w, "%s (%s)\n", displayName(id.Name), id.ID)
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(unnamed)"
	}
	return name
}

// Terminal is a popup.View that prints to a pair of writers.
type Terminal struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool

	ok   *color.Color
	fail *color.Color
	dim  *color.Color
}

var _ popup.View = (*Terminal)(nil)

// NewTerminal creates a view. Quiet suppresses everything except errors and
// the login prompt. Colours are only used on real files.
func NewTerminal(out, errOut io.Writer, quiet bool) *Terminal {
	return &Terminal{
		out:    out,
		errOut: errOut,
		quiet:  quiet,
		ok:     colorFor(out, color.FgGreen),
		fail:   colorFor(errOut, color.FgRed),
		dim:    colorFor(out, color.Faint),
	}
}

func colorFor(w io.Writer, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if _, ok := w.(*os.File); !ok {
		c.DisableColor()
	}
	return c
}

// ShowLogin implements popup.View.
func (t *Terminal) ShowLogin(url string) {
	fmt.Fprintln(t.errOut, "not logged in, open this URL in your browser:")
	fmt.Fprintln(t.errOut, url)
}

// ShowAdd implements popup.View.
func (t *Terminal) ShowAdd(form *popup.Form) {
	if t.quiet {
		return
	}
	workspace := form.WorkspaceID.String()
	for _, ws := range form.Workspaces {
		if ws.ID == form.WorkspaceID {
			workspace = displayName(ws.Name)
		}
	}
	assignee := "(none)"
	for _, m := range form.Members {
		if m.ID == form.AssigneeID {
			assignee = displayName(m.Name)
		}
	}
	t.dim.Fprintf(t.out, "workspace: %s\n", workspace)
	t.dim.Fprintf(t.out, "assignee:  %s\n", assignee)
}

// ShowSuccess implements popup.View.
func (t *Terminal) ShowSuccess(task service.Task, url string) {
	if t.quiet {
		return
	}
	t.ok.Fprintf(t.out, "created %s\n", TaskLabel(task))
	fmt.Fprintln(t.out, url)
}

// ShowError implements popup.View.
func (t *Terminal) ShowError(message string) {
	t.fail.Fprintf(t.errOut, "error: %s\n", message)
}
