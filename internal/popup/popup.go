// Package popup gathers the context for a new task, builds the task form and
// submits it. Rendering is left to a View.
package popup

import (
	"context"
	"errors"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"greengarden/internal/handshake"
	"greengarden/internal/logging"
	"greengarden/internal/service"
)

var (
	// ErrNotLoggedIn is returned by Open when login is required and no
	// credentials are stored. The view has been shown the login URL.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoWorkspaces is returned by Open when the user belongs to no
	// workspace.
	ErrNoWorkspaces = errors.New("no workspaces available")
)

// View renders the popup states.
type View interface {
	ShowLogin(url string)
	ShowAdd(form *Form)
	ShowSuccess(task service.Task, url string)
	ShowError(message string)
}

// SelectionRequester fetches the selection of a tab.
type SelectionRequester interface {
	RequestSelection(ctx context.Context, tab handshake.Tab) (string, error)
}

// QuickAdd carries a request that already knows its page and selection.
type QuickAdd struct {
	URL          string
	Title        string
	SelectedText string
}

// Request describes what the popup was opened for.
type Request struct {
	Tab      handshake.Tab
	QuickAdd *QuickAdd
}

// Form is the state of the task creation form.
type Form struct {
	Title       string
	URL         string
	Workspaces  []service.Workspace
	WorkspaceID service.ID
	Members     []service.Member
	AssigneeID  service.ID
}

// Draft returns the task fields to submit.
func (f *Form) Draft() service.TaskDraft {
	return service.TaskDraft{
		Title:    f.Title,
		URL:      f.URL,
		Assignee: f.AssigneeID,
	}
}

// Popup drives one popup session.
type Popup struct {
	tracker  service.Tracker
	selector SelectionRequester
	view     View
}

// New creates a popup.
func New(tracker service.Tracker, selector SelectionRequester, view View) *Popup {
	return &Popup{tracker: tracker, selector: selector, view: view}
}

// ErrorSink returns a handler that shows the first error message in v.
// Hosts install it as the tracker's default sink.
func ErrorSink(v View) service.ErrorHandler {
	return func(e *service.RemoteError) {
		v.ShowError(e.Message())
	}
}

// Open gathers identity, workspaces and the page selection, then shows the
// add form. Remote failures have already been reported through the
// tracker's sink when Open returns them.
func (p *Popup) Open(ctx context.Context, req Request) (*Form, error) {
	logger := logging.From(ctx)
	opts := p.tracker.Options()

	if opts.RequireLogin && !p.tracker.LoggedIn() {
		p.view.ShowLogin(opts.LoginURL())
		return nil, ErrNotLoggedIn
	}

	form := &Form{URL: req.Tab.URL, Title: req.Tab.Title}
	var selection string
	if req.QuickAdd != nil {
		form.URL, form.Title = req.QuickAdd.URL, req.QuickAdd.Title
		selection = req.QuickAdd.SelectedText
	}

	g, gctx := errgroup.WithContext(ctx)
	if req.QuickAdd == nil {
		g.Go(func() error {
			s, err := p.selector.RequestSelection(gctx, req.Tab)
			if err != nil {
				return goerr.Wrap(err, "selection request aborted")
			}
			selection = s
			return nil
		})
	}
	g.Go(func() error {
		// Warms the identity cache used when members load.
		_, err := p.tracker.Me(gctx)
		return err
	})
	g.Go(func() error {
		list, err := p.tracker.Workspaces(gctx)
		form.Workspaces = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	form.URL += selection
	logger.Debug("popup context gathered",
		"workspaces", len(form.Workspaces),
		"selection_length", len(selection),
	)

	if len(form.Workspaces) == 0 {
		p.view.ShowError(ErrNoWorkspaces.Error())
		return nil, ErrNoWorkspaces
	}

	wsID := form.Workspaces[0].ID
	if i := slices.IndexFunc(form.Workspaces, func(w service.Workspace) bool {
		return w.ID == service.ID(opts.DefaultWorkspaceID)
	}); i >= 0 {
		wsID = form.Workspaces[i].ID
	}

	if err := p.loadMembers(ctx, form, wsID); err != nil {
		return nil, err
	}

	p.view.ShowAdd(form)
	return form, nil
}

// ChangeWorkspace switches the form to another workspace and reloads its
// members.
func (p *Popup) ChangeWorkspace(ctx context.Context, form *Form, workspaceID service.ID) error {
	if !slices.ContainsFunc(form.Workspaces, func(w service.Workspace) bool { return w.ID == workspaceID }) {
		return goerr.New("unknown workspace", goerr.V("workspace_id", workspaceID))
	}
	return p.loadMembers(ctx, form, workspaceID)
}

func (p *Popup) loadMembers(ctx context.Context, form *Form, workspaceID service.ID) error {
	members, err := p.tracker.Members(ctx, workspaceID)
	if err != nil {
		return err
	}
	form.WorkspaceID = workspaceID
	form.Members = members

	me, err := p.tracker.Me(ctx)
	if err != nil {
		return err
	}
	form.AssigneeID = ""
	if slices.ContainsFunc(members, func(m service.Member) bool { return m.ID == me.ID }) {
		form.AssigneeID = me.ID
	}
	return nil
}

// Submit creates the task described by form. A failure is shown in the view
// and returned; success shows a link to the new task.
func (p *Popup) Submit(ctx context.Context, form *Form) (service.Task, error) {
	logging.From(ctx).Debug("creating task", "workspace", form.WorkspaceID)

	task, err := p.tracker.CreateTask(ctx, form.WorkspaceID, form.Draft(),
		service.WithErrback(func(e *service.RemoteError) {
			p.view.ShowError(e.Message())
		}),
	)
	if err != nil {
		return service.Task{}, err
	}

	p.view.ShowSuccess(task, p.tracker.TaskViewURL(task))
	return task, nil
}
