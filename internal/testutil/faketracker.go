// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"greengarden/internal/backend/greengarden"
	"greengarden/internal/config"
	"greengarden/internal/service"
)

// Operation names accepted by FakeTracker.Fail and FakeTracker.Calls.
const (
	OpMe         = "me"
	OpWorkspaces = "workspaces"
	OpMembers    = "members"
	OpCreateTask = "create_task"
)

// FakeTracker is an in-memory implementation of service.Tracker for testing.
// Failures are routed like the real client: to the call's errback, or to
// Sink when none was given.
type FakeTracker struct {
	mu         sync.Mutex
	opts       config.Options
	loggedIn   bool
	me         service.Identity
	cached     *service.Identity
	workspaces []service.Workspace
	members    map[service.ID][]service.Member
	tasks      []service.Task
	failures   map[string]string
	calls      map[string]int

	// Sink receives failures of calls without an errback.
	Sink service.ErrorHandler
}

var _ service.Tracker = (*FakeTracker)(nil)

// NewFakeTracker creates a tracker with one user and no workspaces.
func NewFakeTracker() *FakeTracker {
	return &FakeTracker{
		opts:     config.DefaultOptions(),
		loggedIn: true,
		me:       service.Identity{ID: "u-1", Name: "Ann"},
		members:  make(map[service.ID][]service.Member),
		failures: make(map[string]string),
		calls:    make(map[string]int),
	}
}

// SetOptions replaces the local options.
func (f *FakeTracker) SetOptions(opts config.Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = opts
}

// SetLoggedIn sets the result of LoggedIn.
func (f *FakeTracker) SetLoggedIn(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedIn = v
}

// AddWorkspace adds a workspace and its members.
func (f *FakeTracker) AddWorkspace(id service.ID, name string, members ...service.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workspaces = append(f.workspaces, service.Workspace{ID: id, Name: name})
	f.members[id] = append(f.members[id], members...)
}

// Fail makes op fail with message until Recover is called.
func (f *FakeTracker) Fail(op, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = message
}

// Recover clears an injected failure.
func (f *FakeTracker) Recover(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, op)
}

// Calls returns how many remote calls op has made.
func (f *FakeTracker) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Tasks returns the created tasks.
func (f *FakeTracker) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// begin records a remote call and returns its injected failure, if any.
func (f *FakeTracker) begin(op string) *service.RemoteError {
	f.calls[op]++
	if msg, ok := f.failures[op]; ok {
		return service.NewRemoteError(400, []service.ErrorEntry{{Message: msg}})
	}
	return nil
}

func (f *FakeTracker) fail(rerr *service.RemoteError, opts []service.CallOption) error {
	o := service.ApplyCallOptions(opts...)
	h := o.Errback
	if h == nil {
		h = f.Sink
	}
	if h != nil {
		h(rerr)
	}
	return rerr
}

// Options implements service.Tracker.
func (f *FakeTracker) Options() config.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

// LoggedIn implements service.Tracker.
func (f *FakeTracker) LoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn
}

// Me implements service.Tracker.
func (f *FakeTracker) Me(ctx context.Context, opts ...service.CallOption) (service.Identity, error) {
	f.mu.Lock()
	if f.cached != nil {
		id := *f.cached
		f.mu.Unlock()
		return id, nil
	}
	rerr := f.begin(OpMe)
	if rerr == nil {
		me := f.me
		f.cached = &me
	}
	me := f.me
	f.mu.Unlock()

	if rerr != nil {
		return service.Identity{}, f.fail(rerr, opts)
	}
	return me, nil
}

// Workspaces implements service.Tracker.
func (f *FakeTracker) Workspaces(ctx context.Context, opts ...service.CallOption) ([]service.Workspace, error) {
	f.mu.Lock()
	rerr := f.begin(OpWorkspaces)
	list := append([]service.Workspace(nil), f.workspaces...)
	f.mu.Unlock()

	if rerr != nil {
		return nil, f.fail(rerr, opts)
	}
	return list, nil
}

// Members implements service.Tracker.
func (f *FakeTracker) Members(ctx context.Context, workspaceID service.ID, opts ...service.CallOption) ([]service.Member, error) {
	f.mu.Lock()
	rerr := f.begin(OpMembers)
	members, ok := f.members[workspaceID]
	members = append([]service.Member(nil), members...)
	f.mu.Unlock()

	if rerr == nil && !ok {
		rerr = service.NewRemoteError(404, []service.ErrorEntry{{Message: "workspace not found"}})
	}
	if rerr != nil {
		return nil, f.fail(rerr, opts)
	}
	greengarden.SortMembers(members)
	return members, nil
}

// CreateTask implements service.Tracker.
func (f *FakeTracker) CreateTask(ctx context.Context, workspaceID service.ID, draft service.TaskDraft, opts ...service.CallOption) (service.Task, error) {
	f.mu.Lock()
	rerr := f.begin(OpCreateTask)
	var task service.Task
	if rerr == nil {
		task = service.Task{
			ID:          service.ID(fmt.Sprintf("t-%d", len(f.tasks)+1)),
			Name:        draft.Title,
			URL:         draft.URL,
			Assignee:    draft.Assignee,
			WorkspaceID: workspaceID,
		}
		f.tasks = append(f.tasks, task)
	}
	f.mu.Unlock()

	if rerr != nil {
		return service.Task{}, f.fail(rerr, opts)
	}
	return task, nil
}

// TaskViewURL implements service.Tracker.
func (f *FakeTracker) TaskViewURL(task service.Task) string {
	return f.Options().BaseURL() + "/api/1/newsitem/" + task.ID.String() + "/" + task.ID.String()
}
