package service

import (
	"context"

	"greengarden/internal/config"
)

// Tracker defines the interface for task tracker operations.
// All remote API calls go through this interface; the popup flow never
// talks HTTP directly.
//
// Failed remote calls return a *RemoteError and, before returning, hand that
// error to the call's errback (see WithErrback) or to the tracker's default
// error sink. Exactly one of the two paths runs per call.
type Tracker interface {
	// Options returns the locally stored extension options.
	Options() config.Options

	// LoggedIn reports whether credentials for the tracker are present.
	LoggedIn() bool

	// Me returns the logged-in user. The first successful result is cached
	// and returned without a remote call afterwards.
	Me(ctx context.Context, opts ...CallOption) (Identity, error)

	// Workspaces returns the workspaces the user belongs to. Never cached.
	Workspaces(ctx context.Context, opts ...CallOption) ([]Workspace, error)

	// Members returns the members of a workspace sorted by name
	// (ordinal, case-sensitive, stable).
	Members(ctx context.Context, workspaceID ID, opts ...CallOption) ([]Member, error)

	// CreateTask creates a task in a workspace. Identical drafts submitted
	// twice create two tasks.
	CreateTask(ctx context.Context, workspaceID ID, draft TaskDraft, opts ...CallOption) (Task, error)

	// TaskViewURL returns the URL at which a created task can be viewed.
	TaskViewURL(task Task) string
}
