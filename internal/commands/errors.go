package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"greengarden/internal/exitcode"
	"greengarden/internal/popup"
	"greengarden/internal/service"
)

// exitFor maps err to an exit code. Remote errors and popup states have
// already been shown through the view, so only other errors are printed.
func exitFor(errOut io.Writer, err error) int {
	var rerr *service.RemoteError
	switch {
	case errors.As(err, &rerr):
		return exitcode.BackendError
	case errors.Is(err, popup.ErrNotLoggedIn):
		return exitcode.AuthError
	case errors.Is(err, popup.ErrNoWorkspaces):
		return exitcode.UserError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
}
