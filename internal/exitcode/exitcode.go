// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown workspace or member).
	UserError = 1

	// AuthError indicates a login or config error.
	AuthError = 2

	// BackendError indicates the tracker reported an error or could not be reached.
	BackendError = 3
)
