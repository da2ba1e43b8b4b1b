// Package telemetry forwards remote errors to Sentry when a DSN is configured.
package telemetry

import (
	"runtime"
	"strconv"
	"time"

	gosentry "github.com/getsentry/sentry-go"

	"greengarden/internal/service"
)

// Reporter sends remote errors to Sentry. The zero value and a Reporter
// created without a DSN are no-ops.
type Reporter struct {
	hub *gosentry.Hub
}

// New initializes a Sentry client for dsn. An empty dsn yields a disabled
// reporter.
func New(dsn, version string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{}, nil
	}

	client, err := gosentry.NewClient(gosentry.ClientOptions{
		Dsn:              dsn,
		Release:          "greengarden@" + version,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
	if err != nil {
		return nil, err
	}

	scope := gosentry.NewScope()
	scope.SetTag("os", runtime.GOOS)
	scope.SetTag("arch", runtime.GOARCH)
	scope.SetTag("go_version", runtime.Version())
	scope.SetTag("version", version)

	return &Reporter{hub: gosentry.NewHub(client, scope)}, nil
}

// Enabled reports whether events are sent.
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// Wrap returns a handler that reports each error and then calls next.
func (r *Reporter) Wrap(next service.ErrorHandler) service.ErrorHandler {
	if !r.Enabled() {
		return next
	}
	return func(e *service.RemoteError) {
		r.Report(e)
		if next != nil {
			next(e)
		}
	}
}

// Report sends e to Sentry.
func (r *Reporter) Report(e *service.RemoteError) {
	if !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *gosentry.Scope) {
		scope.SetTag("status", statusTag(e.Status))
		scope.SetContext("remote_error", map[string]interface{}{
			"status":   e.Status,
			"messages": messages(e),
		})
		r.hub.CaptureException(e)
	})
}

// Flush waits up to 2 seconds for buffered events to be sent.
func (r *Reporter) Flush() {
	if !r.Enabled() {
		return
	}
	r.hub.Flush(2 * time.Second)
}

func messages(e *service.RemoteError) []string {
	out := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		out = append(out, entry.Message)
	}
	return out
}

func statusTag(status int) string {
	if status == 0 {
		return "transport"
	}
	return strconv.Itoa(status)
}
