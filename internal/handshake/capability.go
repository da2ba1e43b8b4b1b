package handshake

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"greengarden/internal/logging"
)

// Func is a capability body. It runs inside a content context and may push
// messages back through port.
type Func func(ctx context.Context, port Sender) error

// Capability is a function a content context may or may not expose.
type Capability struct {
	fn Func
}

// Available wraps fn as a present capability.
func Available(fn Func) Capability {
	return Capability{fn: fn}
}

// Unavailable is the absent capability.
var Unavailable = Capability{}

// Func returns the capability body and whether it is present.
func (c Capability) Func() (Func, bool) {
	return c.fn, c.fn != nil
}

// ContentContext is the execution context attached to a tab.
type ContentContext interface {
	Lookup(name string) Capability
}

// Tab is the page that was active when the request was made.
type Tab struct {
	ID      int
	URL     string
	Title   string
	Content ContentContext
}

// Completion reports that an injected call returned. It says nothing about
// whether messages sent by the call have been handled.
type Completion struct {
	Available bool
	Err       error
}

// Injector invokes a named capability inside a tab's content context.
type Injector interface {
	Execute(ctx context.Context, tab Tab, name string) <-chan Completion
}

// Executor runs capabilities on their own goroutine, wired to port.
type Executor struct {
	port Sender
}

var _ Injector = (*Executor)(nil)

// NewExecutor returns an executor whose capabilities send through port.
func NewExecutor(port Sender) *Executor {
	return &Executor{port: port}
}

// Execute implements Injector. The returned channel yields exactly one
// Completion. A missing capability completes immediately as unavailable.
func (e *Executor) Execute(ctx context.Context, tab Tab, name string) <-chan Completion {
	done := make(chan Completion, 1)

	var capability Capability
	if tab.Content != nil {
		capability = tab.Content.Lookup(name)
	}
	fn, ok := capability.Func()
	if !ok {
		logging.From(ctx).Debug("capability not present", "tab", tab.ID, "capability", name)
		done <- Completion{}
		return done
	}

	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = goerr.New("capability panicked", goerr.V("capability", name), goerr.V("panic", r))
			}
			done <- Completion{Available: true, Err: err}
		}()
		err = fn(ctx, e.port)
	}()
	return done
}
