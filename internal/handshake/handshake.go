package handshake

import (
	"context"
	"time"

	"greengarden/internal/logging"
)

const (
	// DefaultTimeout bounds the whole wait for a selection.
	DefaultTimeout = 2 * time.Second

	// DefaultSettle is how long a selection may trail the injection's
	// completion signal.
	DefaultSettle = 250 * time.Millisecond
)

// Handshake requests page selections over a Bus.
type Handshake struct {
	bus      *Bus
	injector Injector
	timeout  time.Duration
	settle   time.Duration
}

// Option configures a Handshake.
type Option func(*Handshake)

// WithTimeout sets the overall deadline.
func WithTimeout(d time.Duration) Option {
	return func(h *Handshake) { h.timeout = d }
}

// WithSettle sets the grace period after completion.
func WithSettle(d time.Duration) Option {
	return func(h *Handshake) { h.settle = d }
}

// New returns a Handshake listening on bus and invoking capabilities
// through injector.
func New(bus *Bus, injector Injector, opts ...Option) *Handshake {
	h := &Handshake{
		bus:      bus,
		injector: injector,
		timeout:  DefaultTimeout,
		settle:   DefaultSettle,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RequestSelection returns the selection of tab, prefixed with a newline
// when non-empty. It yields "" when the tab has no sendSelection capability,
// when nothing arrives before the deadline, or when the selection is empty.
// The only error is ctx's. The listener is removed before returning.
func (h *Handshake) RequestSelection(ctx context.Context, tab Tab) (string, error) {
	logger := logging.From(ctx).With("tab", tab.ID)

	got := make(chan string, 1)
	sub := h.bus.Once(KindSelection, func(msg Message) {
		select {
		case got <- msg.Value:
		default:
		}
	})
	defer sub.Remove()

	done := h.injector.Execute(ctx, tab, CapSendSelection)

	deadline := time.NewTimer(h.timeout)
	defer deadline.Stop()
	var settle <-chan time.Time

	for {
		select {
		case value := <-got:
			logger.Debug("selection received", "length", len(value))
			return withSeparator(value), nil

		case c := <-done:
			done = nil
			if !c.Available {
				return "", nil
			}
			if c.Err != nil {
				logger.Debug("selection capability failed", "error", c.Err)
			}
			t := time.NewTimer(h.settle)
			defer t.Stop()
			settle = t.C

		case <-settle:
			logger.Debug("no selection after completion")
			return "", nil

		case <-deadline.C:
			logger.Debug("selection timed out", "timeout", h.timeout)
			return "", nil

		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func withSeparator(value string) string {
	if value == "" {
		return ""
	}
	return "\n" + value
}
