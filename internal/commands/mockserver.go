package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"greengarden/internal/exitcode"
	"greengarden/internal/logging"
	"greengarden/internal/mockserver"
)

const shutdownTimeout = 5 * time.Second

func init() {
	Register(&MockServerCmd{})
}

// MockServerCmd serves an in-memory tracker seeded with demo data.
type MockServerCmd struct{}

func (c *MockServerCmd) Name() string       { return "mock-server" }
func (c *MockServerCmd) Aliases() []string  { return nil }
func (c *MockServerCmd) Synopsis() string   { return "Serve a local tracker with demo data" }
func (c *MockServerCmd) Usage() string      { return "greengarden mock-server [--addr <host:port>] [--token <token>]" }
func (c *MockServerCmd) NeedsTracker() bool { return false }

func (c *MockServerCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Value: "localhost:3000", Usage: "listen address"},
		&cli.StringFlag{Name: "token", Usage: "require this bearer token"},
	}
}

func (c *MockServerCmd) Run(ctx context.Context, env *Env) int {
	logger := logging.From(ctx)

	opts := mockserver.DemoData()
	if token := env.Flags.String("token"); token != "" {
		opts = append(opts, mockserver.WithToken(token))
	}
	srv := &http.Server{
		Handler:           mockserver.New(opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", env.Flags.String("addr"))
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !env.Config.Quiet {
		fmt.Fprintf(env.Out, "listening on http://%s\n", ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(env.ErrOut, "error: %v\n", err)
			return exitcode.BackendError
		}
	case <-ctx.Done():
		logger.Info("shutting down mock server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mock server shutdown failed", "error", err)
		}
	}
	return exitcode.Success
}
