package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greengarden/internal/cli"
	"greengarden/internal/commands"
	"greengarden/internal/config"
	"greengarden/internal/exitcode"
	"greengarden/internal/mockserver"
	"greengarden/internal/service"
	"greengarden/internal/testutil"
)

// testFactory returns tr wired to the dispatcher's sink and records the
// config it was built from.
func testFactory(tr *testutil.FakeTracker, got **config.Config) cli.TrackerFactory {
	return func(ctx context.Context, cfg *config.Config, sink service.ErrorHandler) (service.Tracker, error) {
		tr.Sink = sink
		if got != nil {
			*got = cfg
		}
		return tr, nil
	}
}

func newTracker() *testutil.FakeTracker {
	tr := testutil.NewFakeTracker()
	tr.AddWorkspace("ws-1", "Research", service.Member{ID: "u-1", Name: "Ann"})
	return tr
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	stdout, stderr, code := run(t, d, "unknowncmd")
	assert.Equal(t, exitcode.UserError, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "error: unknown command: unknowncmd\n", stderr)
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	_, stderr, code := run(t, d, "--quiet")
	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: --quiet\n", stderr)
}

func TestDispatcher_NoArgsPrintsHelp(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	stdout, stderr, code := run(t, d)
	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
}

func TestDispatcher_HelpCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	stdout, stderr, code := run(t, d, "help")
	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
}

func TestDispatcher_VersionCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	stdout, stderr, code := run(t, d, "version")
	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "greengarden 0.1.0\n", stdout)
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	stdout, stderr, code := run(t, d, "version", "--unknown")
	assert.Equal(t, exitcode.UserError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "error: ")
	assert.Contains(t, stderr, "unknown")
}

func TestDispatcher_GlobalFlagsReachConfig(t *testing.T) {
	dir := t.TempDir()
	var got *config.Config
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), &got))

	_, stderr, code := run(t, d, "whoami", "--config", dir, "--quiet", "--log-format", "json")
	require.Equal(t, exitcode.Success, code, stderr)
	require.NotNil(t, got)
	assert.Equal(t, dir, got.Dir)
	assert.True(t, got.Quiet)
	assert.Equal(t, "json", got.LogFormat)
}

func TestDispatcher_BadLogFormat(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	_, stderr, code := run(t, d, "version", "--log-format", "xml")
	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "unknown log format")
}

func TestDispatcher_AliasDispatches(t *testing.T) {
	tr := newTracker()
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(tr, nil))

	stdout, _, code := run(t, d, "me", "--config", t.TempDir())
	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "Ann (u-1)\n", stdout)
}

func TestDispatcher_SinkShowsRemoteErrors(t *testing.T) {
	tr := newTracker()
	tr.Fail(testutil.OpWorkspaces, "server down")
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(tr, nil))

	_, stderr, code := run(t, d, "workspaces", "--config", t.TempDir())
	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: server down\n", stderr)
}

func TestDispatcher_InvalidOptions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.OptionsFile), []byte("not = [valid"), 0600))
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(newTracker(), nil))

	_, stderr, code := run(t, d, "workspaces", "--config", dir)
	assert.Equal(t, exitcode.AuthError, code)
	assert.Contains(t, stderr, "config error")
}

func TestDispatcher_DefaultFactoryAgainstMockServer(t *testing.T) {
	srv := httptest.NewServer(mockserver.New().Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{Dir: dir}
	opts := config.DefaultOptions()
	opts.HostPort = srv.Listener.Addr().String()
	require.NoError(t, cfg.SaveOptions(opts))

	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	stdout, stderr, code := run(t, d, "add", "--config", dir, "--url", "http://example.com", "Read")
	require.Equal(t, exitcode.Success, code, stderr)
	assert.Contains(t, stdout, "workspace: Research\n")
	assert.Contains(t, stdout, "created Read\n")
	assert.Contains(t, stdout, "http://"+opts.HostPort+"/api/1/newsitem/")
}
