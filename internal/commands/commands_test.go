package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"greengarden/internal/commands"
	"greengarden/internal/config"
	"greengarden/internal/exitcode"
	"greengarden/internal/output"
	"greengarden/internal/popup"
	"greengarden/internal/service"
	"greengarden/internal/testutil"
)

// flags is a FlagValues backed by a map; present keys count as set.
type flags map[string]string

func (f flags) String(name string) string { return f[name] }
func (f flags) Bool(name string) bool     { return f[name] == "true" }
func (f flags) IsSet(name string) bool {
	_, ok := f[name]
	return ok
}

type result struct {
	stdout string
	stderr string
	code   int
}

// runIn runs cmd against cfg. Remote failures reach stderr through a
// terminal sink, the way the dispatcher wires it.
func runIn(t *testing.T, cfg *config.Config, cmd commands.Command, tr *testutil.FakeTracker, fl flags, args ...string) result {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	env := &commands.Env{
		Config: cfg,
		Flags:  fl,
		Args:   args,
		Out:    &outBuf,
		ErrOut: &errBuf,
	}
	if tr != nil {
		tr.Sink = popup.ErrorSink(output.NewTerminal(&outBuf, &errBuf, cfg.Quiet))
		env.Tracker = tr
	}
	if fl == nil {
		env.Flags = flags{}
	}

	code := cmd.Run(context.Background(), env)
	return result{stdout: outBuf.String(), stderr: errBuf.String(), code: code}
}

func run(t *testing.T, cmd commands.Command, tr *testutil.FakeTracker, fl flags, args ...string) result {
	t.Helper()
	return runIn(t, &config.Config{Dir: t.TempDir()}, cmd, tr, fl, args...)
}

func newTracker() *testutil.FakeTracker {
	tr := testutil.NewFakeTracker()
	tr.AddWorkspace("ws-1", "Research",
		service.Member{ID: "u-2", Name: "Bob"},
		service.Member{ID: "u-3", Name: "alice"},
		service.Member{ID: "u-1", Name: "Ann"},
	)
	tr.AddWorkspace("ws-2", "Reading list",
		service.Member{ID: "u-4", Name: "Zed"},
	)
	return tr
}

func TestVersionCommand(t *testing.T) {
	res := run(t, &commands.VersionCmd{}, nil, nil)

	assert.Equal(t, exitcode.Success, res.code)
	assert.Empty(t, res.stderr)
	assert.Equal(t, "greengarden 0.1.0\n", res.stdout)
}

func TestHelpCommand(t *testing.T) {
	res := run(t, commands.NewHelpCmd(commands.DefaultRegistry), nil, nil)

	assert.Equal(t, exitcode.Success, res.code)
	assert.Empty(t, res.stderr)
	assert.Contains(t, res.stdout, "Usage:")
	assert.Contains(t, res.stdout, "greengarden add --url <url>")
	assert.Contains(t, res.stdout, "greengarden mock-server")
	assert.Contains(t, res.stdout, "--log-format")
}

func TestWorkspacesCommand(t *testing.T) {
	tr := newTracker()
	opts := config.DefaultOptions()
	opts.DefaultWorkspaceID = "ws-2"
	tr.SetOptions(opts)

	res := run(t, &commands.WorkspacesCmd{}, tr, nil)

	assert.Equal(t, exitcode.Success, res.code)
	assert.Empty(t, res.stderr)
	assert.Equal(t, "ws-1  Research\nws-2  Reading list [default]\n", res.stdout)
}

func TestWorkspacesCommand_SaveDefault(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	res := runIn(t, cfg, &commands.WorkspacesCmd{}, newTracker(), flags{"default": "ws-1"})
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	assert.Equal(t, "ws-1  Research [default]\nws-2  Reading list\n", res.stdout)

	opts, err := cfg.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, "ws-1", opts.DefaultWorkspaceID)
	assert.Equal(t, config.DefaultHostPort, opts.HostPort)
}

func TestWorkspacesCommand_UnknownDefault(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	res := runIn(t, cfg, &commands.WorkspacesCmd{}, newTracker(), flags{"default": "ws-9"})
	assert.Equal(t, exitcode.UserError, res.code)
	assert.Equal(t, "error: unknown workspace: ws-9\n", res.stderr)
	assert.NoFileExists(t, cfg.OptionsPath())
}

func TestWorkspacesCommand_RemoteFailure(t *testing.T) {
	tr := newTracker()
	tr.Fail(testutil.OpWorkspaces, "server down")

	res := run(t, &commands.WorkspacesCmd{}, tr, nil)
	assert.Equal(t, exitcode.BackendError, res.code)
	assert.Equal(t, "error: server down\n", res.stderr)
	assert.Empty(t, res.stdout)
}

func TestMembersCommand(t *testing.T) {
	res := run(t, &commands.MembersCmd{}, newTracker(), nil, "ws-1")

	assert.Equal(t, exitcode.Success, res.code)
	assert.Equal(t, "u-1  Ann (you)\nu-2  Bob\nu-3  alice\n", res.stdout)
}

func TestMembersCommand_DefaultWorkspace(t *testing.T) {
	tr := newTracker()
	opts := config.DefaultOptions()
	opts.DefaultWorkspaceID = "ws-2"
	tr.SetOptions(opts)

	res := run(t, &commands.MembersCmd{}, tr, nil)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Equal(t, "u-4  Zed\n", res.stdout)
}

func TestMembersCommand_NoWorkspace(t *testing.T) {
	tr := newTracker()

	res := run(t, &commands.MembersCmd{}, tr, nil)
	assert.Equal(t, exitcode.UserError, res.code)
	assert.Contains(t, res.stderr, "workspace required")
	assert.Equal(t, 0, tr.Calls(testutil.OpMembers))
}

func TestMembersCommand_UnknownWorkspace(t *testing.T) {
	res := run(t, &commands.MembersCmd{}, newTracker(), nil, "ws-9")
	assert.Equal(t, exitcode.BackendError, res.code)
	assert.Equal(t, "error: workspace not found\n", res.stderr)
}

func TestWhoamiCommand(t *testing.T) {
	tr := newTracker()

	res := run(t, &commands.WhoamiCmd{}, tr, nil)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Equal(t, "Ann (u-1)\n", res.stdout)
	assert.Equal(t, 1, tr.Calls(testutil.OpMe))
}

func TestAddCommand(t *testing.T) {
	tr := newTracker()

	res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://example.com"}, "Read", "paper")
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	assert.Empty(t, res.stderr)
	assert.Equal(t, "workspace: Research\n"+
		"assignee:  Ann\n"+
		"created Read paper\n"+
		"http://localhost:3000/api/1/newsitem/t-1/t-1\n", res.stdout)

	tasks := tr.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, service.Task{
		ID:          "t-1",
		Name:        "Read paper",
		URL:         "http://example.com",
		Assignee:    "u-1",
		WorkspaceID: "ws-1",
	}, tasks[0])
}

func TestAddCommand_MissingURL(t *testing.T) {
	tr := newTracker()

	res := run(t, &commands.AddCmd{}, tr, nil, "title")
	assert.Equal(t, exitcode.UserError, res.code)
	assert.Equal(t, "error: --url required\n", res.stderr)
	assert.Equal(t, 0, tr.Calls(testutil.OpWorkspaces))
}

func TestAddCommand_Selection(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		wantURL   string
	}{
		{name: "text", selection: "a quote", wantURL: "http://example.com\na quote"},
		{name: "empty", selection: "", wantURL: "http://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			res := run(t, &commands.AddCmd{}, tr, flags{
				"url":       "http://example.com",
				"title":     "Quote",
				"selection": tt.selection,
			})
			require.Equal(t, exitcode.Success, res.code, res.stderr)
			require.Len(t, tr.Tasks(), 1)
			assert.Equal(t, tt.wantURL, tr.Tasks()[0].URL)
			assert.Equal(t, "Quote", tr.Tasks()[0].Name)
		})
	}
}

func TestAddCommand_Workspace(t *testing.T) {
	tr := newTracker()

	res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://x", "workspace": "ws-2"}, "t")
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	assert.Contains(t, res.stdout, "workspace: Reading list\nassignee:  (none)\n")
	assert.Equal(t, service.ID("ws-2"), tr.Tasks()[0].WorkspaceID)
	assert.Empty(t, tr.Tasks()[0].Assignee)
}

func TestAddCommand_UnknownWorkspace(t *testing.T) {
	tr := newTracker()

	res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://x", "workspace": "ws-9"}, "t")
	assert.Equal(t, exitcode.UserError, res.code)
	assert.Contains(t, res.stderr, "unknown workspace")
	assert.Empty(t, tr.Tasks())
}

func TestAddCommand_Assignee(t *testing.T) {
	tests := []struct {
		name     string
		assignee string
		code     int
		want     service.ID
	}{
		{name: "member", assignee: "u-2", code: exitcode.Success, want: "u-2"},
		{name: "none", assignee: commands.NoAssignee, code: exitcode.Success, want: ""},
		{name: "not a member", assignee: "u-9", code: exitcode.UserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://x", "assignee": tt.assignee}, "t")
			require.Equal(t, tt.code, res.code, res.stderr)
			if tt.code != exitcode.Success {
				assert.Equal(t, "error: u-9 is not a member of workspace ws-1\n", res.stderr)
				assert.Empty(t, tr.Tasks())
				return
			}
			assert.Equal(t, tt.want, tr.Tasks()[0].Assignee)
		})
	}
}

func TestAddCommand_CreateFailureShownOnce(t *testing.T) {
	tr := newTracker()
	tr.Fail(testutil.OpCreateTask, "title too long")

	res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://x"}, "t")
	assert.Equal(t, exitcode.BackendError, res.code)
	assert.Equal(t, "error: title too long\n", res.stderr)
	assert.NotContains(t, res.stdout, "created")
}

func TestAddCommand_OpenFailure(t *testing.T) {
	tr := newTracker()
	tr.Fail(testutil.OpMe, "session expired")

	res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://x"}, "t")
	assert.Equal(t, exitcode.BackendError, res.code)
	assert.Equal(t, "error: session expired\n", res.stderr)
	assert.Empty(t, tr.Tasks())
}

func TestAddCommand_LoginRequired(t *testing.T) {
	tr := newTracker()
	opts := config.DefaultOptions()
	opts.RequireLogin = true
	tr.SetOptions(opts)
	tr.SetLoggedIn(false)

	res := run(t, &commands.AddCmd{}, tr, flags{"url": "http://x"}, "t")
	assert.Equal(t, exitcode.AuthError, res.code)
	assert.Contains(t, res.stderr, "http://localhost:3000/login")
	assert.Equal(t, 0, tr.Calls(testutil.OpWorkspaces))
}

func TestAddCommand_Quiet(t *testing.T) {
	tr := newTracker()

	res := runIn(t, &config.Config{Dir: t.TempDir(), Quiet: true}, &commands.AddCmd{}, tr, flags{"url": "http://x"}, "t")
	assert.Equal(t, exitcode.Success, res.code)
	assert.Empty(t, res.stdout)
	assert.Len(t, tr.Tasks(), 1)
}

func TestMockServerCommand_BadAddress(t *testing.T) {
	res := run(t, &commands.MockServerCmd{}, nil, flags{"addr": "not an address"})
	assert.Equal(t, exitcode.UserError, res.code)
	assert.Contains(t, res.stderr, "error:")
}

func TestMockServerCommand_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	code := (&commands.MockServerCmd{}).Run(ctx, &commands.Env{
		Config: &config.Config{Dir: t.TempDir()},
		Flags:  flags{"addr": "127.0.0.1:0"},
		Out:    &outBuf,
		ErrOut: &errBuf,
	})

	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, outBuf.String(), "listening on http://127.0.0.1:")
	assert.Empty(t, errBuf.String())
}

type stubCmd struct {
	name    string
	aliases []string
}

func (c stubCmd) Name() string                          { return c.name }
func (c stubCmd) Aliases() []string                     { return c.aliases }
func (c stubCmd) Synopsis() string                      { return "" }
func (c stubCmd) Usage() string                         { return c.name }
func (c stubCmd) NeedsTracker() bool                    { return false }
func (c stubCmd) Flags() []cli.Flag                     { return nil }
func (c stubCmd) Run(context.Context, *commands.Env) int { return exitcode.Success }

func TestRegistry(t *testing.T) {
	r := commands.NewRegistry()
	require.NoError(t, r.Register(stubCmd{name: "b", aliases: []string{"bee"}}))
	require.NoError(t, r.Register(stubCmd{name: "a"}))

	assert.Error(t, r.Register(stubCmd{name: "bee"}))
	assert.Error(t, r.Register(stubCmd{name: "c", aliases: []string{"a"}}))

	cmd, ok := r.Find("bee")
	require.True(t, ok)
	assert.Equal(t, "b", cmd.Name())

	_, ok = r.Find("c")
	assert.False(t, ok)

	var names []string
	for _, c := range r.All() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"a", "b"}, names)
}
