package commands_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greengarden/internal/backend/greengarden"
	"greengarden/internal/commands"
	"greengarden/internal/config"
	"greengarden/internal/exitcode"
)

func TestLoginCommand_PrintsLoginURL(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	res := runIn(t, cfg, &commands.LoginCmd{}, nil, nil)
	assert.Equal(t, exitcode.AuthError, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "http://localhost:3000/login\n")
	assert.False(t, cfg.HasToken())
}

func TestLoginCommand_LoginURLFollowsOptions(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}
	opts := config.DefaultOptions()
	opts.HostPort = "tracker.example:8080"
	require.NoError(t, cfg.SaveOptions(opts))

	res := runIn(t, cfg, &commands.LoginCmd{}, nil, nil)
	assert.Contains(t, res.stderr, "http://tracker.example:8080/login\n")
}

func TestLoginCommand_StoresToken(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir() + "/nested"}

	res := runIn(t, cfg, &commands.LoginCmd{}, nil, flags{"token": " secret-token \n"})
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	assert.Equal(t, "ok\n", res.stdout)

	info, err := os.Stat(cfg.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err := greengarden.LoadToken(cfg.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, "secret-token", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
}

func TestLoginCommand_AlreadyLoggedIn(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(cfg.TokenPath(), []byte(`{"access_token":"x"}`), 0600))

	res := runIn(t, cfg, &commands.LoginCmd{}, nil, nil)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Equal(t, "already logged in\n", res.stdout)
}

func TestLogoutCommand(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(cfg.TokenPath(), []byte(`{"access_token":"x"}`), 0600))

	res := runIn(t, cfg, &commands.LogoutCmd{}, nil, nil)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Equal(t, "ok\n", res.stdout)
	assert.False(t, cfg.HasToken())
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	res := run(t, &commands.LogoutCmd{}, nil, nil)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Equal(t, "not logged in\n", res.stdout)
}

func TestLogoutCommand_Quiet(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir(), Quiet: true}
	require.NoError(t, os.WriteFile(cfg.TokenPath(), []byte(`{"access_token":"x"}`), 0600))

	res := runIn(t, cfg, &commands.LogoutCmd{}, nil, nil)
	assert.Equal(t, exitcode.Success, res.code)
	assert.Empty(t, res.stdout)
	assert.False(t, cfg.HasToken())
}
