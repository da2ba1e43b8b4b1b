package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"greengarden/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. The tracker signs users in on its
// own login page; the API token it hands out is stored in token.json.
type LoginCmd struct{}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Store an API token" }
func (c *LoginCmd) Usage() string      { return "greengarden login [--token <token>]" }
func (c *LoginCmd) NeedsTracker() bool { return false }

func (c *LoginCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "token", Usage: "API token from the login page", Sources: cli.EnvVars("GREENGARDEN_TOKEN")},
	}
}

func (c *LoginCmd) Run(ctx context.Context, env *Env) int {
	cfg := env.Config
	token := strings.TrimSpace(env.Flags.String("token"))

	if token == "" {
		if cfg.HasToken() {
			if !cfg.Quiet {
				fmt.Fprintln(env.Out, "already logged in")
			}
			return exitcode.Success
		}

		opts, err := cfg.LoadOptions()
		if err != nil {
			fmt.Fprintf(env.ErrOut, "error: %v\n", err)
			return exitcode.AuthError
		}
		fmt.Fprintln(env.ErrOut, "Open this URL in your browser and copy your API token:")
		fmt.Fprintln(env.ErrOut, opts.LoginURL())
		fmt.Fprintln(env.ErrOut, "Then run: greengarden login --token <token>")
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(env.ErrOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	if err := saveToken(cfg.TokenPath(), &oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(env.Out, "ok")
	}
	return exitcode.Success
}

// saveToken saves an OAuth token to a file with mode 0600.
func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode token")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to save token", goerr.V("path", path))
	}
	return nil
}
