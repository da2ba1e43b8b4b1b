// Package config locates the greengarden configuration directory and loads
// the tracker options and API token stored in it.
package config

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the application directory name.
	AppName = "greengarden"

	// OptionsFile is the local options filename.
	OptionsFile = "options.toml"

	// TokenFile is the stored API token filename.
	TokenFile = "token.json"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// LogFormat selects the log handler: "console" or "json".
	LogFormat string
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/greengarden or $HOME/.config/greengarden.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, LogFormat: "console"}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// OptionsPath returns the path to options.toml, which holds the tracker
// host, default workspace, login switch, selection timeout and Sentry DSN.
// See LoadOptions.
func (c *Config) OptionsPath() string {
	return filepath.Join(c.Dir, OptionsFile)
}

// TokenPath returns the path to the API token saved by the login command.
// The tracker client sends it as a bearer token.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken reports whether a login token has been saved. The token itself
// is only validated by the tracker.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken forgets the saved login token.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
