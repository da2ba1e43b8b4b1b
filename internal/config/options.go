package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultHostPort is used when no host is configured.
	DefaultHostPort = "localhost:3000"

	// DefaultSelectionTimeout bounds the wait for a page selection.
	DefaultSelectionTimeout = 2 * time.Second

	// envPrefix is the prefix of environment overrides, e.g. GREENGARDEN_HOST_PORT.
	envPrefix = "greengarden"
)

// Options are the user's local settings for the client.
type Options struct {
	DefaultWorkspaceID string `toml:"default_workspace_id" envconfig:"DEFAULT_WORKSPACE_ID"`
	HostPort           string `toml:"greengarden_host_port" envconfig:"HOST_PORT"`
	RequireLogin       bool   `toml:"require_login" envconfig:"REQUIRE_LOGIN"`
	SelectionTimeoutMS int    `toml:"selection_timeout_ms" envconfig:"SELECTION_TIMEOUT_MS"`
	SentryDSN          string `toml:"sentry_dsn" envconfig:"SENTRY_DSN" masq:"secret"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HostPort:           DefaultHostPort,
		SelectionTimeoutMS: int(DefaultSelectionTimeout / time.Millisecond),
	}
}

// SelectionTimeout returns the handshake timeout as a duration.
func (o Options) SelectionTimeout() time.Duration {
	if o.SelectionTimeoutMS <= 0 {
		return DefaultSelectionTimeout
	}
	return time.Duration(o.SelectionTimeoutMS) * time.Millisecond
}

// BaseURL returns the root URL of the tracker.
func (o Options) BaseURL() string {
	return "http://" + o.HostPort
}

// LoginURL returns the page where the user signs in to the tracker.
func (o Options) LoginURL() string {
	return o.BaseURL() + "/login"
}

// LoadOptions reads options.toml from the config directory and applies
// GREENGARDEN_* environment overrides. A missing file yields defaults.
func (c *Config) LoadOptions() (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(c.OptionsPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Options{}, goerr.Wrap(err, "failed to read options", goerr.V("path", c.OptionsPath()))
	default:
		if err := toml.Unmarshal(data, &opts); err != nil {
			return Options{}, goerr.Wrap(err, "invalid options file", goerr.V("path", c.OptionsPath()))
		}
	}

	if err := envconfig.Process(envPrefix, &opts); err != nil {
		return Options{}, goerr.Wrap(err, "invalid environment override")
	}

	if opts.HostPort == "" {
		opts.HostPort = DefaultHostPort
	}
	return opts, nil
}

// SaveOptions writes options.toml with mode 0600.
func (c *Config) SaveOptions(opts Options) error {
	if err := c.EnsureDir(); err != nil {
		return goerr.Wrap(err, "failed to create config directory", goerr.V("dir", c.Dir))
	}
	data, err := toml.Marshal(opts)
	if err != nil {
		return goerr.Wrap(err, "failed to encode options")
	}
	if err := os.WriteFile(c.OptionsPath(), data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write options", goerr.V("path", c.OptionsPath()))
	}
	return nil
}
