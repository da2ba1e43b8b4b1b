// Package greengarden implements the service.Tracker interface against the
// Greengarden REST API.
package greengarden

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"greengarden/internal/config"
	"greengarden/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// viewPrefix is the path under which tasks are shown in a browser.
	viewPrefix = "/api/1/newsitem/"
)

// Client implements service.Tracker using the Greengarden API.
type Client struct {
	http    *http.Client
	baseURL string
	opts    config.Options
	token   *oauth2.Token
	sink    service.ErrorHandler
	cache   *IdentityCache
	group   singleflight.Group
}

var _ service.Tracker = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL overrides the API root derived from the options.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithToken authenticates requests with a bearer token.
func WithToken(tok *oauth2.Token) Option {
	return func(c *Client) { c.token = tok }
}

// WithErrorSink installs the default failure handler, used by calls that
// were not given an errback.
func WithErrorSink(h service.ErrorHandler) Option {
	return func(c *Client) { c.sink = h }
}

// WithIdentityCache shares an identity cache between clients.
func WithIdentityCache(cache *IdentityCache) Option {
	return func(c *Client) { c.cache = cache }
}

// New creates a client for the tracker described by opts.
func New(ctx context.Context, opts config.Options, options ...Option) *Client {
	c := &Client{
		http:    http.DefaultClient,
		baseURL: opts.BaseURL(),
		opts:    opts,
		cache:   NewIdentityCache(),
	}
	for _, opt := range options {
		opt(c)
	}

	if c.token != nil {
		// oauth2 uses the client carried by ctx as its base transport.
		baseCtx := context.WithValue(ctx, oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(baseCtx, oauth2.StaticTokenSource(c.token))
	}
	return c
}

// NewFromConfig creates a client from options.toml and token.json.
// A missing token is not an error; requests are then sent unauthenticated.
func NewFromConfig(ctx context.Context, cfg *config.Config, options ...Option) (*Client, error) {
	opts, err := cfg.LoadOptions()
	if err != nil {
		return nil, err
	}

	if cfg.HasToken() {
		tok, err := LoadToken(cfg.TokenPath())
		if err != nil {
			return nil, err
		}
		options = append([]Option{WithToken(tok)}, options...)
	}
	return New(ctx, opts, options...), nil
}

// LoadToken reads a token file written by the login command.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read token.json")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, goerr.Wrap(err, "invalid token.json")
	}
	if tok.AccessToken == "" {
		return nil, goerr.New("token.json has no access token")
	}
	return &tok, nil
}

// Options implements service.Tracker.
func (c *Client) Options() config.Options {
	return c.opts
}

// LoggedIn implements service.Tracker.
func (c *Client) LoggedIn() bool {
	return c.token != nil && c.token.AccessToken != ""
}

// Me implements service.Tracker.
func (c *Client) Me(ctx context.Context, opts ...service.CallOption) (service.Identity, error) {
	o := service.ApplyCallOptions(opts...)

	for {
		if id, ok := c.cache.Load(); ok {
			return id, nil
		}

		v, _, _ := c.group.Do("me", func() (any, error) {
			// A caller that missed the cache may join after the previous
			// flight already stored the identity.
			if id, ok := c.cache.Load(); ok {
				return outcome[service.Identity]{value: id}, nil
			}
			res := c.request(ctx, http.MethodGet, "/users/me", nil)
			if res.cancelled != nil {
				return outcome[service.Identity]{cancelled: res.cancelled}, nil
			}
			id, rerr := decode[service.Identity](res)
			if rerr == nil {
				c.cache.Store(id)
			}
			return outcome[service.Identity]{value: id, err: rerr}, nil
		})
		out := v.(outcome[service.Identity])

		if out.cancelled != nil {
			// The shared flight ran under another caller's context.
			if err := ctx.Err(); err != nil {
				return service.Identity{}, err
			}
			continue
		}
		return settle(ctx, c, out.value, out.err, o)
	}
}

// Workspaces implements service.Tracker.
func (c *Client) Workspaces(ctx context.Context, opts ...service.CallOption) ([]service.Workspace, error) {
	res := c.request(ctx, http.MethodGet, "/categories", nil)
	return dispatch[[]service.Workspace](ctx, c, res, service.ApplyCallOptions(opts...))
}

// Members implements service.Tracker.
func (c *Client) Members(ctx context.Context, workspaceID service.ID, opts ...service.CallOption) ([]service.Member, error) {
	res := c.request(ctx, http.MethodGet, "/categories/"+url.PathEscape(workspaceID.String())+"/users", nil)
	members, err := dispatch[[]service.Member](ctx, c, res, service.ApplyCallOptions(opts...))
	if err != nil {
		return nil, err
	}
	SortMembers(members)
	return members, nil
}

// CreateTask implements service.Tracker.
func (c *Client) CreateTask(ctx context.Context, workspaceID service.ID, draft service.TaskDraft, opts ...service.CallOption) (service.Task, error) {
	path := "/newsitems/" + url.PathEscape(workspaceID.String()) + "/newsitems"
	res := c.request(ctx, http.MethodPost, path, draft)
	return dispatch[service.Task](ctx, c, res, service.ApplyCallOptions(opts...))
}

// TaskViewURL implements service.Tracker.
// The tracker picks a suitable container when given the task id twice.
func (c *Client) TaskViewURL(task service.Task) string {
	id := url.PathEscape(task.ID.String())
	return c.opts.BaseURL() + viewPrefix + id + "/" + id
}

// SortMembers orders members by name using byte-wise comparison; members
// with equal names keep their relative order.
func SortMembers(members []service.Member) {
	slices.SortStableFunc(members, func(a, b service.Member) int {
		return strings.Compare(a.Name, b.Name)
	})
}
