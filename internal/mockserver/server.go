// Package mockserver serves an in-memory stand-in for the Greengarden API.
// Responses use the same {data} / {errors} envelope as the real service.
package mockserver

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"greengarden/internal/logging"
	"greengarden/internal/service"
)

// Route names accepted by Fail and Calls.
const (
	RouteMe         = "me"
	RouteWorkspaces = "workspaces"
	RouteMembers    = "members"
	RouteCreateTask = "create_task"
)

type errorEntry struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type envelope struct {
	Data   any          `json:"data,omitempty"`
	Errors []errorEntry `json:"errors,omitempty"`
}

// Server is an in-memory Greengarden API.
type Server struct {
	mu         sync.Mutex
	token      string
	me         service.Identity
	workspaces []service.Workspace
	members    map[service.ID][]service.Member
	tasks      []service.Task
	failures   map[string][]errorEntry
	calls      map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithToken requires requests to carry this bearer token.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithIdentity sets the user returned by /users/me.
func WithIdentity(id service.Identity) Option {
	return func(s *Server) { s.me = id }
}

// WithWorkspace adds a workspace and its members.
func WithWorkspace(ws service.Workspace, members ...service.Member) Option {
	return func(s *Server) {
		s.workspaces = append(s.workspaces, ws)
		s.members[ws.ID] = append(s.members[ws.ID], members...)
	}
}

// New creates a server. Without options it is seeded with demo data.
func New(opts ...Option) *Server {
	s := &Server{
		members:  make(map[service.ID][]service.Member),
		failures: make(map[string][]errorEntry),
		calls:    make(map[string]int),
	}
	if len(opts) == 0 {
		opts = DemoData()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DemoData returns the options used by a server created without options.
func DemoData() []Option {
	return []Option{
		WithIdentity(service.Identity{ID: "u-1", Name: "Ann"}),
		WithWorkspace(service.Workspace{ID: "ws-1", Name: "Research"},
			service.Member{ID: "u-2", Name: "Bob"},
			service.Member{ID: "u-3", Name: "alice"},
			service.Member{ID: "u-1", Name: "Ann"},
		),
		WithWorkspace(service.Workspace{ID: "ws-2", Name: "Reading list"},
			service.Member{ID: "u-1", Name: "Ann"},
		),
	}
}

// Fail makes route answer with an errors envelope until Recover is called.
func (s *Server) Fail(route string, messages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]errorEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, errorEntry{Message: m, Code: "injected"})
	}
	s.failures[route] = entries
}

// Recover clears an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Calls returns how many requests route has served.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Tasks returns the tasks created so far.
func (s *Server) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Task(nil), s.tasks...)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)
	r.Use(s.authenticate)

	r.Get("/users/me", s.route(RouteMe, s.handleMe))
	r.Get("/categories", s.route(RouteWorkspaces, s.handleWorkspaces))
	r.Get("/categories/{workspaceID}/users", s.route(RouteMembers, s.handleMembers))
	r.Post("/newsitems/{workspaceID}/newsitems", s.route(RouteCreateTask, s.handleCreateTask))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, r, http.StatusNotFound, errorEntry{Message: "no such endpoint", Code: "not_found"})
	})
	return r
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Default().Debug("mock request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-Id"),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.token {
				writeErrors(w, r, http.StatusUnauthorized, errorEntry{Message: "not logged in", Code: "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// route counts calls and answers with an injected failure if one is set.
func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[name]++
		failure := s.failures[name]
		s.mu.Unlock()

		if len(failure) > 0 {
			writeErrors(w, r, http.StatusBadRequest, failure...)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	me := s.me
	s.mu.Unlock()
	writeData(w, r, http.StatusOK, me)
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := append([]service.Workspace{}, s.workspaces...)
	s.mu.Unlock()
	writeData(w, r, http.StatusOK, list)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	id := service.ID(chi.URLParam(r, "workspaceID"))

	s.mu.Lock()
	members, ok := s.members[id]
	members = append([]service.Member{}, members...)
	s.mu.Unlock()

	if !ok {
		writeErrors(w, r, http.StatusNotFound, errorEntry{Message: "workspace not found", Code: "not_found"})
		return
	}
	writeData(w, r, http.StatusOK, members)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id := service.ID(chi.URLParam(r, "workspaceID"))

	var draft service.TaskDraft
	if err := render.DecodeJSON(r.Body, &draft); err != nil {
		writeErrors(w, r, http.StatusBadRequest, errorEntry{Message: "invalid request body", Code: "bad_request"})
		return
	}
	if strings.TrimSpace(draft.Title) == "" {
		writeErrors(w, r, http.StatusUnprocessableEntity, errorEntry{Message: "title is required", Code: "invalid"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		writeErrors(w, r, http.StatusNotFound, errorEntry{Message: "workspace not found", Code: "not_found"})
		return
	}
	task := service.Task{
		ID:          service.ID(uuid.NewString()),
		Name:        draft.Title,
		URL:         draft.URL,
		Assignee:    draft.Assignee,
		WorkspaceID: id,
	}
	s.tasks = append(s.tasks, task)
	writeData(w, r, http.StatusCreated, task)
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Data: data})
}

func writeErrors(w http.ResponseWriter, r *http.Request, status int, errs ...errorEntry) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Errors: errs})
}
