package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hausops/mstodo/internal/bridge"
	"github.com/hausops/mstodo/internal/config"
	"github.com/hausops/mstodo/internal/logging"
	"github.com/hausops/mstodo/internal/todo"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds how long a handler may take to respond.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is how long keep-alive connections are held open.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Bridge is the part of the task bridge the HTTP surface needs.
type Bridge interface {
	CreateTask(ctx context.Context, nt todo.NewTask) (*todo.Task, error)
	States() []bridge.State
	State(entityID string) (bridge.State, bool)
	NotifyAuthorized()
}

// Authorizer completes the OAuth2 authorization-code flow.
type Authorizer interface {
	Exchange(ctx context.Context, code string) error
}

// Config holds configuration for the bridge's HTTP server.
type Config struct {
	// Addr is the address to bind to (e.g., ":8123").
	Addr string

	// Session completes authorization-code exchanges from the callback.
	Session Authorizer

	// Bridge serves entity states and task creation.
	Bridge Bridge

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the main HTTP server of the bridge.
type Server struct {
	httpServer *http.Server
	health     *HealthChecker
	log        *slog.Logger
}

// New assembles the server and its routes.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = logging.WithService(log, "http")

	health := NewHealthChecker()

	mux := http.NewServeMux()
	mux.Handle("GET "+config.CallbackPath, NewCallbackHandler(cfg.Session, cfg.Bridge, log))
	mux.Handle("POST /api/services/new_task", NewTaskHandler(cfg.Bridge, log))
	mux.HandleFunc("GET /api/states", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Bridge.States())
	})
	mux.HandleFunc("GET /api/states/{entity_id}", func(w http.ResponseWriter, r *http.Request) {
		st, ok := cfg.Bridge.State(r.PathValue("entity_id"))
		if !ok {
			writeJSONError(w, http.StatusNotFound, "unknown entity")
			return
		}
		writeJSON(w, http.StatusOK, st)
	})
	health.RegisterHealthEndpoints(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		health: health,
		log:    log,
	}
}

// Start starts the server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *Server) Start() error {
	s.log.Info("starting http server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server, failing the readiness probe
// first so load balancers stop routing new traffic.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.log.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
