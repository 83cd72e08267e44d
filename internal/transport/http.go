package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/mcp"
	"github.com/go-chi/chi/v5"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error)
	RenderView(tenantID, sessionID string, surface activity.Surface, limit int) (*mcp.ViewResponse, error)
}

// SessionSource looks up live demo sessions for streaming.
type SessionSource interface {
	Get(tenantID, sessionID string) (*demo.Session, error)
	Len() int
}

// HealthChecker reports storage health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int64, error)
}

// Options configures the HTTP router.
type Options struct {
	Handler  MCPHandler
	Sessions SessionSource
	// MCP is the streamable MCP endpoint mounted at /mcp. Optional.
	MCP http.Handler
	// DB is optional; health reports storage only when set.
	DB   HealthChecker
	Auth func(http.Handler) http.Handler
	// KeepAlive is the SSE comment interval. Zero means 15s.
	KeepAlive time.Duration
	Logger    *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler   MCPHandler
	sessions  SessionSource
	db        HealthChecker
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{
		handler:   opts.Handler,
		sessions:  opts.Sessions,
		db:        opts.DB,
		keepAlive: opts.KeepAlive,
		logger:    opts.Logger,
	}
	if srv.keepAlive <= 0 {
		srv.keepAlive = 15 * time.Second
	}
	if srv.logger == nil {
		srv.logger = slog.Default()
	}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Use(SessionMiddleware)

		r.Post("/rpc", srv.handleRPC)
		r.Get("/sessions/{sessionID}/views/{surface}", srv.handleView)
		r.Get("/sessions/{sessionID}/events", srv.handleEvents)
	})

	// The MCP endpoint authenticates inside the MCP middleware chain.
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	return r
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status        string `json:"status"`
	Storage       string `json:"storage,omitempty"`
	SchemaVersion int64  `json:"schema_version,omitempty"`
	Sessions      int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Status: "ok"}
	code := http.StatusOK
	if s.sessions != nil {
		status.Sessions = s.sessions.Len()
	}
	if s.db != nil {
		status.Storage = "connected"
		if err := s.db.PingContext(r.Context()); err != nil {
			status.Status = "unhealthy"
			status.Storage = "disconnected"
			code = http.StatusServiceUnavailable
		} else if v, err := s.db.SchemaVersion(r.Context()); err == nil {
			status.SchemaVersion = v
		}
	}
	writeBody(w, code, status)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	surface := activity.Surface(chi.URLParam(r, "surface"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBody(w, http.StatusBadRequest, map[string]any{"error": &mcp.APIError{Code: "INVALID_INPUT", Message: "limit must be a non-negative integer"}})
			return
		}
		limit = n
	}

	view, err := s.handler.RenderView(tenantID, sessionID, surface, limit)
	if err != nil {
		apiErr := mcp.MapError(err)
		if apiErr == nil {
			apiErr = &mcp.APIError{Code: "INTERNAL", Message: err.Error()}
		}
		writeBody(w, httpStatus(apiErr.Code), map[string]any{"error": apiErr})
		return
	}
	writeBody(w, http.StatusOK, view)
}

func httpStatus(code string) int {
	switch code {
	case "SESSION_NOT_FOUND", "FIXTURE_NOT_FOUND":
		return http.StatusNotFound
	case "INTERNAL":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeBody(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
