package demo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/domain/toast"
	"github.com/ganot/agentic-te/internal/policy"
	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 30 * time.Minute

// RegistryOptions configures the sessions a registry creates. A zero toast
// window means toast.DefaultWindow; a negative one disables suppression.
type RegistryOptions struct {
	Catalog   *scenario.Catalog
	Store     activity.StoreOptions
	Toasts    toast.Options
	IdleTTL   time.Duration
	Extractor ReceiptExtractor
	Recorder  RunRecorder
}

type sessionKey struct {
	tenantID string
	id       string
}

// Registry owns every live demo session, keyed by tenant and session id.
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger
	opts   RegistryOptions

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(clk clock.Clock, logger *slog.Logger, opts RegistryOptions) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Toasts.Window == 0 {
		opts.Toasts.Window = toast.DefaultWindow
	}
	if opts.Catalog == nil {
		opts.Catalog = scenario.NewCatalog(policy.DefaultRules())
	}
	return &Registry{
		clock:    clk,
		logger:   logger,
		opts:     opts,
		sessions: make(map[sessionKey]*Session),
	}
}

// Catalog returns the scenario catalog sessions play from.
func (r *Registry) Catalog() *scenario.Catalog {
	return r.opts.Catalog
}

// Get returns an existing session.
func (r *Registry) Get(tenantID, sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sessionKey{tenantID, sessionID}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// Open returns the session with sessionID, creating it when absent. An
// empty id always creates a new session.
func (r *Registry) Open(tenantID, sessionID string) (*Session, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if len(sessionID) > 128 {
		return nil, false, fmt.Errorf("%w: session id too long", ErrInvalidInput)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{tenantID, sessionID}
	if sess, ok := r.sessions[key]; ok {
		return sess, false, nil
	}
	sess := r.newSession(tenantID, sessionID)
	r.sessions[key] = sess
	if r.logger != nil {
		r.logger.Info("demo session created", "session_id", sessionID, "tenant_id", tenantID)
	}
	return sess, true, nil
}

// Close tears a session down and forgets it.
func (r *Registry) Close(tenantID, sessionID string) error {
	r.mu.Lock()
	key := sessionKey{tenantID, sessionID}
	sess, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.close()
	if r.logger != nil {
		r.logger.Info("demo session closed", "session_id", sessionID, "tenant_id", tenantID)
	}
	return nil
}

// List returns a tenant's sessions, most recently active first.
func (r *Registry) List(tenantID string) []SessionInfo {
	r.mu.Lock()
	var sessions []*Session
	for key, sess := range r.sessions {
		if key.tenantID == tenantID {
			sessions = append(sessions, sess)
		}
	}
	r.mu.Unlock()

	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (r *Registry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	var stale []*Session
	for key, sess := range r.sessions {
		if sess.idleSince().Before(cutoff) {
			stale = append(stale, sess)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()

	for _, sess := range stale {
		sess.close()
	}
	if len(stale) > 0 && r.logger != nil {
		r.logger.Info("idle demo sessions swept", "count", len(stale))
	}
	return len(stale)
}

// RunSweeper sweeps every interval of the registry's clock until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = r.opts.IdleTTL / 2
	}
	tick := make(chan struct{}, 1)
	arm := func() clock.Timer {
		return r.clock.AfterFunc(interval, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		})
	}

	timer := arm()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-tick:
			r.Sweep()
			timer = arm()
		}
	}
}

// Shutdown closes every session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[sessionKey]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

func (r *Registry) newSession(tenantID, sessionID string) *Session {
	now := r.clock.Now()
	var logger *slog.Logger
	if r.logger != nil {
		logger = r.logger.With("component", "demo")
	}
	store := activity.NewStore(r.clock, logger, r.opts.Store)
	return &Session{
		id:           sessionID,
		tenantID:     tenantID,
		clock:        r.clock,
		logger:       logger,
		store:        store,
		runner:       scenario.NewRunner(store, r.opts.Catalog, r.clock, logger),
		toasts:       toast.NewNotifier(r.clock, logger, r.opts.Toasts),
		extractor:    r.opts.Extractor,
		recorder:     r.opts.Recorder,
		createdAt:    now,
		stage:        StagePersonaSelection,
		camera:       CameraUnknown,
		lastActivity: now,
	}
}
