// Package app wires storage, the demo registry and the MCP surfaces into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/config"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/domain/flows"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/domain/toast"
	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/mcp"
	"github.com/ganot/agentic-te/internal/sqlite"
	"github.com/ganot/agentic-te/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// App is the server lifecycle. Construct with New, run with Run.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	clock  clock.Clock

	db       *sqlite.DB
	fixtures *sqlite.FixtureRepository
	runs     *sqlite.RunLogRepository
	flows    *flows.Service
	registry *demo.Registry
	handler  *mcp.Handler
	mcp      *sdkmcp.Server
	router   http.Handler
}

// New opens storage, seeds fixtures and builds every service. clk may be nil.
func New(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.Open(cfg.DB.Path)
	if err != nil {
		return nil, err
	}

	set, err := fixtures.Layered(cfg.Demo.FixturesDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	fixtureRepo := sqlite.NewFixtureRepository(db)
	if err := fixtureRepo.Seed(ctx, set); err != nil {
		db.Close()
		return nil, err
	}
	runRepo := sqlite.NewRunLogRepository(db)

	flowSvc := flows.NewService(fixtureRepo, cfg.Policy, logger)
	registry := demo.NewRegistry(clk, logger, demo.RegistryOptions{
		Catalog:   scenario.NewCatalog(cfg.Policy),
		Store:     activity.StoreOptions{Lenient: !cfg.Demo.StrictTransitions},
		Toasts:    toast.Options{Window: cfg.Demo.ToastWindow, Limit: cfg.Demo.ToastLimit},
		IdleTTL:   cfg.Demo.SessionTTL,
		Extractor: flowSvc,
		Recorder:  runRepo,
	})

	services := mcp.Services{
		Sessions: registry,
		Flows:    flowSvc,
		Fixtures: fixtureRepo,
		Runs:     runRepo,
	}
	handler := mcp.NewHandler(services, clk, logger)

	keys := transport.NewAPIKeys(cfg.Auth.APIKeys)
	mcpServer := mcp.NewServerWithHandler(mcp.Config{
		Services:      services,
		Clock:         clk,
		Resolver:      keys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	}, handler)

	auth := transport.StaticTenant(mcp.DefaultTenant)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(keys)
	}
	router := transport.NewServer(transport.Options{
		Handler:  handler,
		Sessions: registry,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: cfg.Demo.SessionTTL},
		),
		DB:     db,
		Auth:   auth,
		Logger: logger,
	})

	counts := set.Counts()
	logger.Info("fixtures seeded",
		"transactions", counts[fixtures.KindTransactions],
		"users", counts[fixtures.KindUsers],
		"hotels", counts[fixtures.KindHotels],
		"dir", cfg.Demo.FixturesDir,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		clock:    clk,
		db:       db,
		fixtures: fixtureRepo,
		runs:     runRepo,
		flows:    flowSvc,
		registry: registry,
		handler:  handler,
		mcp:      mcpServer,
		router:   router,
	}, nil
}

// Router returns the HTTP handler tree.
func (a *App) Router() http.Handler { return a.router }

// Registry returns the demo session registry.
func (a *App) Registry() *demo.Registry { return a.registry }

// Handler returns the shared method dispatcher.
func (a *App) Handler() *mcp.Handler { return a.handler }

// MCPServer returns the MCP server.
func (a *App) MCPServer() *sdkmcp.Server { return a.mcp }

// DB returns the storage handle.
func (a *App) DB() *sqlite.DB { return a.db }

// Run serves the configured transport and sweeps idle sessions until ctx is
// done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.registry.RunSweeper(ctx, a.cfg.Demo.SweepInterval)
	})

	if a.cfg.Transport.Mode == "stdio" {
		g.Go(func() error {
			// stdin closing ends the process.
			defer cancel()
			a.logger.Info("starting stdio transport", "auth", "disabled")
			err := a.mcp.Run(ctx, &sdkmcp.StdioTransport{})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("stdio server: %w", err)
			}
			return nil
		})
	} else {
		addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           a.router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info("server listening", "addr", addr, "auth", a.cfg.Auth.Enabled)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			a.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	a.Close()
	return err
}

// Close stops every session and closes storage.
func (a *App) Close() error {
	a.registry.Shutdown()
	return a.db.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || filepath.Dir(path) == "." {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
