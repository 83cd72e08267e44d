package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/config"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *clock.Manual) {
	t.Helper()
	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	if mutate != nil {
		mutate(&cfg)
	}
	clk := clock.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	a, err := New(context.Background(), cfg, clk, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, clk
}

func TestNew_WiresRunHistory(t *testing.T) {
	a, clk := newTestApp(t, nil)
	ctx := context.Background()

	_, err := a.Handler().Handle(ctx, "default", "s1", "select_persona", json.RawMessage(`{"persona":"finance"}`))
	require.NoError(t, err)
	_, err = a.Handler().Handle(ctx, "default", "s1", "select_act", json.RawMessage(`{"act":"fraud-detection"}`))
	require.NoError(t, err)
	clk.RunAll()

	res, err := a.Handler().Handle(ctx, "default", "s1", "list_runs", nil)
	require.NoError(t, err)
	runs := res.([]demo.RunEntry)
	require.Len(t, runs, 1)
	require.Equal(t, "fraud-check", runs[0].Scenario)
}

func TestNew_FixturesAndFlows(t *testing.T) {
	a, _ := newTestApp(t, nil)
	ctx := context.Background()

	res, err := a.Handler().Handle(ctx, "default", "", "generate_expense_report", json.RawMessage(`{"user_id":"u-alex"}`))
	require.NoError(t, err)
	require.NotNil(t, res)

	res, err = a.Handler().Handle(ctx, "default", "", "search_fixtures", json.RawMessage(`{"query":"zephyr"}`))
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestNew_AuthEnabledRouter(t *testing.T) {
	a, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKeys = map[string]string{"secret": "acme"}
	})
	server := httptest.NewServer(a.Router())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/sessions/s1/views/orb")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNew_FixturesDirMissing(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Demo.FixturesDir = filepath.Join(t.TempDir(), "nope")
	_, err := New(context.Background(), cfg, nil, nil)
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.Host = "127.0.0.1"
		cfg.Server.Port = 0
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
