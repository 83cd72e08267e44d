package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/domain/flows"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/repository"
	"github.com/ganot/agentic-te/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type flowStub struct {
	extractFn func(context.Context, string) (*flows.Receipt, error)
	policyFn  func(context.Context, flows.PolicyRequest) (*flows.Compliance, error)
	reportFn  func(context.Context, string) (*flows.ExpenseReport, error)
	tripFn    func(context.Context, flows.TripRequest) (*flows.TripPlan, error)
}

func (f flowStub) ExtractReceipt(ctx context.Context, text string) (*flows.Receipt, error) {
	return f.extractFn(ctx, text)
}
func (f flowStub) CheckPolicy(ctx context.Context, req flows.PolicyRequest) (*flows.Compliance, error) {
	return f.policyFn(ctx, req)
}
func (f flowStub) GenerateExpenseReport(ctx context.Context, userID string) (*flows.ExpenseReport, error) {
	return f.reportFn(ctx, userID)
}
func (f flowStub) PlanTrip(ctx context.Context, req flows.TripRequest) (*flows.TripPlan, error) {
	return f.tripFn(ctx, req)
}

const tenantID = "tenant1"

type harness struct {
	handler  *Handler
	registry *demo.Registry
	clock    *clock.Manual
	fixtures *mocks.FixtureRepository
}

func newHarness(t *testing.T, services Services) *harness {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	extractor := demo.ExtractorFunc(func(_ context.Context, text string) (demo.ReceiptScan, error) {
		return demo.ReceiptScan{Merchant: "Hotel Zephyr", Amount: 243.17, Confidence: 0.9}, nil
	})
	reg := demo.NewRegistry(clk, nil, demo.RegistryOptions{Extractor: extractor})
	t.Cleanup(reg.Shutdown)

	repo := &mocks.FixtureRepository{}
	services.Sessions = reg
	if services.Fixtures == nil {
		services.Fixtures = repo
	}
	return &harness{
		handler:  NewHandler(services, clk, nil),
		registry: reg,
		clock:    clk,
		fixtures: repo,
	}
}

func (h *harness) call(t *testing.T, sessionID, method string, params any) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		raw = data
	}
	return h.handler.Handle(context.Background(), tenantID, sessionID, method, raw)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected APIError, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code)
	require.NotEmpty(t, apiErr.RecoveryHint)
}

func TestHandler_Walkthrough(t *testing.T) {
	h := newHarness(t, Services{})

	res, err := h.call(t, "s1", "get_demo_state", nil)
	require.NoError(t, err)
	state := res.(StateResponse)
	require.True(t, state.Created)
	require.Equal(t, demo.StagePersonaSelection, state.Stage)

	res, err = h.call(t, "s1", "select_persona", map[string]any{"persona": "traveler"})
	require.NoError(t, err)
	require.Equal(t, demo.StageActSelection, res.(demo.State).Stage)

	res, err = h.call(t, "s1", "select_act", map[string]any{"act": "trip-booking", "params": map[string]any{"destination": "Boston"}})
	require.NoError(t, err)
	run := res.(RunResponse)
	require.Equal(t, scenario.TripBooking, run.Run.Scenario)
	require.Equal(t, "Boston", run.Run.Params.Destination)
	require.Equal(t, demo.StageDemoActive, run.State.Stage)
	require.True(t, run.State.Run.Running)

	h.clock.RunAll()

	res, err = h.call(t, "s1", "list_activities", map[string]any{"status": "completed"})
	require.NoError(t, err)
	acts := res.(ActivitiesResponse)
	require.NotEmpty(t, acts.Records)
	for _, r := range acts.Records {
		require.Equal(t, activity.StatusCompleted, r.Status)
	}

	res, err = h.call(t, "s1", "get_view", map[string]any{"surface": "orb"})
	require.NoError(t, err)
	view := res.(*ViewResponse)
	require.Equal(t, activity.SurfaceOrb, view.Surface)
	require.Equal(t, activity.OrbCompleted, view.View.(activity.OrbView).State)

	_, err = h.call(t, "s1", "get_view", map[string]any{"surface": "billboard"})
	requireCode(t, err, "INVALID_INPUT")

	res, err = h.call(t, "s1", "clear_activities", nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.(demo.State).Activities)

	res, err = h.call(t, "s1", "go_back", nil)
	require.NoError(t, err)
	require.Equal(t, demo.StageActSelection, res.(demo.State).Stage)

	res, err = h.call(t, "s1", "reset_demo", nil)
	require.NoError(t, err)
	require.Equal(t, demo.StagePersonaSelection, res.(demo.State).Stage)
}

func TestHandler_SessionSelection(t *testing.T) {
	h := newHarness(t, Services{})

	_, err := h.call(t, "transport", "select_persona", map[string]any{"persona": "finance"})
	require.NoError(t, err)

	// A session_id argument wins over the transport session.
	res, err := h.call(t, "transport", "get_demo_state", map[string]any{"session_id": "other"})
	require.NoError(t, err)
	require.Equal(t, demo.StagePersonaSelection, res.(StateResponse).Stage)
	require.Equal(t, "other", res.(StateResponse).SessionID)

	res, err = h.call(t, "", "get_demo_state", nil)
	require.NoError(t, err)
	require.Equal(t, DefaultSessionID, res.(StateResponse).SessionID)

	res, err = h.call(t, "", "list_sessions", nil)
	require.NoError(t, err)
	require.Len(t, res.([]demo.SessionInfo), 3)

	_, err = h.call(t, "other", "close_session", nil)
	require.NoError(t, err)
	_, err = h.call(t, "other", "close_session", nil)
	requireCode(t, err, "SESSION_NOT_FOUND")
}

func TestHandler_DomainErrorsMapped(t *testing.T) {
	h := newHarness(t, Services{})

	_, err := h.call(t, "s1", "select_act", map[string]any{"act": "trip-booking"})
	requireCode(t, err, "INVALID_STAGE")

	_, err = h.call(t, "s1", "select_persona", map[string]any{"persona": "pirate"})
	requireCode(t, err, "UNKNOWN_PERSONA")

	_, err = h.call(t, "s1", "select_persona", map[string]any{"persona": "finance"})
	require.NoError(t, err)
	_, err = h.call(t, "s1", "select_act", map[string]any{"act": "trip-booking"})
	requireCode(t, err, "UNKNOWN_ACT")

	_, err = h.call(t, "s1", "select_act", map[string]any{"act": "budget-monitoring"})
	require.NoError(t, err)
	_, err = h.call(t, "s1", "run_scenario", map[string]any{"scenario": "moon-landing"})
	requireCode(t, err, "UNKNOWN_SCENARIO")

	_, err = h.call(t, "s1", "run_scenario", map[string]any{"scenario": "expense-flow", "params": map[string]any{"amount": -5}})
	requireCode(t, err, "INVALID_INPUT")

	_, err = h.call(t, "s1", "capture_receipt", map[string]any{"text": "Total 12.00"})
	requireCode(t, err, "CAPTURE_DISABLED")

	_, err = h.call(t, "s1", "select_persona", "not an object")
	requireCode(t, err, "INVALID_INPUT")

	_, err = h.call(t, "s1", "launch_rockets", nil)
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestHandler_CaptureAndToasts(t *testing.T) {
	h := newHarness(t, Services{})

	_, err := h.call(t, "s1", "select_persona", map[string]any{"persona": "traveler"})
	require.NoError(t, err)
	_, err = h.call(t, "s1", "select_act", map[string]any{"act": "receipt-capture"})
	require.NoError(t, err)

	res, err := h.call(t, "s1", "set_camera_permission", map[string]any{"granted": true})
	require.NoError(t, err)
	require.Equal(t, demo.CameraGranted, res.(demo.State).Camera)

	res, err = h.call(t, "s1", "capture_receipt", map[string]any{"text": "Hotel Zephyr\nTotal 243.17"})
	require.NoError(t, err)
	capture := res.(CaptureReceiptResponse)
	require.Equal(t, "Hotel Zephyr", capture.Scan.Merchant)
	require.Equal(t, scenario.ReceiptCapture, capture.Run.Scenario)
	require.NotEmpty(t, capture.State.Toasts)

	id := capture.State.Toasts[0].ID
	res, err = h.call(t, "s1", "dismiss_toast", map[string]any{"id": id})
	require.NoError(t, err)
	require.True(t, res.(DismissToastResponse).Dismissed)

	res, err = h.call(t, "s1", "dismiss_toast", map[string]any{"id": id})
	require.NoError(t, err)
	require.False(t, res.(DismissToastResponse).Dismissed)

	res, err = h.call(t, "s1", "simulate_transaction", map[string]any{"merchant": "Cafe X", "amount": 150})
	require.NoError(t, err)
	require.Equal(t, scenario.ExpenseFlow, res.(RunResponse).Run.Scenario)
}

func TestHandler_ListScenarios(t *testing.T) {
	h := newHarness(t, Services{})

	res, err := h.call(t, "", "list_scenarios", nil)
	require.NoError(t, err)
	list := res.([]ScenarioSummary)
	require.Len(t, list, len(scenarioNames()))
	require.Equal(t, scenario.ExpenseFlow, list[0].Name)
	require.Greater(t, list[0].Steps, 1)
	require.Greater(t, list[0].Duration, time.Duration(0))

	for _, s := range list {
		if s.Name == scenario.FinanceOverview {
			require.True(t, s.Static)
			require.Equal(t, 1, s.Steps)
		}
	}
}

func TestHandler_Fixtures(t *testing.T) {
	h := newHarness(t, Services{})
	ctx := context.Background()

	items := []fixtures.Item{{Kind: fixtures.KindHotels, ID: "ht-zephyr", Title: "Hotel Zephyr"}}
	h.fixtures.On("List", ctx, fixtures.KindHotels, fixtures.ListOptions{Limit: 2}).Return(items, nil)
	h.fixtures.On("Get", ctx, fixtures.KindHotels, "ht-nope").Return((*fixtures.Item)(nil), repository.ErrNotFound)
	h.fixtures.On("Search", ctx, "zephyr", fixtures.SearchOptions{Kinds: []fixtures.Kind{fixtures.KindHotels}}).
		Return([]fixtures.SearchResult{{Item: items[0], Snippet: "[Zephyr]"}}, nil)
	h.fixtures.On("ListTransactions", ctx, mock.MatchedBy(func(f fixtures.TransactionFilter) bool {
		return f.Flagged && f.UserID == "u-sam"
	})).Return([]fixtures.Transaction{{ID: "txn-1004"}}, nil)

	res, err := h.call(t, "", "list_fixtures", map[string]any{"kind": "hotels", "limit": 2})
	require.NoError(t, err)
	require.Equal(t, items, res)

	_, err = h.call(t, "", "list_fixtures", map[string]any{"kind": "castles"})
	requireCode(t, err, "INVALID_INPUT")

	_, err = h.call(t, "", "get_fixture", map[string]any{"kind": "hotels", "id": "ht-nope"})
	requireCode(t, err, "FIXTURE_NOT_FOUND")

	res, err = h.call(t, "", "search_fixtures", map[string]any{"query": "zephyr", "kinds": []string{"hotels"}})
	require.NoError(t, err)
	require.Len(t, res, 1)

	res, err = h.call(t, "", "list_transactions", map[string]any{"user_id": "u-sam", "flagged": true})
	require.NoError(t, err)
	require.Equal(t, "txn-1004", res.([]fixtures.Transaction)[0].ID)

	_, err = h.call(t, "", "list_transactions", map[string]any{"status": "lost"})
	requireCode(t, err, "INVALID_INPUT")

	h.fixtures.AssertExpectations(t)
}

func TestHandler_Flows(t *testing.T) {
	var gotPolicy flows.PolicyRequest
	var gotTrip flows.TripRequest
	h := newHarness(t, Services{Flows: flowStub{
		extractFn: func(_ context.Context, text string) (*flows.Receipt, error) {
			return &flows.Receipt{Merchant: "Lyft", Total: 42.75}, nil
		},
		policyFn: func(_ context.Context, req flows.PolicyRequest) (*flows.Compliance, error) {
			gotPolicy = req
			return &flows.Compliance{Status: flows.ComplianceNeedsApproval}, nil
		},
		reportFn: func(_ context.Context, userID string) (*flows.ExpenseReport, error) {
			return nil, flows.ErrUnknownUser
		},
		tripFn: func(_ context.Context, req flows.TripRequest) (*flows.TripPlan, error) {
			gotTrip = req
			return &flows.TripPlan{Destination: "Boston"}, nil
		},
	}})

	res, err := h.call(t, "", "extract_receipt", map[string]any{"text": "Lyft\nTotal 42.75"})
	require.NoError(t, err)
	require.Equal(t, 42.75, res.(*flows.Receipt).Total)

	_, err = h.call(t, "", "check_policy", map[string]any{"amount": 150, "category": "lodging", "has_receipt": true})
	require.NoError(t, err)
	require.Equal(t, flows.PolicyRequest{Amount: 150, Category: "lodging", HasReceipt: true}, gotPolicy)

	_, err = h.call(t, "", "generate_expense_report", map[string]any{"user_id": "u-nobody"})
	requireCode(t, err, "FIXTURE_NOT_FOUND")

	_, err = h.call(t, "", "plan_trip", map[string]any{"destination": "Boston", "nights": 2, "prefer_low_carbon": true})
	require.NoError(t, err)
	require.Equal(t, flows.TripRequest{Destination: "Boston", Nights: 2, PreferLowCarbon: true}, gotTrip)
}

func TestHandler_ListRuns(t *testing.T) {
	h := newHarness(t, Services{})
	_, err := h.call(t, "s1", "list_runs", nil)
	requireCode(t, err, "HISTORY_DISABLED")

	runs := &mocks.RunLogRepository{}
	runs.On("List", mock.Anything, tenantID, demo.RunListOptions{SessionID: "s1", Scenario: "fraud-check", Limit: 3}).
		Return([]demo.RunEntry{{RunID: "r1", SessionID: "s1", Scenario: "fraud-check"}}, nil).Once()
	runs.On("List", mock.Anything, tenantID, demo.RunListOptions{}).
		Return([]demo.RunEntry{{RunID: "r1"}, {RunID: "r2"}}, nil).Once()
	runs.On("List", mock.Anything, tenantID, demo.RunListOptions{SessionID: "s2"}).
		Return(nil, errors.New("database is closed")).Once()
	h = newHarness(t, Services{Runs: runs})

	res, err := h.call(t, "s1", "list_runs", map[string]any{"scenario": "fraud-check", "limit": 3})
	require.NoError(t, err)
	require.Len(t, res, 1)

	res, err = h.call(t, "s1", "list_runs", map[string]any{"all_sessions": true})
	require.NoError(t, err)
	require.Len(t, res, 2)

	_, err = h.call(t, "s2", "list_runs", nil)
	require.Error(t, err)

	runs.AssertExpectations(t)
}
