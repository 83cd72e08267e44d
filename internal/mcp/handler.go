package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/domain/flows"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/fixtures"
)

// DefaultSessionID is used when a caller names no demo session.
const DefaultSessionID = "default"

// defaultViewLimit bounds rendered surfaces when the caller gives no limit.
const defaultViewLimit = 5

// DemoRegistry defines session operations needed by MCP.
type DemoRegistry interface {
	Open(tenantID, sessionID string) (*demo.Session, bool, error)
	Get(tenantID, sessionID string) (*demo.Session, error)
	Close(tenantID, sessionID string) error
	List(tenantID string) []demo.SessionInfo
	Catalog() *scenario.Catalog
}

// FlowService defines the request/response flows needed by MCP.
type FlowService interface {
	ExtractReceipt(ctx context.Context, text string) (*flows.Receipt, error)
	CheckPolicy(ctx context.Context, req flows.PolicyRequest) (*flows.Compliance, error)
	GenerateExpenseReport(ctx context.Context, userID string) (*flows.ExpenseReport, error)
	PlanTrip(ctx context.Context, req flows.TripRequest) (*flows.TripPlan, error)
}

// FixtureService defines catalog reads needed by MCP.
type FixtureService interface {
	List(ctx context.Context, kind fixtures.Kind, opts fixtures.ListOptions) ([]fixtures.Item, error)
	Get(ctx context.Context, kind fixtures.Kind, id string) (*fixtures.Item, error)
	ListTransactions(ctx context.Context, filter fixtures.TransactionFilter) ([]fixtures.Transaction, error)
	Search(ctx context.Context, query string, opts fixtures.SearchOptions) ([]fixtures.SearchResult, error)
}

// RunHistory defines run log reads needed by MCP.
type RunHistory interface {
	List(ctx context.Context, tenantID string, opts demo.RunListOptions) ([]demo.RunEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions DemoRegistry
	Flows    FlowService
	Fixtures FixtureService
	// Runs is optional; list_runs fails without it.
	Runs RunHistory
}

// Handler dispatches MCP commands.
type Handler struct {
	sessions DemoRegistry
	flows    FlowService
	fixtures FixtureService
	runs     RunHistory
	clock    clock.Clock
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, clk clock.Clock, logger *slog.Logger) *Handler {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions: services.Sessions,
		flows:    services.Flows,
		fixtures: services.Fixtures,
		runs:     services.Runs,
		clock:    clk,
		logger:   logger,
	}
}

// Handle dispatches MCP requests to domain services. sessionID comes from
// transport metadata and is overridden by a session_id param.
func (h *Handler) Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	var sp SessionParams
	if err := decodeParams(params, &sp); err != nil {
		return nil, err
	}
	if sp.SessionID != "" {
		sessionID = sp.SessionID
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	switch method {
	case "ping":
		return PingResponse{Status: "ok", Time: h.clock.Now()}, nil

	// Walkthrough
	case "list_personas":
		return demo.Personas(), nil
	case "get_demo_state":
		sess, created, err := h.sessions.Open(tenantID, sessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return StateResponse{State: sess.State(), Created: created}, nil
	case "select_persona":
		var req SelectPersonaParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		state, err := sess.SelectPersona(req.Persona)
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	case "select_act":
		var req SelectActParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		_, info, err := sess.SelectAct(ctx, req.Act, paramsValue(req.Params))
		if err != nil {
			return nil, mapError(err)
		}
		return RunResponse{Run: info, State: sess.State()}, nil
	case "go_back":
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		state, err := sess.Back()
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	case "reset_demo":
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		return sess.Reset(), nil
	case "list_sessions":
		return h.sessions.List(tenantID), nil
	case "close_session":
		if err := h.sessions.Close(tenantID, sessionID); err != nil {
			return nil, mapError(err)
		}
		return map[string]string{"status": "closed", "session_id": sessionID}, nil

	// Scenarios
	case "list_scenarios":
		return h.listScenarios(), nil
	case "run_scenario":
		var req RunScenarioParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		info, err := sess.RunScenario(ctx, req.Scenario, paramsValue(req.Params))
		if err != nil {
			return nil, mapError(err)
		}
		return RunResponse{Run: info, State: sess.State()}, nil
	case "simulate_transaction":
		var req SimulateTransactionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		info, err := sess.SimulateTransaction(ctx, req.Merchant, req.Amount)
		if err != nil {
			return nil, mapError(err)
		}
		return RunResponse{Run: info, State: sess.State()}, nil
	case "clear_activities":
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		sess.ClearActivities()
		return sess.State(), nil
	case "list_activities":
		var req ListActivitiesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		snap := sess.Store().Snapshot()
		return ActivitiesResponse{Version: snap.Version, Records: filterRecords(snap.Records, req)}, nil
	case "get_view":
		var req GetViewParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		return h.renderView(sess, req.Surface, req.Limit)
	case "list_runs":
		var req ListRunsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if h.runs == nil {
			return nil, &APIError{Code: "HISTORY_DISABLED", Message: "run history is not configured", RecoveryHint: "Start the server with a database"}
		}
		opts := demo.RunListOptions{Scenario: req.Scenario, Limit: req.Limit, Offset: req.Offset}
		if !req.AllSessions {
			opts.SessionID = sessionID
		}
		entries, err := h.runs.List(ctx, tenantID, opts)
		if err != nil {
			return nil, mapError(err)
		}
		return entries, nil

	// Capture and notifications
	case "set_camera_permission":
		var req SetCameraPermissionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		return sess.SetCameraPermission(req.Granted), nil
	case "capture_receipt":
		var req CaptureReceiptParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		scan, info, err := sess.CaptureReceipt(ctx, req.Text)
		if err != nil {
			return nil, mapError(err)
		}
		return CaptureReceiptResponse{Scan: scan, Run: info, State: sess.State()}, nil
	case "dismiss_toast":
		var req DismissToastParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.open(tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		return DismissToastResponse{Dismissed: sess.Toasts().Dismiss(req.ID)}, nil

	// Fixtures
	case "list_fixtures":
		var req ListFixturesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if !req.Kind.Valid() {
			return nil, invalidKind(req.Kind)
		}
		items, err := h.fixtures.List(ctx, req.Kind, fixtures.ListOptions{Limit: req.Limit, Offset: req.Offset})
		if err != nil {
			return nil, mapError(err)
		}
		return items, nil
	case "get_fixture":
		var req GetFixtureParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if !req.Kind.Valid() {
			return nil, invalidKind(req.Kind)
		}
		item, err := h.fixtures.Get(ctx, req.Kind, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return item, nil
	case "search_fixtures":
		var req SearchFixturesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		for _, kind := range req.Kinds {
			if !kind.Valid() {
				return nil, invalidKind(kind)
			}
		}
		results, err := h.fixtures.Search(ctx, req.Query, fixtures.SearchOptions{Kinds: req.Kinds, Limit: req.Limit, Offset: req.Offset})
		if err != nil {
			return nil, mapError(err)
		}
		return results, nil
	case "list_transactions":
		var req ListTransactionsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Status != "" && !req.Status.Valid() {
			return nil, &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("unknown transaction status %q", req.Status), RecoveryHint: "Use pending, approved, flagged or rejected"}
		}
		txns, err := h.fixtures.ListTransactions(ctx, fixtures.TransactionFilter{
			UserID:    req.UserID,
			Status:    req.Status,
			Category:  req.Category,
			MinAmount: req.MinAmount,
			Flagged:   req.Flagged,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return txns, nil

	// Flows
	case "extract_receipt":
		var req ExtractReceiptParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		receipt, err := h.flows.ExtractReceipt(ctx, req.Text)
		if err != nil {
			return nil, mapError(err)
		}
		return receipt, nil
	case "check_policy":
		var req CheckPolicyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		result, err := h.flows.CheckPolicy(ctx, flows.PolicyRequest{Amount: req.Amount, Category: req.Category, HasReceipt: req.HasReceipt})
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil
	case "generate_expense_report":
		var req GenerateExpenseReportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		report, err := h.flows.GenerateExpenseReport(ctx, req.UserID)
		if err != nil {
			return nil, mapError(err)
		}
		return report, nil
	case "plan_trip":
		var req PlanTripParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		plan, err := h.flows.PlanTrip(ctx, flows.TripRequest{
			Origin:          req.Origin,
			Destination:     req.Destination,
			Budget:          req.Budget,
			Nights:          req.Nights,
			PreferLowCarbon: req.PreferLowCarbon,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return plan, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// RenderView renders a session surface. The HTTP transport shares it with
// the get_view tool.
func (h *Handler) RenderView(tenantID, sessionID string, surface activity.Surface, limit int) (*ViewResponse, error) {
	sess, err := h.sessions.Get(tenantID, sessionID)
	if err != nil {
		return nil, mapError(err)
	}
	return h.renderView(sess, surface, limit)
}

func (h *Handler) renderView(sess *demo.Session, surface activity.Surface, limit int) (*ViewResponse, error) {
	if limit <= 0 {
		limit = defaultViewLimit
	}
	snap := sess.Store().Snapshot()
	view, err := activity.Render(surface, snap.Records, h.clock.Now(), limit)
	if err != nil {
		return nil, mapError(err)
	}
	return &ViewResponse{Surface: surface, Version: snap.Version, View: view}, nil
}

func (h *Handler) open(tenantID, sessionID string) (*demo.Session, error) {
	sess, created, err := h.sessions.Open(tenantID, sessionID)
	if err != nil {
		return nil, mapError(err)
	}
	if created {
		h.logger.Debug("demo session opened", "tenant_id", tenantID, "session_id", sessionID)
	}
	return sess, nil
}

func (h *Handler) listScenarios() []ScenarioSummary {
	catalog := h.sessions.Catalog()
	scripts := catalog.List()
	out := make([]ScenarioSummary, 0, len(scripts))
	for _, s := range scripts {
		summary := ScenarioSummary{
			Name:        s.Name,
			Title:       s.Title,
			Description: s.Description,
			Agents:      s.Agents,
			Defaults:    s.Defaults,
			Static:      s.Static,
		}
		if plan, err := catalog.Plan(s.Name, scenario.Params{}); err == nil {
			summary.Steps = len(plan.Steps())
			if plan.IsStatic() {
				summary.Steps = 1
			}
			summary.Duration = plan.Duration()
		}
		out = append(out, summary)
	}
	return out
}

func filterRecords(records []activity.Record, req ListActivitiesParams) []activity.Record {
	out := make([]activity.Record, 0, len(records))
	for _, r := range records {
		if req.Agent != "" && r.AgentType != req.Agent {
			continue
		}
		if req.Status != "" && r.Status != req.Status {
			continue
		}
		out = append(out, r)
	}
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[len(out)-req.Limit:]
	}
	return out
}

func invalidKind(kind fixtures.Kind) error {
	names := make([]string, len(fixtures.Kinds))
	for i, k := range fixtures.Kinds {
		names[i] = string(k)
	}
	return &APIError{
		Code:         "INVALID_INPUT",
		Message:      fmt.Sprintf("unknown fixture kind %q", kind),
		RecoveryHint: "Use one of: " + strings.Join(names, ", "),
	}
}

func paramsValue(p *scenario.Params) scenario.Params {
	if p == nil {
		return scenario.Params{}
	}
	return *p
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid params: %v", err), RecoveryHint: "Check the tool input schema"}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
