package mcp

import (
	"time"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/fixtures"
)

// SessionParams is embedded by tools that act on a demo session. The id may
// also arrive through the session header or request metadata.
type SessionParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type SelectPersonaParams struct {
	SessionParams
	Persona demo.Persona `json:"persona"`
}

type SelectActParams struct {
	SessionParams
	Act    string           `json:"act"`
	Params *scenario.Params `json:"params,omitempty"`
}

type RunScenarioParams struct {
	SessionParams
	Scenario string           `json:"scenario"`
	Params   *scenario.Params `json:"params,omitempty"`
}

type SimulateTransactionParams struct {
	SessionParams
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
}

type ListActivitiesParams struct {
	SessionParams
	Agent  activity.AgentType `json:"agent,omitempty"`
	Status activity.Status    `json:"status,omitempty"`
	Limit  int                `json:"limit,omitempty"`
}

type GetViewParams struct {
	SessionParams
	Surface activity.Surface `json:"surface"`
	Limit   int              `json:"limit,omitempty"`
}

type SetCameraPermissionParams struct {
	SessionParams
	Granted bool `json:"granted"`
}

type CaptureReceiptParams struct {
	SessionParams
	Text string `json:"text"`
}

type DismissToastParams struct {
	SessionParams
	ID string `json:"id"`
}

type ListRunsParams struct {
	SessionParams
	Scenario string `json:"scenario,omitempty"`
	// AllSessions lists the tenant's runs across sessions.
	AllSessions bool `json:"all_sessions,omitempty"`
	Limit       int  `json:"limit,omitempty"`
	Offset      int  `json:"offset,omitempty"`
}

type ListFixturesParams struct {
	Kind   fixtures.Kind `json:"kind"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

type GetFixtureParams struct {
	Kind fixtures.Kind `json:"kind"`
	ID   string        `json:"id"`
}

type SearchFixturesParams struct {
	Query  string          `json:"query"`
	Kinds  []fixtures.Kind `json:"kinds,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

type ListTransactionsParams struct {
	UserID    string                     `json:"user_id,omitempty"`
	Status    fixtures.TransactionStatus `json:"status,omitempty"`
	Category  string                     `json:"category,omitempty"`
	MinAmount float64                    `json:"min_amount,omitempty"`
	Flagged   bool                       `json:"flagged,omitempty"`
	Limit     int                        `json:"limit,omitempty"`
	Offset    int                        `json:"offset,omitempty"`
}

type ExtractReceiptParams struct {
	Text string `json:"text"`
}

type CheckPolicyParams struct {
	Amount     float64 `json:"amount"`
	Category   string  `json:"category,omitempty"`
	HasReceipt bool    `json:"has_receipt,omitempty"`
}

type GenerateExpenseReportParams struct {
	UserID string `json:"user_id,omitempty"`
}

type PlanTripParams struct {
	Origin          string  `json:"origin,omitempty"`
	Destination     string  `json:"destination"`
	Budget          float64 `json:"budget,omitempty"`
	Nights          int     `json:"nights,omitempty"`
	PreferLowCarbon bool    `json:"prefer_low_carbon,omitempty"`
}

// PingResponse answers the ping tool.
type PingResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// StateResponse wraps a session state with the session's creation flag.
type StateResponse struct {
	demo.State
	Created bool `json:"created,omitempty"`
}

// RunResponse reports a started scenario with the state after its first
// batch.
type RunResponse struct {
	Run   scenario.RunInfo `json:"run"`
	State demo.State       `json:"state"`
}

type CaptureReceiptResponse struct {
	Scan  demo.ReceiptScan `json:"scan"`
	Run   scenario.RunInfo `json:"run"`
	State demo.State       `json:"state"`
}

type ActivitiesResponse struct {
	Version uint64            `json:"version"`
	Records []activity.Record `json:"records"`
}

type ViewResponse struct {
	Surface activity.Surface `json:"surface"`
	Version uint64           `json:"version"`
	View    any              `json:"view"`
}

type DismissToastResponse struct {
	Dismissed bool `json:"dismissed"`
}

type ScenarioSummary struct {
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Agents      []activity.AgentType `json:"agents"`
	Defaults    scenario.Params      `json:"defaults"`
	Static      bool                 `json:"static"`
	Steps       int                  `json:"steps"`
	Duration    time.Duration        `json:"duration"`
}
