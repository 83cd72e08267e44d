package demo

import (
	"context"
	"time"

	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/domain/toast"
)

// Stage is the position of a session in the persona/act walkthrough.
type Stage string

const (
	StagePersonaSelection Stage = "persona-selection"
	StageActSelection     Stage = "act-selection"
	StageDemoActive       Stage = "demo-active"
)

// Persona selects which acts and UI skin the demo shows.
type Persona string

const (
	PersonaTraveler Persona = "traveler"
	PersonaFinance  Persona = "finance"
)

// CameraPermission is the answer to the simulated camera prompt.
type CameraPermission string

const (
	CameraUnknown CameraPermission = "prompt"
	CameraGranted CameraPermission = "granted"
	CameraDenied  CameraPermission = "denied"
)

// PersonaInfo describes a persona and its acts.
type PersonaInfo struct {
	ID          Persona `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Description string  `json:"description"`
	Acts        []Act   `json:"acts"`
}

// Act is one sub-scenario of a persona's journey.
type Act struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Scenario    string          `json:"scenario"`
	Params      scenario.Params `json:"params"`
}

// State is a point-in-time view of a session.
type State struct {
	SessionID     string             `json:"session_id"`
	Stage         Stage              `json:"stage"`
	Persona       Persona            `json:"persona,omitempty"`
	Act           string             `json:"act,omitempty"`
	Camera        CameraPermission   `json:"camera"`
	CameraWarning bool               `json:"camera_warning"`
	Run           scenario.RunStatus `json:"run"`
	Activities    int                `json:"activities"`
	Version       uint64             `json:"version"`
	Toasts        []toast.Toast      `json:"toasts"`
	CreatedAt     time.Time          `json:"created_at"`
	LastActivity  time.Time          `json:"last_activity"`
}

// SessionInfo summarizes a live session.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	Stage        Stage     `json:"stage"`
	Persona      Persona   `json:"persona,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// ReceiptScan is what an extractor read off a captured receipt.
type ReceiptScan struct {
	Merchant   string  `json:"merchant"`
	Amount     float64 `json:"amount"`
	Confidence float64 `json:"confidence"`
}

// ReceiptExtractor reads merchant and total from captured receipt text.
type ReceiptExtractor interface {
	ScanReceipt(ctx context.Context, text string) (ReceiptScan, error)
}

// ExtractorFunc adapts a function to ReceiptExtractor.
type ExtractorFunc func(ctx context.Context, text string) (ReceiptScan, error)

// ScanReceipt calls f.
func (f ExtractorFunc) ScanReceipt(ctx context.Context, text string) (ReceiptScan, error) {
	return f(ctx, text)
}

// RunEntry is a recorded scenario invocation.
type RunEntry struct {
	ID        int64           `json:"id"`
	TenantID  string          `json:"tenant_id"`
	SessionID string          `json:"session_id"`
	RunID     string          `json:"run_id"`
	Scenario  string          `json:"scenario"`
	Params    scenario.Params `json:"params"`
	Steps     int             `json:"steps"`
	Duration  time.Duration   `json:"duration"`
	StartedAt time.Time       `json:"started_at"`
}

// RunListOptions filters recorded runs.
type RunListOptions struct {
	SessionID string
	Scenario  string
	Limit     int
	Offset    int
}

// RunRecorder keeps a history of scenario invocations.
type RunRecorder interface {
	Log(ctx context.Context, tenantID string, entry *RunEntry) error
}
