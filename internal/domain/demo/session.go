package demo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/domain/toast"
	"github.com/ganot/agentic-te/internal/policy"
)

// Session is one client's demo: its stage, activity store, scenario runner
// and toasts. Stage changes are serialized by the session.
type Session struct {
	id        string
	tenantID  string
	clock     clock.Clock
	logger    *slog.Logger
	store     *activity.Store
	runner    *scenario.Runner
	toasts    *toast.Notifier
	extractor ReceiptExtractor
	recorder  RunRecorder
	createdAt time.Time

	mu            sync.Mutex
	stage         Stage
	persona       Persona
	act           string
	camera        CameraPermission
	cameraWarning bool
	lastActivity  time.Time
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Store returns the session's activity store.
func (s *Session) Store() *activity.Store { return s.store }

// Runner returns the session's scenario runner.
func (s *Session) Runner() *scenario.Runner { return s.runner }

// Toasts returns the session's notifier.
func (s *Session) Toasts() *toast.Notifier { return s.toasts }

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// SelectPersona chooses a persona and moves to act selection. Switching
// persona from act selection clears prior activity.
func (s *Session) SelectPersona(p Persona) (State, error) {
	if _, err := LookupPersona(p); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	switch s.stage {
	case StagePersonaSelection:
	case StageActSelection:
		if s.persona != p {
			s.runner.Clear()
		}
	default:
		return State{}, fmt.Errorf("%w: cannot select persona during %s", ErrInvalidStage, s.stage)
	}

	s.persona = p
	s.act = ""
	s.stage = StageActSelection
	s.log("persona selected", "persona", p)
	return s.stateLocked(), nil
}

// SelectAct enters demo-active and starts the act's scenario. Params
// override the act's defaults field by field.
func (s *Session) SelectAct(ctx context.Context, actID string, params scenario.Params) (State, scenario.RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.stage != StageActSelection {
		return State{}, scenario.RunInfo{}, fmt.Errorf("%w: cannot select act during %s", ErrInvalidStage, s.stage)
	}
	act, err := LookupAct(s.persona, actID)
	if err != nil {
		return State{}, scenario.RunInfo{}, err
	}

	info, err := s.runner.Run(act.Scenario, mergeParams(act.Params, params))
	if err != nil {
		return State{}, scenario.RunInfo{}, fmt.Errorf("starting act %s: %w", act.ID, err)
	}
	s.act = act.ID
	s.stage = StageDemoActive
	s.log("act selected", "act", act.ID, "run_id", info.RunID)
	s.recordRun(ctx, info)
	return s.stateLocked(), info, nil
}

// Back moves one stage backwards, cancelling pending scenario steps and
// clearing the store.
func (s *Session) Back() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	switch s.stage {
	case StageDemoActive:
		s.stage = StageActSelection
		s.act = ""
	case StageActSelection:
		s.stage = StagePersonaSelection
		s.persona = ""
	default:
		return State{}, fmt.Errorf("%w: already at %s", ErrInvalidStage, s.stage)
	}
	s.runner.Clear()
	s.log("stage back", "stage", s.stage)
	return s.stateLocked(), nil
}

// Reset returns to persona selection from any stage.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.runner.Clear()
	s.toasts.Clear()
	s.stage = StagePersonaSelection
	s.persona = ""
	s.act = ""
	s.camera = CameraUnknown
	s.cameraWarning = false
	s.log("session reset")
	return s.stateLocked()
}

// RunScenario starts any scenario while the demo is active.
func (s *Session) RunScenario(ctx context.Context, name string, params scenario.Params) (scenario.RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.stage != StageDemoActive {
		return scenario.RunInfo{}, fmt.Errorf("%w: scenarios run only in %s", ErrInvalidStage, StageDemoActive)
	}
	info, err := s.runner.Run(name, params)
	if err != nil {
		return scenario.RunInfo{}, err
	}
	s.recordRun(ctx, info)
	return info, nil
}

// SimulateTransaction plays a card swipe through the expense flow.
func (s *Session) SimulateTransaction(ctx context.Context, merchant string, amount float64) (scenario.RunInfo, error) {
	if strings.TrimSpace(merchant) == "" || amount <= 0 {
		return scenario.RunInfo{}, fmt.Errorf("%w: merchant and a positive amount are required", ErrInvalidInput)
	}
	info, err := s.RunScenario(ctx, scenario.ExpenseFlow, scenario.Params{Merchant: merchant, Amount: amount})
	if err != nil {
		return scenario.RunInfo{}, err
	}
	s.toasts.Push("New transaction", fmt.Sprintf("%s %s", info.Params.Merchant, policy.Money(info.Params.Amount)), toast.VariantDefault)
	return info, nil
}

// SetCameraPermission records the answer to the camera prompt. Denial
// raises the warning banner and disables capture.
func (s *Session) SetCameraPermission(granted bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if granted {
		s.camera = CameraGranted
		s.cameraWarning = false
	} else {
		s.camera = CameraDenied
		s.cameraWarning = true
		s.toasts.Push("Camera access denied", "Enable camera access to capture receipts.", toast.VariantDestructive)
	}
	s.log("camera permission", "camera", s.camera)
	return s.stateLocked()
}

// UnknownMerchant labels a receipt whose merchant line could not be read.
const UnknownMerchant = "Unknown merchant"

// CaptureReceipt reads a captured receipt and plays the receipt-capture
// scenario with what was found. A receipt without a readable total is
// rejected rather than played with sample values.
func (s *Session) CaptureReceipt(ctx context.Context, text string) (ReceiptScan, scenario.RunInfo, error) {
	s.mu.Lock()
	camera := s.camera
	stage := s.stage
	s.mu.Unlock()

	if stage != StageDemoActive {
		return ReceiptScan{}, scenario.RunInfo{}, fmt.Errorf("%w: capture runs only in %s", ErrInvalidStage, StageDemoActive)
	}
	if camera != CameraGranted {
		return ReceiptScan{}, scenario.RunInfo{}, fmt.Errorf("%w: camera permission is %s", ErrCaptureDisabled, camera)
	}
	if s.extractor == nil {
		return ReceiptScan{}, scenario.RunInfo{}, fmt.Errorf("%w: no receipt reader configured", ErrCaptureDisabled)
	}

	scan, err := s.extractor.ScanReceipt(ctx, text)
	if err != nil {
		return ReceiptScan{}, scenario.RunInfo{}, fmt.Errorf("reading receipt: %w", err)
	}
	if scan.Amount <= 0 {
		s.toasts.Push("Receipt unreadable", "No total was found. Retake the photo.", toast.VariantWarning)
		return scan, scenario.RunInfo{}, fmt.Errorf("%w: no total found on receipt", ErrInvalidInput)
	}
	if strings.TrimSpace(scan.Merchant) == "" {
		scan.Merchant = UnknownMerchant
	}
	info, err := s.RunScenario(ctx, scenario.ReceiptCapture, scenario.Params{Merchant: scan.Merchant, Amount: scan.Amount})
	if err != nil {
		return ReceiptScan{}, scenario.RunInfo{}, err
	}
	s.toasts.Push("Receipt captured", fmt.Sprintf("%s %s", info.Params.Merchant, policy.Money(info.Params.Amount)), toast.VariantSuccess)
	return scan, info, nil
}

// ClearActivities cancels the current run and empties the store without
// changing stage.
func (s *Session) ClearActivities() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.runner.Clear()
}

// recordRun writes the run history. A failed write is logged and otherwise
// ignored; the demo keeps going without history.
func (s *Session) recordRun(ctx context.Context, info scenario.RunInfo) {
	if s.recorder == nil {
		return
	}
	entry := &RunEntry{
		SessionID: s.id,
		RunID:     info.RunID,
		Scenario:  info.Scenario,
		Params:    info.Params,
		Steps:     info.Steps,
		Duration:  info.Duration,
		StartedAt: info.StartedAt,
	}
	if err := s.recorder.Log(ctx, s.tenantID, entry); err != nil && s.logger != nil {
		s.logger.Warn("recording scenario run failed", "session_id", s.id, "run_id", info.RunID, "error", err)
	}
}

func (s *Session) close() {
	s.runner.Close()
	s.store.Close()
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		SessionID:    s.id,
		Stage:        s.stage,
		Persona:      s.persona,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touchLocked() {
	s.lastActivity = s.clock.Now()
}

func (s *Session) stateLocked() State {
	snap := s.store.Snapshot()
	return State{
		SessionID:     s.id,
		Stage:         s.stage,
		Persona:       s.persona,
		Act:           s.act,
		Camera:        s.camera,
		CameraWarning: s.cameraWarning,
		Run:           s.runner.Status(),
		Activities:    len(snap.Records),
		Version:       snap.Version,
		Toasts:        s.toasts.List(),
		CreatedAt:     s.createdAt,
		LastActivity:  s.lastActivity,
	}
}

func (s *Session) log(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Info(msg, append([]any{"session_id", s.id, "tenant_id", s.tenantID}, args...)...)
}
