package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/domain/flows"
	"github.com/ganot/agentic-te/internal/domain/scenario"
	"github.com/ganot/agentic-te/internal/repository"
)

// ErrUnknownMethod indicates a method name no tool serves.
var ErrUnknownMethod = errors.New("unknown method")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. The wrapped message is
// kept so callers see which value was rejected.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	msg := err.Error()
	switch {
	case errors.Is(err, demo.ErrInvalidStage):
		return &APIError{Code: "INVALID_STAGE", Message: msg, RecoveryHint: "Call get_demo_state, then select_persona or select_act"}
	case errors.Is(err, demo.ErrUnknownPersona):
		return &APIError{Code: "UNKNOWN_PERSONA", Message: msg, RecoveryHint: "Call list_personas for valid ids"}
	case errors.Is(err, demo.ErrUnknownAct):
		return &APIError{Code: "UNKNOWN_ACT", Message: msg, RecoveryHint: "Pick an act of the selected persona"}
	case errors.Is(err, scenario.ErrUnknownScenario):
		return &APIError{Code: "UNKNOWN_SCENARIO", Message: msg, RecoveryHint: "Call list_scenarios for valid names"}
	case errors.Is(err, demo.ErrCaptureDisabled):
		return &APIError{Code: "CAPTURE_DISABLED", Message: msg, RecoveryHint: "Call set_camera_permission with granted=true"}
	case errors.Is(err, demo.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: msg, RecoveryHint: "Call get_demo_state to open a session"}
	case errors.Is(err, activity.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: msg, RecoveryHint: "Completed and error records are final"}
	case errors.Is(err, activity.ErrDuplicateID):
		return &APIError{Code: "DUPLICATE_ID", Message: msg, RecoveryHint: "Use a fresh activity id"}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "FIXTURE_NOT_FOUND", Message: msg, RecoveryHint: "Call list_fixtures or search_fixtures for ids"}
	case errors.Is(err, flows.ErrUnknownUser):
		return &APIError{Code: "FIXTURE_NOT_FOUND", Message: msg, RecoveryHint: "Call list_fixtures with kind=users"}
	case errors.Is(err, flows.ErrNoDestination):
		return &APIError{Code: "FIXTURE_NOT_FOUND", Message: msg, RecoveryHint: "Try San Francisco, Boston or New York"}
	case errors.Is(err, scenario.ErrInvalidParams),
		errors.Is(err, demo.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, flows.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: msg, RecoveryHint: "Check the tool input schema"}
	case errors.Is(err, scenario.ErrClosed):
		return &APIError{Code: "SESSION_CLOSED", Message: msg, RecoveryHint: "Open a new session"}
	default:
		return nil
	}
}
