package demo

import "errors"

var (
	// ErrInvalidStage indicates the operation is not available at the current stage.
	ErrInvalidStage = errors.New("invalid stage for operation")
	// ErrUnknownPersona indicates a persona id that is not in the catalog.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrUnknownAct indicates an act the selected persona does not have.
	ErrUnknownAct = errors.New("unknown act")
	// ErrCaptureDisabled indicates camera access was not granted.
	ErrCaptureDisabled = errors.New("receipt capture disabled")
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("demo session not found")
	// ErrInvalidInput indicates invalid demo input.
	ErrInvalidInput = errors.New("invalid demo input")
)
