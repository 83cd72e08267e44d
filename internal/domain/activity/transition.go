package activity

import (
	"fmt"
	"strings"
)

// ValidateTransition checks a status change. Same-status updates are always
// allowed; completed and error are terminal.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if from == to {
		return nil
	}

	valid := false
	switch from {
	case StatusIdle:
		valid = to == StatusActive || to == StatusProcessing
	case StatusActive:
		valid = to == StatusProcessing || to == StatusCompleted || to == StatusError
	case StatusProcessing:
		valid = to == StatusCompleted || to == StatusError
	}

	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ValidateRecord validates a record before it enters a store.
func ValidateRecord(r Record) error {
	if !r.AgentType.Valid() {
		return fmt.Errorf("%w: unknown agent type %q", ErrInvalidInput, r.AgentType)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, r.Status)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	return validateProgress(r.Progress)
}

func validateProgress(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidInput, *p)
	}
	return nil
}
