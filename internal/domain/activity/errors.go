package activity

import "errors"

var (
	// ErrInvalidInput indicates a malformed record or patch.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrDuplicateID indicates an add would break id uniqueness.
	ErrDuplicateID = errors.New("duplicate activity id")
	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStaleEpoch indicates the store was reset after a guarded caller
	// last looked.
	ErrStaleEpoch = errors.New("activity store was reset")
	// ErrUnknownAction indicates an action kind the reducer does not handle.
	ErrUnknownAction = errors.New("unknown activity action")
)
