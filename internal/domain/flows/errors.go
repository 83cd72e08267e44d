package flows

import "errors"

var (
	// ErrInvalidInput indicates a malformed flow request.
	ErrInvalidInput = errors.New("invalid flow input")
	// ErrUnknownUser indicates the report user is not in the catalog.
	ErrUnknownUser = errors.New("unknown user")
	// ErrNoDestination indicates no catalog option reaches the destination.
	ErrNoDestination = errors.New("no travel options for destination")
)
