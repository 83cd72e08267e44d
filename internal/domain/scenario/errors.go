package scenario

import "errors"

var (
	// ErrUnknownScenario indicates no script is registered under a name.
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrInvalidParams indicates scenario parameters failed validation.
	ErrInvalidParams = errors.New("invalid scenario parameters")
	// ErrClosed indicates the runner has been torn down.
	ErrClosed = errors.New("scenario runner closed")
)
