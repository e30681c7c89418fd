package core

import "errors"

// Error categories. Operations wrap one of these with %w so callers can
// branch with errors.Is without depending on collaborator error types.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("access token unavailable")
	ErrSync       = errors.New("delivery sync failed")
	ErrFetch      = errors.New("delivery fetch failed")
	ErrDateParse  = errors.New("unrecognized date")
)
