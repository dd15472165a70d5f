package service

import "errors"

// Error taxonomy surfaced to the request boundary. Store faults are wrapped
// and propagate uninterpreted.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("message not found")
	ErrForbidden   = errors.New("not allowed")
	ErrRateLimited = errors.New("duplicate message suppressed")
)
