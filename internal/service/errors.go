package service

import "errors"

// Error kinds surfaced to callers. Wrapped errors carry the detail; the
// HTTP layer maps kinds to status codes.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrStorage        = errors.New("storage failure")
)
