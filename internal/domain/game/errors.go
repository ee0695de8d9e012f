package game

import "errors"

// Error kinds returned by the ledger and session services. Callers match them
// with errors.Is; services wrap them with detail.
var (
	ErrNotAuthorized            = errors.New("not authorized")
	ErrInvalidState             = errors.New("invalid state")
	ErrNotFound                 = errors.New("not found")
	ErrInsufficientParticipants = errors.New("insufficient participants")
	ErrMappingFailure           = errors.New("mapping failure")
	ErrInvalidArgument          = errors.New("invalid argument")
)

// ErrConflict is returned by stores when an insert violates a unique key.
var ErrConflict = errors.New("conflict")
