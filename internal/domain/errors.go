package domain

import "errors"

// Dispatch error kinds. Callers branch on these with errors.Is; the HTTP
// layer maps them to status codes. Validation failures never leave partial
// state behind.
var (
	ErrDriverNotFound         = errors.New("driver not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrRouteNotFound          = errors.New("route not found")
	ErrDuplicateDriver        = errors.New("driver already registered")
	ErrOrderAlreadyAssigned   = errors.New("order already assigned")
	ErrDriverAtCapacity       = errors.New("driver at capacity")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrRouteNotReady          = errors.New("route awaiting optimization")
)
