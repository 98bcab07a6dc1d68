package domain

import "errors"

// Shared error taxonomy for the engine. Handlers translate these to HTTP
// status codes; services wrap them with context via fmt.Errorf + %w.
var (
	// ErrNotFound signals an unknown offer, plan or position id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState signals an illegal lifecycle transition, e.g. accepting
	// an offer that is no longer pending.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation signals rejected input (non-positive amounts,
	// out-of-range percentages).
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamUnavailable signals a failed upstream data feed or network
	// call. Planning and rate recommendation recover from this locally and
	// never surface it as fatal.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
