package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the checkout/payment pipeline. Callers classify with
// errors.Is and map them to HTTP statuses at the handler boundary.
var (
	// ErrNotFound covers any entity lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrGatewayUnavailable means payment initiation failed before a pending
	// payment was registered. The checkout is rolled back and the caller may
	// simply retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidAmount rejects non-positive payment amounts before any
	// gateway call is made.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrIllegalTransition rejects an order status change with no edge in
	// the transition graph. Nothing is mutated.
	ErrIllegalTransition = errors.New("illegal order status transition")

	// ErrUnknownCallback means a provider callback could not be matched to a
	// live pending payment: already resolved, expired, or never existed.
	// It is acknowledged to the provider and logged, never escalated.
	ErrUnknownCallback = errors.New("callback does not match a pending payment")
)

// ValidationError is a synchronous checkout rejection (empty cart, bad
// address, insufficient stock, missing pickup fields). The message is safe to
// surface to the user verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
