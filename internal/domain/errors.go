package domain

import "fmt"

// Error types for consistent error handling across the gateway.
// Every failure here is recoverable by retrying the originating user action;
// nothing in this taxonomy is fatal to the process.

// ErrUnauthenticated indicates an operation that requires a signed-in
// principal was attempted without one.
type ErrUnauthenticated struct{}

func (e *ErrUnauthenticated) Error() string {
	return "no signed-in principal"
}

// ErrValidation indicates a client-side constraint violation. Validation
// errors are resolved locally and never reach the network.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a referenced resource is absent. Idempotent removals
// treat it as success; everything else treats it as an error.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a transport-level failure talking to the
// commerce API: network error, 5xx, or a malformed payload.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrRejected indicates a business failure reported by the commerce API,
// e.g. insufficient stock or a declined payment.
type ErrRejected struct {
	Reason string
}

func (e *ErrRejected) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "checkout failed"
}

// ErrCircuitOpen indicates the circuit breaker is open for the service.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
