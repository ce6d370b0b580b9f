package errors

import (
	"errors"
	"fmt"
)

// NetworkError indicates the remote service could not be reached or returned
// no usable response. Callers surface a generic message for these.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError carries a 400-class response with a server-provided
// message, which is shown to the user verbatim.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (status %d): %s", e.StatusCode, e.Message)
}

// GatewayError indicates the tokenization gateway rejected a request. The
// gateway can report errors inside a 200 response body, so this is not tied
// to an HTTP status.
type GatewayError struct {
	Operation string
	Reason    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected %s: %s", e.Operation, e.Reason)
}

// PaymentDeclined is a terminal, user-visible capture failure; the attempt
// is never retried automatically.
type PaymentDeclined struct {
	Reason string
}

func (e *PaymentDeclined) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// CoverageError means the selected postal code is outside the delivery zone.
type CoverageError struct {
	PostalCode string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("postal code %s is outside the delivery area", e.PostalCode)
}

// MinimumOrderError blocks submission when the order total is below the
// date-specific threshold. Message comes from the server.
type MinimumOrderError struct {
	Message string
}

func (e *MinimumOrderError) Error() string {
	return e.Message
}

// ErrInvalidStateTransition is returned when a checkout session is driven
// through an illegal phase change.
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrNotFound indicates a missing resource.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a failed authentication attempt.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// IsValidation reports whether err is a 400-class server rejection whose
// message should be surfaced verbatim.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationMessage extracts the server message from a validation error, or
// returns "" when err is not one.
func ValidationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return ""
}

// IsDeclined reports whether err is a terminal payment decline.
func IsDeclined(err error) bool {
	var pd *PaymentDeclined
	return errors.As(err, &pd)
}

// IsNotFound reports whether err is a missing-resource error.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
