package contracts

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy shared by adapters, the calculator and the router.
// Everything except ErrValidation is local to one candidate.
var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstream         = errors.New("upstream failure")
	ErrDataUnavailable  = errors.New("data unavailable")
	ErrLeverageExceeded = errors.New("leverage exceeded")
	ErrUnavailable      = errors.New("unavailable")
	ErrValidation       = errors.New("validation error")
	ErrNoAdapter        = errors.New("no adapter for platform")
)

// ValidationError reports a malformed request field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DataUnavailable wraps ErrDataUnavailable with the missing field name
func DataUnavailable(field string) error {
	return fmt.Errorf("%w: missing %s", ErrDataUnavailable, field)
}

// Classify returns the taxonomy label for err
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrLeverageExceeded):
		return "leverage_exceeded"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrNoAdapter):
		return "no_adapter"
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "unavailable"
	default:
		return "upstream"
	}
}
