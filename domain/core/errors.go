package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrBuildingNotFound = fmt.Errorf("%w: building", ErrNotFound)
	ErrZoneNotFound     = fmt.Errorf("%w: zone", ErrNotFound)
	ErrColumnNotFound   = fmt.Errorf("%w: column", ErrNotFound)

	// Analysis skip conditions. These mark a single (parameter, output) unit
	// of work as unusable; they are collected, never fatal to a whole run.
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrZeroVariance     = errors.New("zero variance")
	ErrAllMissing       = errors.New("all values missing")
	ErrDegenerateFit    = errors.New("degenerate fit")

	// Configuration errors
	ErrUnknownMethod    = errors.New("unknown method")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrHookNotAvailable = errors.New("analysis hook not available")
)

// NewValidationError reports a field-level validation failure.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// NewSkipError wraps a skip condition with the pair it applies to.
func NewSkipError(parameter, output string, cause error) error {
	return fmt.Errorf("%s vs %s: %w", parameter, output, cause)
}

// IsSkip reports whether err is a per-unit skip condition rather than a real
// failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrZeroVariance) ||
		errors.Is(err, ErrAllMissing) ||
		errors.Is(err, ErrDegenerateFit)
}

// IsNotFoundError checks if an error is a not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
