package agents

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors for agent operations.
var (
	ErrNotFound        = errors.New("agent not found")
	ErrVersionNotFound = errors.New("agent version not found")
	ErrInvalidConfig   = errors.New("invalid agent config")
	ErrConfigTooLarge  = errors.New("agent config exceeds size limit")
	ErrDefaultConflict = errors.New("default agent promotion retries exhausted")
)

// SchemaError reports every structural defect in a submitted config document,
// not just the first. It unwraps to ErrInvalidConfig.
type SchemaError struct {
	// MissingKeys lists required top-level keys absent from the document.
	MissingKeys []string

	// InvalidKeys lists required keys present with the wrong JSON type.
	InvalidKeys []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.MissingKeys) > 0 {
		parts = append(parts, fmt.Sprintf("missing keys: %s", strings.Join(e.MissingKeys, ", ")))
	}
	if len(e.InvalidKeys) > 0 {
		parts = append(parts, fmt.Sprintf("invalid keys: %s", strings.Join(e.InvalidKeys, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrInvalidConfig
}

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrConfigTooLarge) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDefaultConflict) {
		// transient write contention, retryable by the caller
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
