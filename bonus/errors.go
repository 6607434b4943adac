/*
errors.go - Centralized error types for the bonus engine

PURPOSE:
  All engine error types in one place. Callers (HTTP handlers, CSV import,
  the scheduler) map these onto their own surfaces with errors.Is/errors.As.

ERROR CATEGORIES:
  1. Configuration errors - malformed tiers, categories, forecasts.
     Always fatal to a calculation, never retried.
  2. Invalid request errors - bad caller input (missing or negative
     totalRevenue, period out of range). Raised before any work begins.
  3. Not found errors - no forecast configured for the requested period.
     Distinct from "forecast not met", which is a normal zero-payout result.

DETAIL CONTRACT:
  ConfigurationError must carry enough detail (category names, the specific
  invalid field) for an operator to fix the configuration without reading
  logs. Validation collects every problem it can see, not just the first.

USAGE:
  report, err := orch.Calculate(input)
  switch {
  case bonus.IsNotFound(err):       // 404
  case bonus.IsConfiguration(err):  // 422
  case bonus.IsClientError(err):    // 400
  }
*/
package bonus

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is the root of all tier/category setup errors.
	ErrInvalidConfiguration = errors.New("invalid bonus configuration")

	// ErrInvalidRequest is the root of caller-input errors.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when required configuration for the requested
	// period does not exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry operator-facing context
// =============================================================================

// ConfigurationError reports malformed or incomplete tier/category setup.
// Problems lists every violation found, one human-readable line each.
type ConfigurationError struct {
	Category string // offending category name, empty for cross-category errors
	Problems []string
}

func (e *ConfigurationError) Error() string {
	msg := "invalid bonus configuration"
	if e.Category != "" {
		msg += " for category " + e.Category
	}
	if len(e.Problems) > 0 {
		msg += ": " + strings.Join(e.Problems, "; ")
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// InvalidRequestError reports caller-supplied input the engine refuses to
// work with.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

func (e *InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

// NotFoundError reports missing required configuration, e.g. no forecast
// for the requested month.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found for %s", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfiguration returns true for tier/category setup errors.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsNotFound returns true if required configuration is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrNotFound)
}
