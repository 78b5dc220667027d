package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an operation references an entity id
// that does not exist in the store.
var ErrNotFound = errors.New("entity not found")

// ErrInvariant is returned when an operation would violate a business
// rule, such as creating a second active budget for a category.
var ErrInvariant = errors.New("invariant violation")

// ValidationError carries every rule violation from a single validation
// pass, so callers can surface all of them at once.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ValidationResult is the outcome of running an entity validator.
// Rules are cumulative: every failing check contributes a message.
type ValidationResult struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors"`
}

func validResult() ValidationResult {
	return ValidationResult{Valid: true}
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Err converts a failed result into a *ValidationError, or nil when the
// result is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}
