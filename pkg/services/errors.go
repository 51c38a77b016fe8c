// Package services implements the application layer between the HTTP API and
// persistence.
package services

import (
	"errors"
	"fmt"
)

// ValidationError marks a request rejected before touching storage.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err as a validation failure.
func NewValidationError(err error) *ValidationError {
	return &ValidationError{Err: err}
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}
