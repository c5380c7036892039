package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvariantViolation indicates a programmer defect, such as building a
	// failed validation result without failed rules or stopping a charge at a
	// date outside its timeline. Commands hitting it must never be retried.
	ErrInvariantViolation = errors.New("invariant violation")
)
