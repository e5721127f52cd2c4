package common

import "fmt"

// FieldError reports a rejected input field. It matches ErrorValidation with
// errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrorValidation
}

// Invalid builds a FieldError for field.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// ValidateWindow enforces 0 <= skip <= MaxPageSkip and
// 1 <= limit <= MaxPageLimit.
func ValidateWindow(skip, limit int) error {
	if skip < 0 || skip > MaxPageSkip {
		return Invalid("skip", fmt.Sprintf("must be between 0 and %d", MaxPageSkip))
	}
	if limit < 1 || limit > MaxPageLimit {
		return Invalid("limit", fmt.Sprintf("must be between 1 and %d", MaxPageLimit))
	}
	return nil
}
