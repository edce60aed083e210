package validate

import (
	"errors"
	"fmt"
)

// Sentinel kinds for validation failures. FieldError wraps exactly one of
// them so callers can branch with errors.Is.
var (
	// ErrMissingField marks an observation missing one or more required columns.
	ErrMissingField = errors.New("missing required field")
	// ErrTypeCoercion marks a value whose raw kind cannot become the canonical kind.
	ErrTypeCoercion = errors.New("transformation not possible")
	// ErrDomain marks a coerced value outside its field's allowed domain.
	ErrDomain = errors.New("value outside allowed domain")
)

// FieldError is a hard validation failure attributed to a single field.
// The orchestrator reports exactly one per rejected observation (first-fail).
type FieldError struct {
	Field   string
	Kind    error // one of the sentinel kinds above
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// Reason returns a short machine-friendly label for metrics.
func (e *FieldError) Reason() string {
	switch {
	case errors.Is(e.Kind, ErrMissingField):
		return "missing"
	case errors.Is(e.Kind, ErrTypeCoercion):
		return "coercion"
	case errors.Is(e.Kind, ErrDomain):
		return "domain"
	default:
		return "unknown"
	}
}

func absentValueError(field string) *FieldError {
	return &FieldError{
		Field:   field,
		Kind:    ErrMissingField,
		Message: fmt.Sprintf("field %q requires a value", field),
	}
}

func coercionError(field, format string, args ...any) *FieldError {
	return &FieldError{
		Field:   field,
		Kind:    ErrTypeCoercion,
		Message: fmt.Sprintf("transformation not possible: "+format, args...),
	}
}

func domainError(field, format string, args ...any) *FieldError {
	return &FieldError{
		Field:   field,
		Kind:    ErrDomain,
		Message: fmt.Sprintf(format, args...),
	}
}
