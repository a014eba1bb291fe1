package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing, invalid or expired bearer token.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden indicates the caller role may not perform the operation.
	ErrForbidden = errors.New("insufficient role")
)

// ValidationError reports malformed input or a violated business rule.
type ValidationError struct {
	Message string
	Details any
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError carrying optional details.
func NewValidationError(message string, details any) error {
	return &ValidationError{Message: message, Details: details}
}

// Validationf formats a ValidationError without details.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// NotFound builds an entity scoped not-found error.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}
