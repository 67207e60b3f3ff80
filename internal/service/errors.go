package service

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden означает нарушение правил роли или владения
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound означает отсутствие запрошенной записи
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials возвращается при неверном логине или пароле
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUser возвращается при занятом username или email
	ErrDuplicateUser = errors.New("username or email already taken")

	// ErrTooManyRequests возвращается при превышении лимита попыток входа
	ErrTooManyRequests = errors.New("too many requests")
)

// ValidationError is returned for missing or malformed request fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
