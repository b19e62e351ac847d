package filevalidator

import (
	"errors"
	"fmt"
)

// ValidationErrorType identifies which rule a record failed.
type ValidationErrorType string

const (
	ErrorTypeSize       ValidationErrorType = "size"
	ErrorTypeMIME       ValidationErrorType = "mime"
	ErrorTypeSignature  ValidationErrorType = "signature"
	ErrorTypeDimensions ValidationErrorType = "dimensions"
	ErrorTypeConfig     ValidationErrorType = "config"
)

// ValidationError is returned by a Validator when a record breaks one of its
// rules, and by New when the rule set itself is unusable.
type ValidationError struct {
	// Type is the rule that failed.
	Type ValidationErrorType

	// Message is the human-readable reason, naming the violated limit or pattern.
	Message string

	// Expected is the configured limit or pattern, rendered as text.
	Expected string

	// Actual is the observed value. Empty for config errors.
	Actual string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with only a type and message
func NewValidationError(errType ValidationErrorType, message string) *ValidationError {
	return &ValidationError{
		Type:    errType,
		Message: message,
	}
}

func sizeError(limit, actual int64) *ValidationError {
	return &ValidationError{
		Type:     ErrorTypeSize,
		Message:  fmt.Sprintf("exceeds maximum allowed size of %s", FormatMegabytes(limit)),
		Expected: FormatMegabytes(limit),
		Actual:   FormatMegabytes(actual),
	}
}

func mimeError(expected Pattern, actual string) *ValidationError {
	return &ValidationError{
		Type:     ErrorTypeMIME,
		Message:  fmt.Sprintf("invalid file type: expected %s, got %s", expected, orUnknown(actual)),
		Expected: expected.String(),
		Actual:   actual,
	}
}

func signatureError(expected Pattern, actual string) *ValidationError {
	return &ValidationError{
		Type:     ErrorTypeSignature,
		Message:  fmt.Sprintf("invalid file signature: expected %s, got %s", expected, orUnknown(actual)),
		Expected: expected.String(),
		Actual:   actual,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsErrorOfType checks if an error is a ValidationError of the specified type
func IsErrorOfType(err error, errType ValidationErrorType) bool {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Type == errType
	}
	return false
}

// GetErrorType returns the type of a ValidationError, or empty string if not a ValidationError
func GetErrorType(err error) ValidationErrorType {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Type
	}
	return ""
}
