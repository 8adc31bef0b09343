package config

import (
	"errors"
	"fmt"
)

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	// File is the configuration file, if known.
	File string

	// Field is the dotted path of the offending key.
	Field string

	// Message is a human-readable description.
	Message string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
