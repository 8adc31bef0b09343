package agent

import (
	"errors"
	"fmt"

	"github.com/roach88/snmpcore/internal/smi"
)

// DispatchError reports a request the agent could not route or authorize
// as a whole. Per-varbind failures are error statuses, not DispatchErrors.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Context is the addressed context.
	Context string

	// Table names the table involved, if any.
	Table string

	// Status is the SNMP error status to report, if any.
	Status smi.ErrorStatus

	// Message is a human-readable description.
	Message string
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeUnknownContext indicates the context is not registered.
	ErrCodeUnknownContext DispatchErrorCode = "UNKNOWN_CONTEXT"

	// ErrCodeTableOverlap indicates a table whose entry OID overlaps an
	// already registered one.
	ErrCodeTableOverlap DispatchErrorCode = "TABLE_OVERLAP"

	// ErrCodeAuthorization indicates access control refused the principal.
	ErrCodeAuthorization DispatchErrorCode = "AUTHORIZATION"
)

func (e *DispatchError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (context=%q, table=%s)", e.Code, e.Message, e.Context, e.Table)
	}
	return fmt.Sprintf("%s: %s (context=%q)", e.Code, e.Message, e.Context)
}

// IsUnknownContext reports whether err is an unknown-context DispatchError.
func IsUnknownContext(err error) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Code == ErrCodeUnknownContext
}

// IsAuthorization reports whether err is an authorization DispatchError.
func IsAuthorization(err error) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Code == ErrCodeAuthorization
}

func unknownContext(name string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeUnknownContext,
		Context: name,
		Message: "context is not registered",
	}
}
