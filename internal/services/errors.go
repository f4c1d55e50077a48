package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive or suspended")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrDuplicate          = errors.New("duplicate record")

	// ErrMissingReconciliationEntities means the configured reconciliation
	// operator or vehicle does not exist. Closing a refill fails loudly
	// rather than booking the residual against an arbitrary row.
	ErrMissingReconciliationEntities = errors.New("reconciliation operator or vehicle not configured")
)

// ValidationError reports a rejected input field.
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

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TankFloorError is returned when a fuel usage would push the tank level
// below the allowed negative tolerance.
type TankFloorError struct {
	Level     int
	Requested int
	Floor     int
}

func (e *TankFloorError) Error() string {
	return fmt.Sprintf("usage of %d would push tank level %d below the allowed floor %d",
		e.Requested, e.Level, e.Floor)
}
