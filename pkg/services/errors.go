// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNameRequired        = errors.New("name is required")
	ErrInvalidEntityType   = errors.New("invalid entity type")
	ErrInvalidTrigger      = errors.New("invalid trigger type")
	ErrInvalidWorkflowType = errors.New("invalid workflow type")
	ErrInvalidStatus       = errors.New("invalid workflow status")
	ErrInvalidOperator     = errors.New("invalid predicate operator")
	ErrInvalidActions      = errors.New("invalid action directive")
	ErrApproversRequired   = errors.New("approval workflow requires at least one approver")
	ErrWorkflowIDRequired  = errors.New("rule must reference a workflow definition")

	// Business Logic Conflicts (409 Conflict).
	ErrWorkflowHasOpenExecutions = errors.New("workflow definition has open executions")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrInvalidEntityType) ||
		errors.Is(err, ErrInvalidTrigger) ||
		errors.Is(err, ErrInvalidWorkflowType) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidOperator) ||
		errors.Is(err, ErrInvalidActions) ||
		errors.Is(err, ErrApproversRequired) ||
		errors.Is(err, ErrWorkflowIDRequired)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowHasOpenExecutions)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
