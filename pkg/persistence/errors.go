// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow definition was not found.
	ErrWorkflowNotFound = errors.New("workflow definition not found")

	// ErrRuleNotFound indicates a trigger rule was not found.
	ErrRuleNotFound = errors.New("trigger rule not found")

	// ErrExecutionNotFound indicates an execution was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrApprovalNotFound indicates an approval was not found.
	ErrApprovalNotFound = errors.New("approval not found")

	// ErrTaskNotFound indicates a task was not found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrWorkflowInUse indicates a definition still has non-terminal
	// executions and cannot be deleted.
	ErrWorkflowInUse = errors.New("workflow definition has open executions")
)

// StoreError wraps persistence errors with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g., "WorkflowByID", "SaveRule")
	ID  string // Record identifier if applicable
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a missing definition.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsRuleNotFound checks if an error indicates a missing trigger rule.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsExecutionNotFound checks if an error indicates a missing execution.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsApprovalNotFound checks if an error indicates a missing approval.
func IsApprovalNotFound(err error) bool {
	return errors.Is(err, ErrApprovalNotFound)
}

// IsWorkflowInUse checks if an error indicates a delete guard violation.
func IsWorkflowInUse(err error) bool {
	return errors.Is(err, ErrWorkflowInUse)
}
