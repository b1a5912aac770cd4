// Package engine provides standardized error types for the workflow engine.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowInactive indicates an execution references a definition
	// that is no longer active. Fatal to the queue job.
	ErrWorkflowInactive = errors.New("workflow definition is not active")

	// ErrForbidden indicates the acting user is not the approver of the
	// step they tried to decide (403 Forbidden).
	ErrForbidden = errors.New("user is not the approver for this step")

	// ErrAlreadyDecided indicates the approval was already processed
	// (400 Bad Request).
	ErrAlreadyDecided = errors.New("approval has already been processed")

	// ErrInvalidDecision indicates the decision is not a member of the
	// approved/rejected/cancelled set (400 Bad Request).
	ErrInvalidDecision = errors.New("invalid approval decision")
)

// DecisionError wraps unexpected internal failures of the approval flow so
// they surface as client-facing bad requests rather than opaque 500s. The
// specific precondition errors above propagate untouched.
type DecisionError struct {
	ApprovalID string
	Err        error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("failed to process decision on approval %s: %v", e.ApprovalID, e.Err)
}

func (e *DecisionError) Unwrap() error {
	return e.Err
}

// IsForbidden checks if an error should map to HTTP 403.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsDecisionRejected checks if an error should map to HTTP 400.
func IsDecisionRejected(err error) bool {
	if errors.Is(err, ErrAlreadyDecided) || errors.Is(err, ErrInvalidDecision) {
		return true
	}

	var decisionErr *DecisionError

	return errors.As(err, &decisionErr)
}
