package models

import "time"

// ApprovalStatus is the state of a single approver's step.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusCancelled ApprovalStatus = "cancelled"
)

// IsDecision reports whether s is a valid terminal decision for an approval.
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected || s == ApprovalStatusCancelled
}

// Signature captures a server-side signature payload attached to a decision.
type Signature struct {
	Image    string         `json:"image"` // base64 image data
	Method   string         `json:"method"`
	Metadata map[string]any `json:"metadata,omitempty"`
	SignedAt time.Time      `json:"signed_at"`
}

// Approval is one approver's pending/decided vote within an execution.
// StepOrder assigns ordering for display only; all steps are created eagerly
// and may be answered in any order. Status transitions only from pending.
type Approval struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id" validate:"required"`
	ApproverID  string         `json:"approver_id"  validate:"required"`
	Status      ApprovalStatus `json:"status"`
	Comments    string         `json:"comments,omitempty"`
	StepOrder   int            `json:"step_order"`
	Signature   *Signature     `json:"signature,omitempty"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
