package entity

import "time"

// ApprovalStatus is the outcome recorded for a single approval step
type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Approval is one immutable entry in an expense's audit trail. ApproverID is
// empty for synthetic records appended by auto-approving steps.
type Approval struct {
	ID         string         `json:"id"`
	ExpenseID  string         `json:"expense_id"`
	Level      int            `json:"level"`
	ApproverID string         `json:"approver_id,omitempty"`
	Status     ApprovalStatus `json:"status"`
	Comment    string         `json:"comment,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// IsAuto returns true for synthetic records produced by auto-approving steps
func (a *Approval) IsAuto() bool {
	return a.ApproverID == ""
}
