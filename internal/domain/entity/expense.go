package entity

import "time"

// ExpenseStatus is the lifecycle status of an expense
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

var terminalExpenseStatuses = map[ExpenseStatus]bool{
	ExpenseStatusApproved: true,
	ExpenseStatusRejected: true,
}

// IsTerminal returns true if no further transitions are allowed from this status
func (s ExpenseStatus) IsTerminal() bool {
	return terminalExpenseStatuses[s]
}

// String returns the string representation of the status
func (s ExpenseStatus) String() string {
	return string(s)
}

// Expense represents a submitted expense claim moving through an approval rule.
// ApprovalLevel is a 1-based index into the active rule's steps; Approvals is
// the append-only audit trail, one record per decided step.
type Expense struct {
	ID              string        `json:"id"`
	CompanyID       string        `json:"company_id"`
	UserID          string        `json:"user_id"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	ConvertedAmount float64       `json:"converted_amount"`
	CompanyCurrency string        `json:"company_currency"`
	Category        string        `json:"category"`
	Description     string        `json:"description"`
	Date            time.Time     `json:"date"`
	ReceiptURL      string        `json:"receipt_url,omitempty"`
	Status          ExpenseStatus `json:"status"`
	ApprovalLevel   int           `json:"approval_level"`
	Approvals       []*Approval   `json:"approvals"`
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsPending returns true if the expense is still awaiting a decision
func (e *Expense) IsPending() bool {
	return e.Status == ExpenseStatusPending
}

// ApprovedCount returns the number of approved records in the audit trail,
// counting both human and auto-approved steps
func (e *Expense) ApprovedCount() int {
	n := 0
	for _, a := range e.Approvals {
		if a.Status == ApprovalStatusApproved {
			n++
		}
	}
	return n
}
