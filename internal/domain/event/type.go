package event

// Type identifies the type of notification event
type Type string

const (
	// TypeApprovalRequired is emitted when an expense lands on a step that
	// needs a human decision, addressed to the step's approver role
	TypeApprovalRequired Type = "approval.required"

	// TypeExpenseApproved is emitted when an expense reaches its terminal
	// approved state
	TypeExpenseApproved Type = "expense.approved"

	// TypeExpenseRejected is emitted when an expense is rejected
	TypeExpenseRejected Type = "expense.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeApprovalRequired, TypeExpenseApproved, TypeExpenseRejected:
		return true
	default:
		return false
	}
}
