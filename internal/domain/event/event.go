package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jding/expense-approval/internal/domain/entity"
)

// Event is a notification emitted by the workflow engine. Delivery is
// fire-and-forget from the engine's perspective; the notification sink owns
// fan-out to users.
type Event struct {
	ID        string               `json:"id"`
	Type      Type                 `json:"type"`
	ExpenseID string               `json:"expense_id"`
	Status    entity.ExpenseStatus `json:"status"`
	Level     int                  `json:"level,omitempty"`
	Role      entity.UserRole      `json:"role,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewApprovalRequired builds an event addressed to the role holding the
// expense's next pending step
func NewApprovalRequired(expense *entity.Expense, level int, role entity.UserRole) *Event {
	return &Event{
		ID:        generateID(),
		Type:      TypeApprovalRequired,
		ExpenseID: expense.ID,
		Status:    expense.Status,
		Level:     level,
		Role:      role,
		Timestamp: time.Now(),
	}
}

// NewTerminal builds the event for an expense reaching a terminal state
func NewTerminal(expense *entity.Expense) *Event {
	t := TypeExpenseApproved
	if expense.Status == entity.ExpenseStatusRejected {
		t = TypeExpenseRejected
	}
	return &Event{
		ID:        generateID(),
		Type:      t,
		ExpenseID: expense.ID,
		Status:    expense.Status,
		Timestamp: time.Now(),
	}
}

// generateID creates a unique ID using timestamp and random bytes
func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
