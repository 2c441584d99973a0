package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jding/expense-approval/internal/domain/entity"
)

// Machine drives a single expense through the steps of its governing rule.
// It mutates the expense in memory only; persistence is the caller's job.
// Step evaluation is strictly sequential by level, so no two levels are ever
// active at once for the same expense.
type Machine struct {
	rule *entity.ApprovalRule
}

// NewMachine creates a state machine bound to the given rule
func NewMachine(rule *entity.ApprovalRule) *Machine {
	return &Machine{rule: rule}
}

// Rule returns the rule the machine is bound to
func (m *Machine) Rule() *entity.ApprovalRule {
	return m.rule
}

// CurrentStep returns the step awaiting a decision, or nil if the expense is
// terminal or has walked past the last level
func (m *Machine) CurrentStep(expense *entity.Expense) *entity.ApprovalStep {
	if !expense.IsPending() {
		return nil
	}
	return m.rule.StepAt(expense.ApprovalLevel)
}

// Advance runs the step-entry evaluation loop from the expense's current
// level. Inapplicable steps are skipped with no audit record; applicable
// auto-approving steps append a synthetic approved record. The loop stops at
// the first step that needs a human decision, or finalizes the expense as
// approved once every level has been passed. Chained skips and auto-approvals
// are resolved in a single call.
func (m *Machine) Advance(expense *entity.Expense, now time.Time) {
	for expense.IsPending() {
		step := m.rule.StepAt(expense.ApprovalLevel)
		if step == nil {
			expense.Status = entity.ExpenseStatusApproved
			expense.UpdatedAt = now
			return
		}

		if !IsApplicable(step, m.rule, expense) {
			expense.ApprovalLevel++
			continue
		}

		if step.AutoApprove {
			expense.Approvals = append(expense.Approvals, &entity.Approval{
				ID:        uuid.NewString(),
				ExpenseID: expense.ID,
				Level:     step.Level,
				Status:    entity.ApprovalStatusApproved,
				CreatedAt: now,
			})
			expense.ApprovalLevel++
			expense.UpdatedAt = now
			continue
		}

		// Applicable and not auto-approved: hold for a human decision.
		return
	}
}

// ApplyHumanDecision records a human approver's decision for the expense's
// current step and advances or finalizes the expense. A rejection at any
// level is final. The caller must have already verified the approver's
// authority against ResolveApprovers.
func (m *Machine) ApplyHumanDecision(expense *entity.Expense, approverID string, decision entity.ApprovalStatus, comment string, now time.Time) error {
	if !expense.IsPending() {
		return fmt.Errorf("%w: expense %s is %s", ErrNotPending, expense.ID, expense.Status)
	}

	step := m.rule.StepAt(expense.ApprovalLevel)
	if step == nil {
		return fmt.Errorf("%w: expense %s has no active step", ErrNotPending, expense.ID)
	}

	record := &entity.Approval{
		ID:         uuid.NewString(),
		ExpenseID:  expense.ID,
		Level:      step.Level,
		ApproverID: approverID,
		Comment:    comment,
		CreatedAt:  now,
	}

	switch decision {
	case entity.ApprovalStatusRejected:
		record.Status = entity.ApprovalStatusRejected
		expense.Approvals = append(expense.Approvals, record)
		expense.Status = entity.ExpenseStatusRejected
		expense.UpdatedAt = now
	case entity.ApprovalStatusApproved:
		record.Status = entity.ApprovalStatusApproved
		expense.Approvals = append(expense.Approvals, record)
		expense.ApprovalLevel++
		expense.UpdatedAt = now
		m.Advance(expense, now)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	return nil
}
