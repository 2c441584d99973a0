package workflow

import (
	"context"
	"fmt"
	"math"

	"github.com/jding/expense-approval/internal/domain/entity"
)

// OrgDirectory resolves role holders within a company. Implemented by the
// user repository; kept as a local interface so the engine stays free of
// persistence concerns.
type OrgDirectory interface {
	GetUsersByRoleAndCompany(ctx context.Context, role entity.UserRole, companyID string) ([]*entity.User, error)
	GetManagerOf(ctx context.Context, userID string) (*entity.User, error)
}

// IsApplicable reports whether a step's condition holds for the expense.
// A step with no condition is always applicable.
func IsApplicable(step *entity.ApprovalStep, rule *entity.ApprovalRule, expense *entity.Expense) bool {
	if step.Condition == nil {
		return true
	}

	switch step.Condition.Type {
	case entity.ConditionAmount:
		// Threshold semantics: the step only engages at or above the
		// configured spend in company currency.
		return expense.ConvertedAmount >= step.Condition.Threshold
	case entity.ConditionPercentage:
		// The step requires ceil(value% of the rule's steps) prior approved
		// records; once that quota is met the step is satisfied and skipped.
		required := requiredPriorApprovals(step.Condition.Threshold, len(rule.Steps))
		return expense.ApprovedCount() < required
	case entity.ConditionCategory:
		return expense.Category == step.Condition.Category
	}

	// Unknown condition types are rejected at rule-save time; treat a stray
	// one as not applicable rather than blocking the expense.
	return false
}

// IsAutoApproved reports whether the step is satisfied without a human
// decision: the auto-approve flag is set and the step is applicable.
func IsAutoApproved(step *entity.ApprovalStep, rule *entity.ApprovalRule, expense *entity.Expense) bool {
	return step.AutoApprove && IsApplicable(step, rule, expense)
}

// ResolveApprovers returns the users eligible to decide the given step: all
// holders of the step's approver role within the submitter's company. Any one
// of them approving satisfies the step.
func ResolveApprovers(ctx context.Context, step *entity.ApprovalStep, expense *entity.Expense, dir OrgDirectory) ([]*entity.User, error) {
	users, err := dir.GetUsersByRoleAndCompany(ctx, step.ApproverRole, expense.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("resolve approvers for level %d: %w", step.Level, err)
	}
	return users, nil
}

func requiredPriorApprovals(percentage float64, totalSteps int) int {
	return int(math.Ceil(percentage / 100 * float64(totalSteps)))
}
