package workflow

import (
	"fmt"

	"github.com/jding/expense-approval/internal/domain/entity"
)

// SelectRule picks the single rule governing an expense: the first rule in
// the company's configured list (insertion order is priority order) whose
// first step is applicable. An empty list or no match returns
// ErrNoApplicableRule; the caller holds the expense for manual admin review.
func SelectRule(rules []*entity.ApprovalRule, expense *entity.Expense) (*entity.ApprovalRule, error) {
	for _, rule := range rules {
		if len(rule.Steps) == 0 {
			continue
		}
		if IsApplicable(rule.Steps[0], rule, expense) {
			return rule, nil
		}
	}
	return nil, fmt.Errorf("%w: expense %s", ErrNoApplicableRule, expense.ID)
}
