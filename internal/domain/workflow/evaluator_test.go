package workflow

import (
	"context"
	"testing"

	"github.com/jding/expense-approval/internal/domain/entity"
)

func expenseWith(converted float64, category string, approvals ...*entity.Approval) *entity.Expense {
	return &entity.Expense{
		ID:              "exp-1",
		CompanyID:       "co-1",
		ConvertedAmount: converted,
		Category:        category,
		Status:          entity.ExpenseStatusPending,
		ApprovalLevel:   1,
		Approvals:       approvals,
	}
}

func ruleWith(steps ...*entity.ApprovalStep) *entity.ApprovalRule {
	rule := &entity.ApprovalRule{ID: "rule-1", CompanyID: "co-1", Name: "test", Steps: steps}
	rule.Normalize()
	return rule
}

func approved() *entity.Approval {
	return &entity.Approval{Status: entity.ApprovalStatusApproved}
}

func TestIsApplicable_NoCondition(t *testing.T) {
	step := &entity.ApprovalStep{ApproverRole: entity.RoleManager}
	rule := ruleWith(step)

	if !IsApplicable(step, rule, expenseWith(10, entity.CategoryMeals)) {
		t.Error("step without condition must always be applicable")
	}
}

func TestIsApplicable_AmountThreshold(t *testing.T) {
	step := &entity.ApprovalStep{
		ApproverRole: entity.RoleManager,
		Condition:    &entity.StepCondition{Type: entity.ConditionAmount, Threshold: 100},
	}
	rule := ruleWith(step)

	tests := []struct {
		name      string
		converted float64
		expected  bool
	}{
		{"below threshold", 50, false},
		{"at threshold", 100, true},
		{"above threshold", 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsApplicable(step, rule, expenseWith(tt.converted, entity.CategoryMeals)); got != tt.expected {
				t.Errorf("IsApplicable(converted=%v) = %v, want %v", tt.converted, got, tt.expected)
			}
		})
	}
}

func TestIsApplicable_Category(t *testing.T) {
	step := &entity.ApprovalStep{
		ApproverRole: entity.RoleManager,
		Condition:    &entity.StepCondition{Type: entity.ConditionCategory, Category: entity.CategoryTravel},
	}
	rule := ruleWith(step)

	if !IsApplicable(step, rule, expenseWith(10, entity.CategoryTravel)) {
		t.Error("matching category must be applicable")
	}
	if IsApplicable(step, rule, expenseWith(10, entity.CategoryMeals)) {
		t.Error("non-matching category must not be applicable")
	}
}

func TestIsApplicable_PercentageQuota(t *testing.T) {
	// 50% of a 4-step rule requires 2 prior approvals before the step is
	// considered satisfied.
	cond := &entity.StepCondition{Type: entity.ConditionPercentage, Threshold: 50}
	steps := []*entity.ApprovalStep{
		{ApproverRole: entity.RoleManager},
		{ApproverRole: entity.RoleManager},
		{ApproverRole: entity.RoleAdmin, Condition: cond},
		{ApproverRole: entity.RoleAdmin},
	}
	rule := ruleWith(steps...)
	step := steps[2]

	tests := []struct {
		name      string
		approvals []*entity.Approval
		expected  bool
	}{
		{"no prior approvals", nil, true},
		{"quota unmet", []*entity.Approval{approved()}, true},
		{"quota met", []*entity.Approval{approved(), approved()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense := expenseWith(100, entity.CategoryMeals, tt.approvals...)
			if got := IsApplicable(step, rule, expense); got != tt.expected {
				t.Errorf("IsApplicable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsApplicable_PercentageIgnoresRejections(t *testing.T) {
	cond := &entity.StepCondition{Type: entity.ConditionPercentage, Threshold: 100}
	steps := []*entity.ApprovalStep{
		{ApproverRole: entity.RoleManager},
		{ApproverRole: entity.RoleAdmin, Condition: cond},
	}
	rule := ruleWith(steps...)

	rejection := &entity.Approval{Status: entity.ApprovalStatusRejected}
	expense := expenseWith(100, entity.CategoryMeals, approved(), rejection)

	// 100% of 2 steps requires 2 approved records; the rejection must not
	// count toward the quota.
	if !IsApplicable(steps[1], rule, expense) {
		t.Error("rejected records must not satisfy a percentage quota")
	}
}

func TestIsAutoApproved(t *testing.T) {
	cond := &entity.StepCondition{Type: entity.ConditionAmount, Threshold: 500}
	step := &entity.ApprovalStep{ApproverRole: entity.RoleAdmin, Condition: cond, AutoApprove: true}
	rule := ruleWith(step)

	if !IsAutoApproved(step, rule, expenseWith(600, entity.CategoryMeals)) {
		t.Error("applicable auto-approve step must auto-approve")
	}
	if IsAutoApproved(step, rule, expenseWith(100, entity.CategoryMeals)) {
		t.Error("inapplicable step must not auto-approve")
	}

	manual := &entity.ApprovalStep{ApproverRole: entity.RoleAdmin, Condition: cond}
	if IsAutoApproved(manual, ruleWith(manual), expenseWith(600, entity.CategoryMeals)) {
		t.Error("step without auto-approve flag must not auto-approve")
	}
}

type stubDirectory struct {
	users []*entity.User
	err   error
}

func (d *stubDirectory) GetUsersByRoleAndCompany(_ context.Context, role entity.UserRole, companyID string) ([]*entity.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*entity.User
	for _, u := range d.users {
		if u.Role == role && u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *stubDirectory) GetManagerOf(_ context.Context, _ string) (*entity.User, error) {
	return nil, nil
}

func TestResolveApprovers(t *testing.T) {
	dir := &stubDirectory{users: []*entity.User{
		{ID: "u1", Role: entity.RoleManager, CompanyID: "co-1"},
		{ID: "u2", Role: entity.RoleManager, CompanyID: "co-2"},
		{ID: "u3", Role: entity.RoleAdmin, CompanyID: "co-1"},
	}}

	step := &entity.ApprovalStep{Level: 1, ApproverRole: entity.RoleManager}
	users, err := ResolveApprovers(context.Background(), step, expenseWith(100, entity.CategoryMeals), dir)
	if err != nil {
		t.Fatalf("ResolveApprovers() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != "u1" {
		t.Errorf("ResolveApprovers() = %v, want only u1", users)
	}
}
