package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/domain/event"
	"github.com/jding/expense-approval/internal/domain/workflow"
)

func twoStepRule() *entity.ApprovalRule {
	rule := &entity.ApprovalRule{
		ID:        "rule-1",
		CompanyID: "co-1",
		Name:      "standard",
		Steps: []*entity.ApprovalStep{
			{ID: "s1", ApproverRole: entity.RoleManager},
			{ID: "s2", ApproverRole: entity.RoleAdmin},
		},
	}
	rule.Normalize()
	return rule
}

func pendingExpense(level int, version int64) *entity.Expense {
	return &entity.Expense{
		ID:              "exp-1",
		CompanyID:       "co-1",
		UserID:          "emp-1",
		ConvertedAmount: 120,
		Category:        entity.CategoryMeals,
		Status:          entity.ExpenseStatusPending,
		ApprovalLevel:   level,
		Version:         version,
	}
}

type decisionFixture struct {
	expenseRepo  *mockExpenseRepo
	approvalRepo *mockApprovalRepo
	ruleRepo     *mockRuleRepo
	userRepo     *mockUserRepo
	sink         *mockSink
	service      DecisionService
}

func newDecisionFixture(expense *entity.Expense, rule *entity.ApprovalRule, approvers map[entity.UserRole][]*entity.User) *decisionFixture {
	f := &decisionFixture{
		expenseRepo: &mockExpenseRepo{
			getByIDFunc: func(_ context.Context, id string) (*entity.Expense, error) {
				if expense != nil && id == expense.ID {
					return expense, nil
				}
				return nil, nil
			},
		},
		approvalRepo: &mockApprovalRepo{},
		ruleRepo: &mockRuleRepo{
			listByCompanyFunc: func(context.Context, string) ([]*entity.ApprovalRule, error) {
				return []*entity.ApprovalRule{rule}, nil
			},
		},
		userRepo: &mockUserRepo{
			byRoleFunc: func(_ context.Context, role entity.UserRole, _ string) ([]*entity.User, error) {
				return approvers[role], nil
			},
		},
		sink: &mockSink{},
	}
	f.service = NewDecisionService(f.expenseRepo, f.approvalRepo, f.ruleRepo, f.userRepo,
		&mockTxManager{}, f.sink, nopLogger{})
	return f
}

func defaultApprovers() map[entity.UserRole][]*entity.User {
	return map[entity.UserRole][]*entity.User{
		entity.RoleManager: {{ID: "mgr-1", Role: entity.RoleManager, CompanyID: "co-1"}},
		entity.RoleAdmin:   {{ID: "adm-1", Role: entity.RoleAdmin, CompanyID: "co-1"}},
	}
}

func TestApplyDecision_ApproveAdvances(t *testing.T) {
	expense := pendingExpense(1, 3)
	var gotReadVersion int64
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())
	f.expenseRepo.updateVersionedFunc = func(_ context.Context, e *entity.Expense, readVersion int64) error {
		gotReadVersion = readVersion
		e.Version = readVersion + 1
		return nil
	}

	result, err := f.service.ApplyDecision(context.Background(), "exp-1", "mgr-1", entity.ApprovalStatusApproved, "looks fine")
	require.NoError(t, err)

	assert.Equal(t, entity.ExpenseStatusPending, result.Status)
	assert.Equal(t, 2, result.ApprovalLevel)
	assert.Equal(t, int64(3), gotReadVersion)

	require.Len(t, f.approvalRepo.created, 1)
	record := f.approvalRepo.created[0]
	assert.Equal(t, "mgr-1", record.ApproverID)
	assert.Equal(t, entity.ApprovalStatusApproved, record.Status)
	assert.Equal(t, "looks fine", record.Comment)

	events := f.sink.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeApprovalRequired, events[0].Type)
	assert.Equal(t, 2, events[0].Level)
	assert.Equal(t, entity.RoleAdmin, events[0].Role)
}

func TestApplyDecision_FinalApproval(t *testing.T) {
	expense := pendingExpense(2, 5)
	expense.Approvals = nil
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())
	f.approvalRepo.getByExpFun = func(context.Context, string) ([]*entity.Approval, error) {
		return []*entity.Approval{
			{ID: "a1", ExpenseID: "exp-1", Level: 1, ApproverID: "mgr-1", Status: entity.ApprovalStatusApproved},
		}, nil
	}

	result, err := f.service.ApplyDecision(context.Background(), "exp-1", "adm-1", entity.ApprovalStatusApproved, "")
	require.NoError(t, err)

	assert.Equal(t, entity.ExpenseStatusApproved, result.Status)
	assert.Equal(t, 3, result.ApprovalLevel)
	// Only the new record is appended; the prior one is already stored.
	require.Len(t, f.approvalRepo.created, 1)
	assert.Equal(t, "adm-1", f.approvalRepo.created[0].ApproverID)

	events := f.sink.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeExpenseApproved, events[0].Type)
}

func TestApplyDecision_Reject(t *testing.T) {
	expense := pendingExpense(1, 1)
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())

	result, err := f.service.ApplyDecision(context.Background(), "exp-1", "mgr-1", entity.ApprovalStatusRejected, "no receipt")
	require.NoError(t, err)

	assert.Equal(t, entity.ExpenseStatusRejected, result.Status)
	require.Len(t, f.approvalRepo.created, 1)
	assert.Equal(t, entity.ApprovalStatusRejected, f.approvalRepo.created[0].Status)

	events := f.sink.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeExpenseRejected, events[0].Type)
}

func TestApplyDecision_NotFound(t *testing.T) {
	f := newDecisionFixture(nil, twoStepRule(), defaultApprovers())

	_, err := f.service.ApplyDecision(context.Background(), "missing", "mgr-1", entity.ApprovalStatusApproved, "")
	assert.ErrorIs(t, err, workflow.ErrNotPending)
}

func TestApplyDecision_TerminalExpense(t *testing.T) {
	expense := pendingExpense(2, 2)
	expense.Status = entity.ExpenseStatusApproved
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())

	_, err := f.service.ApplyDecision(context.Background(), "exp-1", "adm-1", entity.ApprovalStatusApproved, "")
	assert.ErrorIs(t, err, workflow.ErrNotPending)
	assert.Empty(t, f.approvalRepo.created)
	assert.Empty(t, f.sink.published())
}

func TestApplyDecision_UnauthorizedApprover(t *testing.T) {
	expense := pendingExpense(1, 1)
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())

	// An admin cannot decide the manager step, and an unknown user cannot
	// decide anything.
	_, err := f.service.ApplyDecision(context.Background(), "exp-1", "adm-1", entity.ApprovalStatusApproved, "")
	assert.ErrorIs(t, err, workflow.ErrUnauthorizedApprover)

	_, err = f.service.ApplyDecision(context.Background(), "exp-1", "stranger", entity.ApprovalStatusApproved, "")
	assert.ErrorIs(t, err, workflow.ErrUnauthorizedApprover)
	assert.Empty(t, f.sink.published())
}

func TestApplyDecision_InvalidDecision(t *testing.T) {
	expense := pendingExpense(1, 1)
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())

	_, err := f.service.ApplyDecision(context.Background(), "exp-1", "mgr-1", entity.ApprovalStatus("escalate"), "")
	assert.ErrorIs(t, err, workflow.ErrInvalidDecision)
}

func TestApplyDecision_ConcurrentModification(t *testing.T) {
	expense := pendingExpense(1, 4)
	f := newDecisionFixture(expense, twoStepRule(), defaultApprovers())
	f.expenseRepo.updateVersionedFunc = func(context.Context, *entity.Expense, int64) error {
		return workflow.ErrConcurrentModification
	}

	_, err := f.service.ApplyDecision(context.Background(), "exp-1", "mgr-1", entity.ApprovalStatusApproved, "")
	assert.ErrorIs(t, err, workflow.ErrConcurrentModification)
	assert.Empty(t, f.sink.published(), "a losing decision must not emit events")
}

func TestApplyDecision_NoApplicableRule(t *testing.T) {
	// The only rule's first step requires a high amount the expense does not
	// reach; the decision has no governing rule to run under.
	rule := &entity.ApprovalRule{
		ID:        "rule-1",
		CompanyID: "co-1",
		Name:      "big spend only",
		Steps: []*entity.ApprovalStep{
			{ID: "s1", ApproverRole: entity.RoleManager,
				Condition: &entity.StepCondition{Type: entity.ConditionAmount, Threshold: 10000}},
		},
	}
	rule.Normalize()
	expense := pendingExpense(1, 1)
	f := newDecisionFixture(expense, rule, defaultApprovers())

	_, err := f.service.ApplyDecision(context.Background(), "exp-1", "mgr-1", entity.ApprovalStatusApproved, "")
	assert.ErrorIs(t, err, workflow.ErrNoApplicableRule)
}
