package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/domain/event"
	"github.com/jding/expense-approval/internal/domain/workflow"
)

// DecisionService is the external-facing entry point for human approval
// decisions. It validates the acting user's authority, applies the decision
// through the workflow machine, and persists the result under an optimistic
// version check so racing decisions on the same expense cannot both commit.
type DecisionService interface {
	ApplyDecision(ctx context.Context, expenseID, actingUserID string, decision entity.ApprovalStatus, comment string) (*entity.Expense, error)
}

type decisionServiceImpl struct {
	expenseRepo  port.ExpenseRepository
	approvalRepo port.ApprovalRepository
	ruleRepo     port.RuleRepository
	userRepo     port.UserRepository
	txManager    port.TransactionManager
	sink         port.NotificationSink
	logger       Logger
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	expenseRepo port.ExpenseRepository,
	approvalRepo port.ApprovalRepository,
	ruleRepo port.RuleRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	sink port.NotificationSink,
	logger Logger,
) DecisionService {
	return &decisionServiceImpl{
		expenseRepo:  expenseRepo,
		approvalRepo: approvalRepo,
		ruleRepo:     ruleRepo,
		userRepo:     userRepo,
		txManager:    txManager,
		sink:         sink,
		logger:       logger,
	}
}

// ApplyDecision applies one human decision to the expense's current step.
// Preconditions are checked in order: the expense must exist and be pending,
// then the acting user must be among the current step's eligible approvers.
// The write is conditional on the version the expense was read at; a losing
// concurrent decision returns workflow.ErrConcurrentModification and is never
// retried here — the caller re-reads and retries or surfaces the conflict.
func (s *decisionServiceImpl) ApplyDecision(ctx context.Context, expenseID, actingUserID string, decision entity.ApprovalStatus, comment string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("load expense: %w", err)
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense %s not found", workflow.ErrNotPending, expenseID)
	}
	if !expense.IsPending() {
		return nil, fmt.Errorf("%w: expense %s is %s", workflow.ErrNotPending, expenseID, expense.Status)
	}
	readVersion := expense.Version

	approvals, err := s.approvalRepo.GetByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("load approvals: %w", err)
	}
	expense.Approvals = approvals

	rules, err := s.ruleRepo.ListByCompany(ctx, expense.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	rule, err := workflow.SelectRule(rules, expense)
	if err != nil {
		return nil, err
	}
	machine := workflow.NewMachine(rule)

	step := machine.CurrentStep(expense)
	if step == nil {
		return nil, fmt.Errorf("%w: expense %s has no active step", workflow.ErrNotPending, expenseID)
	}

	candidates, err := workflow.ResolveApprovers(ctx, step, expense, s.userRepo)
	if err != nil {
		return nil, err
	}
	if !containsUser(candidates, actingUserID) {
		return nil, fmt.Errorf("%w: user %s cannot decide level %d (%s)",
			workflow.ErrUnauthorizedApprover, actingUserID, step.Level, step.ApproverRole)
	}

	priorRecords := len(expense.Approvals)
	if err := machine.ApplyHumanDecision(expense, actingUserID, decision, comment, time.Now()); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.UpdateVersioned(txCtx, expense, readVersion); err != nil {
			return err
		}
		for _, approval := range expense.Approvals[priorRecords:] {
			if err := s.approvalRepo.Create(txCtx, approval); err != nil {
				return fmt.Errorf("append approval record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, workflow.ErrConcurrentModification) {
			s.logger.Info("Concurrent decision lost version check",
				"expense_id", expenseID, "acting_user_id", actingUserID)
		} else {
			s.logger.Error("Failed to persist decision", "error", err, "expense_id", expenseID)
		}
		return nil, err
	}

	s.emit(ctx, expense, machine)

	s.logger.Info("Decision applied",
		"expense_id", expenseID,
		"acting_user_id", actingUserID,
		"decision", decision,
		"status", expense.Status,
		"level", expense.ApprovalLevel)
	return expense, nil
}

func (s *decisionServiceImpl) emit(ctx context.Context, expense *entity.Expense, machine *workflow.Machine) {
	if expense.Status.IsTerminal() {
		s.sink.Publish(ctx, event.NewTerminal(expense))
		return
	}
	if step := machine.CurrentStep(expense); step != nil {
		s.sink.Publish(ctx, event.NewApprovalRequired(expense, step.Level, step.ApproverRole))
	}
}

func containsUser(users []*entity.User, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
