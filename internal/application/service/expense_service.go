package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/domain/event"
	"github.com/jding/expense-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SubmitExpenseInput carries the fields of a new expense claim. The converted
// amount is computed upstream (currency conversion is not this service's job)
// and consumed as-is.
type SubmitExpenseInput struct {
	UserID          string
	Amount          float64
	Currency        string
	ConvertedAmount float64
	Category        string
	Description     string
	Date            time.Time
	ReceiptURL      string
}

// ExpenseService manages expense submission and queries
type ExpenseService interface {
	Submit(ctx context.Context, input SubmitExpenseInput) (*entity.Expense, error)
	Get(ctx context.Context, id string) (*entity.Expense, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error)
	ListPendingForApprover(ctx context.Context, approverID string) ([]*entity.Expense, error)
}

type expenseServiceImpl struct {
	expenseRepo  port.ExpenseRepository
	approvalRepo port.ApprovalRepository
	ruleRepo     port.RuleRepository
	userRepo     port.UserRepository
	companyRepo  port.CompanyRepository
	txManager    port.TransactionManager
	sink         port.NotificationSink
	logger       Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	approvalRepo port.ApprovalRepository,
	ruleRepo port.RuleRepository,
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	txManager port.TransactionManager,
	sink port.NotificationSink,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo:  expenseRepo,
		approvalRepo: approvalRepo,
		ruleRepo:     ruleRepo,
		userRepo:     userRepo,
		companyRepo:  companyRepo,
		txManager:    txManager,
		sink:         sink,
		logger:       logger,
	}
}

// Submit stores a new expense in pending status at level 1 and runs the
// initial step-entry pass, so leading skipped or auto-approving steps resolve
// before anyone is asked to act. When no rule matches, the expense is held
// pending with no eligible approvers for manual admin review.
func (s *expenseServiceImpl) Submit(ctx context.Context, input SubmitExpenseInput) (*entity.Expense, error) {
	submitter, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load submitter: %w", err)
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter %s not found", input.UserID)
	}

	company, err := s.companyRepo.GetByID(ctx, submitter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}

	now := time.Now()
	expense := &entity.Expense{
		ID:              uuid.NewString(),
		CompanyID:       submitter.CompanyID,
		UserID:          submitter.ID,
		Amount:          input.Amount,
		Currency:        input.Currency,
		ConvertedAmount: input.ConvertedAmount,
		Category:        input.Category,
		Description:     input.Description,
		Date:            input.Date,
		ReceiptURL:      input.ReceiptURL,
		Status:          entity.ExpenseStatusPending,
		ApprovalLevel:   1,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if company != nil {
		expense.CompanyCurrency = company.Currency
	}

	rules, err := s.ruleRepo.ListByCompany(ctx, expense.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	var machine *workflow.Machine
	rule, err := workflow.SelectRule(rules, expense)
	switch {
	case err == nil:
		machine = workflow.NewMachine(rule)
		machine.Advance(expense, now)
	case errors.Is(err, workflow.ErrNoApplicableRule):
		// Held at level 1 until an admin configures a matching rule.
		s.logger.Info("No applicable rule, holding expense for admin review",
			"expense_id", expense.ID, "company_id", expense.CompanyID)
	default:
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		for _, approval := range expense.Approvals {
			if err := s.approvalRepo.Create(txCtx, approval); err != nil {
				return fmt.Errorf("create approval record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist submitted expense", "error", err, "expense_id", expense.ID)
		return nil, err
	}

	s.emitOutcome(ctx, expense, machine)

	s.logger.Info("Expense submitted",
		"expense_id", expense.ID,
		"user_id", expense.UserID,
		"status", expense.Status,
		"level", expense.ApprovalLevel)
	return expense, nil
}

// Get retrieves an expense with its full audit trail
func (s *expenseServiceImpl) Get(ctx context.Context, id string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil || expense == nil {
		return expense, err
	}
	return s.withApprovals(ctx, expense)
}

// ListByCompany returns all of a company's expenses
func (s *expenseServiceImpl) ListByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error) {
	expenses, err := s.expenseRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.attachApprovals(ctx, expenses)
}

// ListByUser returns the expenses submitted by a user
func (s *expenseServiceImpl) ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error) {
	expenses, err := s.expenseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachApprovals(ctx, expenses)
}

// ListPendingForApprover returns the pending expenses whose current step the
// given user is eligible to decide
func (s *expenseServiceImpl) ListPendingForApprover(ctx context.Context, approverID string) ([]*entity.Expense, error) {
	approver, err := s.userRepo.GetByID(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("load approver: %w", err)
	}
	if approver == nil {
		return nil, fmt.Errorf("approver %s not found", approverID)
	}

	pending, err := s.expenseRepo.ListPendingByCompany(ctx, approver.CompanyID)
	if err != nil {
		return nil, err
	}

	rules, err := s.ruleRepo.ListByCompany(ctx, approver.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	var eligible []*entity.Expense
	for _, expense := range pending {
		expense, err := s.withApprovals(ctx, expense)
		if err != nil {
			return nil, err
		}

		rule, err := workflow.SelectRule(rules, expense)
		if errors.Is(err, workflow.ErrNoApplicableRule) {
			// Held expenses surface only to admins.
			if approver.Role == entity.RoleAdmin {
				eligible = append(eligible, expense)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		step := workflow.NewMachine(rule).CurrentStep(expense)
		if step != nil && step.ApproverRole == approver.Role {
			eligible = append(eligible, expense)
		}
	}
	return eligible, nil
}

func (s *expenseServiceImpl) withApprovals(ctx context.Context, expense *entity.Expense) (*entity.Expense, error) {
	approvals, err := s.approvalRepo.GetByExpenseID(ctx, expense.ID)
	if err != nil {
		return nil, fmt.Errorf("load approvals: %w", err)
	}
	expense.Approvals = approvals
	return expense, nil
}

func (s *expenseServiceImpl) attachApprovals(ctx context.Context, expenses []*entity.Expense) ([]*entity.Expense, error) {
	for _, expense := range expenses {
		if _, err := s.withApprovals(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// emitOutcome publishes the event describing where the expense landed after
// an advance pass: terminal, or waiting on a step's approver role
func (s *expenseServiceImpl) emitOutcome(ctx context.Context, expense *entity.Expense, machine *workflow.Machine) {
	if expense.Status.IsTerminal() {
		s.sink.Publish(ctx, event.NewTerminal(expense))
		return
	}
	if machine == nil {
		return
	}
	if step := machine.CurrentStep(expense); step != nil {
		s.sink.Publish(ctx, event.NewApprovalRequired(expense, step.Level, step.ApproverRole))
	}
}
