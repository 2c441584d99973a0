package port

import (
	"context"

	"github.com/jding/expense-approval/internal/domain/entity"
)

// ExpenseRepository defines persistence operations for Expense. Writes use
// optimistic versioning: UpdateVersioned must fail with
// workflow.ErrConcurrentModification when the stored version no longer
// matches the version the expense was read at.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id string) (*entity.Expense, error)
	UpdateVersioned(ctx context.Context, expense *entity.Expense, readVersion int64) error
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error)
	ListPendingByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error)
}

// ApprovalRepository defines persistence operations for the append-only
// approval audit trail
type ApprovalRepository interface {
	Create(ctx context.Context, approval *entity.Approval) error
	GetByExpenseID(ctx context.Context, expenseID string) ([]*entity.Approval, error)
}

// RuleRepository defines persistence operations for ApprovalRule. List order
// is insertion order, which the rule selector treats as priority order.
type RuleRepository interface {
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalRule, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.ApprovalRule, error)
}

// UserRepository defines persistence operations for the org directory
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetUsersByRoleAndCompany(ctx context.Context, role entity.UserRole, companyID string) ([]*entity.User, error)
	GetManagerOf(ctx context.Context, userID string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.User, error)
}

// CompanyRepository defines persistence operations for Company
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	// WithTransaction executes the given function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
