package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/domain/workflow"
)

const expenseColumns = `
	id, company_id, user_id, amount, currency, converted_amount,
	company_currency, category, description, expense_date, receipt_url,
	status, approval_level, version, created_at, updated_at
`

// ExpenseRepository implements port.ExpenseRepository on SQLite
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			id, company_id, user_id, amount, currency, converted_amount,
			company_currency, category, description, expense_date, receipt_url,
			status, approval_level, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		expense.ID,
		expense.CompanyID,
		expense.UserID,
		expense.Amount,
		expense.Currency,
		expense.ConvertedAmount,
		expense.CompanyCurrency,
		expense.Category,
		expense.Description,
		expense.Date,
		expense.ReceiptURL,
		expense.Status.String(),
		expense.ApprovalLevel,
		expense.Version,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense by ID, or nil if it does not exist
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	expense, err := scanExpense(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get expense: %w", err)
	}

	return expense, nil
}

// UpdateVersioned writes the expense's mutable fields under an optimistic
// version check: the row is only updated if its stored version still equals
// the version the caller read. A lost race returns
// workflow.ErrConcurrentModification; the stored version is bumped on
// success.
func (r *ExpenseRepository) UpdateVersioned(ctx context.Context, expense *entity.Expense, readVersion int64) error {
	query := `
		UPDATE expenses
		SET status = ?, approval_level = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		expense.Status.String(),
		expense.ApprovalLevel,
		expense.UpdatedAt,
		expense.ID,
		readVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.String("id", expense.ID), zap.Error(err))
		return fmt.Errorf("update expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s version %d", workflow.ErrConcurrentModification, expense.ID, readVersion)
	}

	expense.Version = readVersion + 1
	return nil
}

// ListByCompany returns a company's expenses, newest first
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE company_id = ? ORDER BY created_at DESC`
	return r.list(ctx, query, companyID)
}

// ListByUser returns the expenses submitted by a user, newest first
func (r *ExpenseRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListPendingByCompany returns a company's pending expenses, oldest first so
// approvers work the queue in submission order
func (r *ExpenseRepository) ListPendingByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE company_id = ? AND status = ? ORDER BY created_at ASC`
	return r.list(ctx, query, companyID, entity.ExpenseStatusPending.String())
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var expense entity.Expense
	var status string
	var receiptURL sql.NullString

	err := row.Scan(
		&expense.ID,
		&expense.CompanyID,
		&expense.UserID,
		&expense.Amount,
		&expense.Currency,
		&expense.ConvertedAmount,
		&expense.CompanyCurrency,
		&expense.Category,
		&expense.Description,
		&expense.Date,
		&receiptURL,
		&status,
		&expense.ApprovalLevel,
		&expense.Version,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.Status = entity.ExpenseStatus(status)
	if receiptURL.Valid {
		expense.ReceiptURL = receiptURL.String
	}
	return &expense, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
