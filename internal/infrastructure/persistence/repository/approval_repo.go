package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
)

// ApprovalRepository implements port.ApprovalRepository on SQLite. The
// approvals table is append-only; there are no update or delete operations.
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an approval record to an expense's audit trail
func (r *ApprovalRepository) Create(ctx context.Context, approval *entity.Approval) error {
	query := `
		INSERT INTO approvals (id, expense_id, level, approver_id, status, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var approverID sql.NullString
	if approval.ApproverID != "" {
		approverID = sql.NullString{String: approval.ApproverID, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		approval.ID,
		approval.ExpenseID,
		approval.Level,
		approverID,
		string(approval.Status),
		approval.Comment,
		approval.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval record",
			zap.String("expense_id", approval.ExpenseID), zap.Error(err))
		return fmt.Errorf("create approval: %w", err)
	}

	return nil
}

// GetByExpenseID returns an expense's audit trail in step order
func (r *ApprovalRepository) GetByExpenseID(ctx context.Context, expenseID string) ([]*entity.Approval, error) {
	query := `
		SELECT id, expense_id, level, approver_id, status, comment, created_at
		FROM approvals
		WHERE expense_id = ?
		ORDER BY level ASC, created_at ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approvals", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		var approval entity.Approval
		var approverID sql.NullString
		var status string

		err := rows.Scan(
			&approval.ID,
			&approval.ExpenseID,
			&approval.Level,
			&approverID,
			&status,
			&approval.Comment,
			&approval.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}

		approval.Status = entity.ApprovalStatus(status)
		if approverID.Valid {
			approval.ApproverID = approverID.String
		}
		approvals = append(approvals, &approval)
	}

	return approvals, rows.Err()
}

// Verify interface compliance
var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
