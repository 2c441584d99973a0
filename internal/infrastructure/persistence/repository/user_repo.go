package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
)

// UserRepository implements port.UserRepository on SQLite. It doubles as the
// org directory the workflow engine resolves approvers against.
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, name, role, company_id, manager_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var managerID sql.NullString
	if user.ManagerID != "" {
		managerID = sql.NullString{String: user.ManagerID, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role.String(),
		user.CompanyID,
		managerID,
		user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID, or nil if not found
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, email, name, role, company_id, manager_id, created_at FROM users WHERE id = ?`

	user, err := r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUsersByRoleAndCompany returns all holders of a role within a company
func (r *UserRepository) GetUsersByRoleAndCompany(ctx context.Context, role entity.UserRole, companyID string) ([]*entity.User, error) {
	query := `
		SELECT id, email, name, role, company_id, manager_id, created_at
		FROM users
		WHERE role = ? AND company_id = ?
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, role.String(), companyID)
}

// GetManagerOf returns a user's manager, or nil if they have none
func (r *UserRepository) GetManagerOf(ctx context.Context, userID string) (*entity.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}
	if user.ManagerID == "" {
		return nil, nil
	}
	return r.GetByID(ctx, user.ManagerID)
}

// ListByCompany returns a company's directory
func (r *UserRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.User, error) {
	query := `
		SELECT id, email, name, role, company_id, manager_id, created_at
		FROM users
		WHERE company_id = ?
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, companyID)
}

func (r *UserRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) scanOne(row rowScanner) (*entity.User, error) {
	var user entity.User
	var role string
	var managerID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.CompanyID,
		&managerID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = entity.UserRole(role)
	if managerID.Valid {
		user.ManagerID = managerID.String
	}
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
