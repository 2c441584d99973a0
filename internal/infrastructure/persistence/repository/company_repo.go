package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
)

// CompanyRepository implements port.CompanyRepository on SQLite
type CompanyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sql.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new company
func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (id, name, currency, country, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.Currency,
		company.Country,
		company.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create company", zap.String("name", company.Name), zap.Error(err))
		return fmt.Errorf("create company: %w", err)
	}

	return nil
}

// GetByID retrieves a company by ID, or nil if not found
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `SELECT id, name, currency, country, created_at FROM companies WHERE id = ?`

	var company entity.Company
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.Currency,
		&company.Country,
		&company.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get company: %w", err)
	}

	return &company, nil
}

// Verify interface compliance
var _ port.CompanyRepository = (*CompanyRepository)(nil)
