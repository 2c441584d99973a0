package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
)

// RuleRepository implements port.RuleRepository on SQLite. Rules are listed
// in insertion order (the position column), which the rule selector treats
// as priority order.
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) port.RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a rule and its steps at the end of the company's rule list
func (r *RuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	ex := getExecutor(ctx, r.db)

	query := `
		INSERT INTO approval_rules (id, company_id, name, position, created_at)
		VALUES (?, ?, ?, (SELECT COUNT(*) FROM approval_rules WHERE company_id = ?), ?)
	`
	if _, err := ex.ExecContext(ctx, query,
		rule.ID, rule.CompanyID, rule.Name, rule.CompanyID, rule.CreatedAt,
	); err != nil {
		r.logger.Error("Failed to create rule", zap.String("name", rule.Name), zap.Error(err))
		return fmt.Errorf("create rule: %w", err)
	}

	stepQuery := `
		INSERT INTO approval_rule_steps (id, rule_id, level, approver_role, condition_type, condition_value, auto_approve)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, step := range rule.Steps {
		condType, condValue := encodeCondition(step.Condition)
		if _, err := ex.ExecContext(ctx, stepQuery,
			step.ID,
			rule.ID,
			step.Level,
			step.ApproverRole.String(),
			condType,
			condValue,
			step.AutoApprove,
		); err != nil {
			r.logger.Error("Failed to create rule step",
				zap.String("rule_id", rule.ID), zap.Int("level", step.Level), zap.Error(err))
			return fmt.Errorf("create rule step %d: %w", step.Level, err)
		}
	}

	return nil
}

// GetByID retrieves a rule with its steps, or nil if it does not exist
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalRule, error) {
	query := `SELECT id, company_id, name, created_at FROM approval_rules WHERE id = ?`

	var rule entity.ApprovalRule
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&rule.ID, &rule.CompanyID, &rule.Name, &rule.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get rule", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get rule: %w", err)
	}

	if err := r.loadSteps(ctx, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListByCompany returns a company's rules in priority order, steps included
func (r *RuleRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT id, company_id, name, created_at
		FROM approval_rules
		WHERE company_id = ?
		ORDER BY position ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list rules", zap.String("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.ApprovalRule
	for rows.Next() {
		var rule entity.ApprovalRule
		if err := rows.Scan(&rule.ID, &rule.CompanyID, &rule.Name, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if err := r.loadSteps(ctx, rule); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func (r *RuleRepository) loadSteps(ctx context.Context, rule *entity.ApprovalRule) error {
	query := `
		SELECT id, level, approver_role, condition_type, condition_value, auto_approve
		FROM approval_rule_steps
		WHERE rule_id = ?
		ORDER BY level ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, rule.ID)
	if err != nil {
		return fmt.Errorf("list rule steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step entity.ApprovalStep
		var role string
		var condType, condValue sql.NullString

		if err := rows.Scan(&step.ID, &step.Level, &role, &condType, &condValue, &step.AutoApprove); err != nil {
			return fmt.Errorf("scan rule step: %w", err)
		}

		step.ApproverRole = entity.UserRole(role)
		if condType.Valid {
			cond, err := decodeCondition(condType.String, condValue.String)
			if err != nil {
				return fmt.Errorf("rule %s step %d: %w", rule.ID, step.Level, err)
			}
			step.Condition = cond
		}
		rule.Steps = append(rule.Steps, &step)
	}

	return rows.Err()
}

// encodeCondition flattens a condition to its stored columns; numeric
// thresholds are stored as their decimal string form
func encodeCondition(cond *entity.StepCondition) (sql.NullString, sql.NullString) {
	if cond == nil {
		return sql.NullString{}, sql.NullString{}
	}
	value := cond.Category
	if cond.Type != entity.ConditionCategory {
		value = strconv.FormatFloat(cond.Threshold, 'f', -1, 64)
	}
	return sql.NullString{String: string(cond.Type), Valid: true},
		sql.NullString{String: value, Valid: true}
}

func decodeCondition(condType, condValue string) (*entity.StepCondition, error) {
	cond := &entity.StepCondition{Type: entity.ConditionType(condType)}
	if cond.Type == entity.ConditionCategory {
		cond.Category = condValue
		return cond, nil
	}
	threshold, err := strconv.ParseFloat(condValue, 64)
	if err != nil {
		return nil, fmt.Errorf("decode %s condition value %q: %w", condType, condValue, err)
	}
	cond.Threshold = threshold
	return cond, nil
}

// Verify interface compliance
var _ port.RuleRepository = (*RuleRepository)(nil)
