package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
)

// RuleService manages a company's approval rule configuration. Malformed
// rules are rejected at save time with entity.ErrInvalidRule; the engine
// never sees an invalid rule.
type RuleService interface {
	CreateRule(ctx context.Context, companyID, name string, steps []*entity.ApprovalStep) (*entity.ApprovalRule, error)
	GetRule(ctx context.Context, id string) (*entity.ApprovalRule, error)
	ListRules(ctx context.Context, companyID string) ([]*entity.ApprovalRule, error)
}

type ruleServiceImpl struct {
	ruleRepo port.RuleRepository
	logger   Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(ruleRepo port.RuleRepository, logger Logger) RuleService {
	return &ruleServiceImpl{ruleRepo: ruleRepo, logger: logger}
}

// CreateRule validates and stores a new rule at the end of the company's
// rule list (insertion order is the selector's priority order)
func (s *ruleServiceImpl) CreateRule(ctx context.Context, companyID, name string, steps []*entity.ApprovalStep) (*entity.ApprovalRule, error) {
	rule := &entity.ApprovalRule{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Name:      name,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
	for _, step := range rule.Steps {
		if step.ID == "" {
			step.ID = uuid.NewString()
		}
	}
	rule.Normalize()

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		s.logger.Error("Failed to create rule", "error", err, "company_id", companyID, "name", name)
		return nil, fmt.Errorf("create rule: %w", err)
	}

	s.logger.Info("Approval rule created",
		"rule_id", rule.ID, "company_id", companyID, "name", name, "steps", len(rule.Steps))
	return rule, nil
}

// GetRule retrieves a rule by ID
func (s *ruleServiceImpl) GetRule(ctx context.Context, id string) (*entity.ApprovalRule, error) {
	return s.ruleRepo.GetByID(ctx, id)
}

// ListRules returns a company's rules in priority order
func (s *ruleServiceImpl) ListRules(ctx context.Context, companyID string) ([]*entity.ApprovalRule, error) {
	return s.ruleRepo.ListByCompany(ctx, companyID)
}
