package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jding/expense-approval/internal/domain/entity"
)

func TestCreateRule_NormalizesAndStores(t *testing.T) {
	var stored *entity.ApprovalRule
	repo := &mockRuleRepo{
		createFunc: func(_ context.Context, rule *entity.ApprovalRule) error {
			stored = rule
			return nil
		},
	}
	svc := NewRuleService(repo, nopLogger{})

	rule, err := svc.CreateRule(context.Background(), "co-1", "standard", []*entity.ApprovalStep{
		{ApproverRole: entity.RoleManager},
		{ApproverRole: entity.RoleAdmin,
			Condition: &entity.StepCondition{Type: entity.ConditionAmount, Threshold: 500}},
	})
	require.NoError(t, err)
	require.Same(t, rule, stored)

	assert.NotEmpty(t, rule.ID)
	require.Len(t, rule.Steps, 2)
	assert.Equal(t, 1, rule.Steps[0].Level)
	assert.Equal(t, 2, rule.Steps[1].Level)
	assert.NotEmpty(t, rule.Steps[0].ID)
	assert.NotEmpty(t, rule.Steps[1].ID)
}

func TestCreateRule_Invalid(t *testing.T) {
	repo := &mockRuleRepo{
		createFunc: func(context.Context, *entity.ApprovalRule) error {
			t.Error("invalid rule must not reach the repository")
			return nil
		},
	}
	svc := NewRuleService(repo, nopLogger{})

	tests := []struct {
		name  string
		steps []*entity.ApprovalStep
	}{
		{"no steps", nil},
		{"unknown role", []*entity.ApprovalStep{{ApproverRole: entity.UserRole("intern")}}},
		{"percentage above 100", []*entity.ApprovalStep{
			{ApproverRole: entity.RoleManager,
				Condition: &entity.StepCondition{Type: entity.ConditionPercentage, Threshold: 150}},
		}},
		{"category condition without category", []*entity.ApprovalStep{
			{ApproverRole: entity.RoleManager,
				Condition: &entity.StepCondition{Type: entity.ConditionCategory}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRule(context.Background(), "co-1", tt.name, tt.steps)
			assert.ErrorIs(t, err, entity.ErrInvalidRule)
		})
	}
}
