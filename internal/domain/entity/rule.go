package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidRule is returned when an approval rule fails validation at save time
var ErrInvalidRule = errors.New("invalid approval rule")

// ConditionType is the closed set of step condition kinds
type ConditionType string

const (
	ConditionAmount     ConditionType = "amount"
	ConditionPercentage ConditionType = "percentage"
	ConditionCategory   ConditionType = "category"
)

// StepCondition gates whether a step applies to a given expense.
// Threshold carries the numeric value for amount/percentage conditions,
// Category the match value for category conditions.
type StepCondition struct {
	Type      ConditionType
	Threshold float64
	Category  string
}

// conditionJSON is the wire form: value is a number for amount/percentage
// conditions and a string for category conditions.
type conditionJSON struct {
	Type  ConditionType `json:"type"`
	Value interface{}   `json:"value"`
}

// MarshalJSON serializes the condition in its wire form
func (c StepCondition) MarshalJSON() ([]byte, error) {
	out := conditionJSON{Type: c.Type}
	if c.Type == ConditionCategory {
		out.Value = c.Category
	} else {
		out.Value = c.Threshold
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire form, accepting numeric values given as
// strings for amount/percentage conditions
func (c *StepCondition) UnmarshalJSON(data []byte) error {
	var raw conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Type = raw.Type
	switch raw.Type {
	case ConditionCategory:
		s, ok := raw.Value.(string)
		if !ok {
			return fmt.Errorf("%w: category condition value must be a string", ErrInvalidRule)
		}
		c.Category = s
	case ConditionAmount, ConditionPercentage:
		switch v := raw.Value.(type) {
		case float64:
			c.Threshold = v
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s condition value %q is not numeric", ErrInvalidRule, raw.Type, v)
			}
			c.Threshold = f
		default:
			return fmt.Errorf("%w: %s condition value must be numeric", ErrInvalidRule, raw.Type)
		}
	default:
		return fmt.Errorf("%w: unknown condition type %q", ErrInvalidRule, raw.Type)
	}

	return nil
}

// Validate checks the condition independently of any expense
func (c *StepCondition) Validate() error {
	switch c.Type {
	case ConditionAmount:
		if c.Threshold < 0 {
			return fmt.Errorf("%w: amount threshold must not be negative", ErrInvalidRule)
		}
	case ConditionPercentage:
		if c.Threshold < 0 || c.Threshold > 100 {
			return fmt.Errorf("%w: percentage value %v outside [0,100]", ErrInvalidRule, c.Threshold)
		}
	case ConditionCategory:
		if c.Category == "" {
			return fmt.Errorf("%w: category condition requires a category", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown condition type %q", ErrInvalidRule, c.Type)
	}
	return nil
}

// ApprovalStep is one position in an ordered approval rule. Level is 1-based
// and fixed by position within the rule.
type ApprovalStep struct {
	ID           string         `json:"id"`
	Level        int            `json:"level"`
	ApproverRole UserRole       `json:"approver_role"`
	Condition    *StepCondition `json:"condition,omitempty"`
	AutoApprove  bool           `json:"auto_approve,omitempty"`
}

// ApprovalRule is a company-scoped, named, ordered sequence of approval steps.
// List order within a company is priority order for rule selection.
type ApprovalRule struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	Name      string          `json:"name"`
	Steps     []*ApprovalStep `json:"steps"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate enforces the rule invariants before the rule is persisted
func (r *ApprovalRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule name is required", ErrInvalidRule)
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: rule %q has no steps", ErrInvalidRule, r.Name)
	}
	for i, step := range r.Steps {
		if !step.ApproverRole.IsValid() {
			return fmt.Errorf("%w: step %d has unknown approver role %q", ErrInvalidRule, i+1, step.ApproverRole)
		}
		if step.Condition != nil {
			if err := step.Condition.Validate(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Normalize assigns levels by position; callers may submit steps without
// explicit levels
func (r *ApprovalRule) Normalize() {
	for i, step := range r.Steps {
		step.Level = i + 1
	}
}

// StepAt returns the step for a 1-based level, or nil if out of range
func (r *ApprovalRule) StepAt(level int) *ApprovalStep {
	if level < 1 || level > len(r.Steps) {
		return nil
	}
	return r.Steps[level-1]
}
