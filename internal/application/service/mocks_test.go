package service

import (
	"context"
	"sync"

	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/domain/event"
)

type mockExpenseRepo struct {
	createFunc          func(ctx context.Context, expense *entity.Expense) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.Expense, error)
	updateVersionedFunc func(ctx context.Context, expense *entity.Expense, readVersion int64) error
	listByCompanyFunc   func(ctx context.Context, companyID string) ([]*entity.Expense, error)
	listByUserFunc      func(ctx context.Context, userID string) ([]*entity.Expense, error)
	listPendingFunc     func(ctx context.Context, companyID string) ([]*entity.Expense, error)
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) UpdateVersioned(ctx context.Context, expense *entity.Expense, readVersion int64) error {
	if m.updateVersionedFunc != nil {
		return m.updateVersionedFunc(ctx, expense, readVersion)
	}
	return nil
}

func (m *mockExpenseRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockExpenseRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockExpenseRepo) ListPendingByCompany(ctx context.Context, companyID string) ([]*entity.Expense, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx, companyID)
	}
	return nil, nil
}

type mockApprovalRepo struct {
	createFunc  func(ctx context.Context, approval *entity.Approval) error
	getByExpFun func(ctx context.Context, expenseID string) ([]*entity.Approval, error)
	created     []*entity.Approval
}

func (m *mockApprovalRepo) Create(ctx context.Context, approval *entity.Approval) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, approval)
	}
	m.created = append(m.created, approval)
	return nil
}

func (m *mockApprovalRepo) GetByExpenseID(ctx context.Context, expenseID string) ([]*entity.Approval, error) {
	if m.getByExpFun != nil {
		return m.getByExpFun(ctx, expenseID)
	}
	return nil, nil
}

type mockRuleRepo struct {
	createFunc        func(ctx context.Context, rule *entity.ApprovalRule) error
	getByIDFunc       func(ctx context.Context, id string) (*entity.ApprovalRule, error)
	listByCompanyFunc func(ctx context.Context, companyID string) ([]*entity.ApprovalRule, error)
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rule)
	}
	return nil
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalRule, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRuleRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.ApprovalRule, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

type mockUserRepo struct {
	createFunc        func(ctx context.Context, user *entity.User) error
	getByIDFunc       func(ctx context.Context, id string) (*entity.User, error)
	byRoleFunc        func(ctx context.Context, role entity.UserRole, companyID string) ([]*entity.User, error)
	managerOfFunc     func(ctx context.Context, userID string) (*entity.User, error)
	listByCompanyFunc func(ctx context.Context, companyID string) ([]*entity.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetUsersByRoleAndCompany(ctx context.Context, role entity.UserRole, companyID string) ([]*entity.User, error) {
	if m.byRoleFunc != nil {
		return m.byRoleFunc(ctx, role, companyID)
	}
	return nil, nil
}

func (m *mockUserRepo) GetManagerOf(ctx context.Context, userID string) (*entity.User, error) {
	if m.managerOfFunc != nil {
		return m.managerOfFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.User, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

type mockCompanyRepo struct {
	createFunc  func(ctx context.Context, company *entity.Company) error
	getByIDFunc func(ctx context.Context, id string) (*entity.Company, error)
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, company)
	}
	return nil
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

// mockTxManager runs the function inline with the same context
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockSink records published events in order
type mockSink struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockSink) Publish(_ context.Context, e *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockSink) published() []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*event.Event, len(m.events))
	copy(out, m.events)
	return out
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
