package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jding/expense-approval/internal/application/port"
	"github.com/jding/expense-approval/internal/domain/entity"
)

// UserService manages the company org directory backing approver resolution
type UserService interface {
	CreateUser(ctx context.Context, companyID, email, name string, role entity.UserRole, managerID string) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	ListUsers(ctx context.Context, companyID string) ([]*entity.User, error)
}

type userServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, logger Logger) UserService {
	return &userServiceImpl{userRepo: userRepo, logger: logger}
}

// CreateUser adds a user to the directory
func (s *userServiceImpl) CreateUser(ctx context.Context, companyID, email, name string, role entity.UserRole, managerID string) (*entity.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	user := &entity.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		CompanyID: companyID,
		ManagerID: managerID,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", "error", err, "email", email)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "role", role, "company_id", companyID)
	return user, nil
}

// GetUser retrieves a user by ID
func (s *userServiceImpl) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns a company's directory
func (s *userServiceImpl) ListUsers(ctx context.Context, companyID string) ([]*entity.User, error) {
	return s.userRepo.ListByCompany(ctx, companyID)
}
