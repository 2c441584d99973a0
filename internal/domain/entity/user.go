package entity

import "time"

// UserRole identifies the approval authority a user carries
type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
	RoleAdmin    UserRole = "admin"
)

var validRoles = map[UserRole]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleAdmin:    true,
}

// IsValid returns true if the role is one of the known roles
func (r UserRole) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r UserRole) String() string {
	return string(r)
}

// User represents a member of a company's org directory
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	CompanyID string    `json:"company_id"`
	ManagerID string    `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Company owns users, expenses and approval rules
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}
