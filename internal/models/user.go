package models

import "strings"

// Role is one of the fixed access-control roles
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Roles lists every role in display order
var Roles = []Role{RoleEmployee, RoleManager, RoleAdmin}

// ParseRole normalizes a role name. Unknown names return false.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleEmployee:
		return RoleEmployee, true
	case RoleManager:
		return RoleManager, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// In reports whether r is a member of roles
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// User is a server-owned account record
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	TeamName     string    `json:"team_name,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
	DOB          string    `json:"dob,omitempty"`
	MobileNumber string    `json:"mobile_number,omitempty"`
	IsActive     bool      `json:"is_active"`
}

// DisplayName returns the best human label for the user
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// IsManagerOrAdmin is true for roles allowed to create tasks
func (u User) IsManagerOrAdmin() bool {
	return u.Role.In(RoleManager, RoleAdmin)
}

// PasswordResetRequest is a pending admin-handled password reset
type PasswordResetRequest struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt Timestamp `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}
