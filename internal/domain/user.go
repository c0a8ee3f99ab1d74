package domain

import (
	"strings"
	"time"
)

// Role is the coarse authorization level of an administrator.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// ParseRole normalizes a role or group name. Unknown names return false.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleManager, RoleViewer:
		return role, true
	default:
		return "", false
	}
}

// Valid reports whether the role is one the platform knows about.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User is the locally stored credential record of an administrator.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
	CreatedByID  *string
}
