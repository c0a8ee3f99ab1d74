package auth

import (
	"time"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// Identity is the verified caller for the lifetime of one request.
type Identity struct {
	Subject   string
	Username  string
	Email     string
	Roles     []domain.Role
	Groups    []string
	Active    bool
	ExpiresAt time.Time
	TokenID   string
	Provider  string
	TokenUse  string
}

// HasRole reports whether the identity holds role.
func (i *Identity) HasRole(role domain.Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the most privileged role held, or "" when none.
func (i *Identity) PrimaryRole() domain.Role {
	for _, role := range AnyRole {
		if i.HasRole(role) {
			return role
		}
	}
	return ""
}
