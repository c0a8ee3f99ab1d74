package dto

import "time"

// CreateProviderUserRequest payload for POST /api/admin/cognito/users.
type CreateProviderUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Group    string `json:"group"`
}

// SetPasswordRequest payload for POST /api/admin/cognito/users/:username/password.
type SetPasswordRequest struct {
	Password  string `json:"password"`
	Permanent bool   `json:"permanent"`
}

type ProviderUserResponse struct {
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Enabled   bool       `json:"enabled"`
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type ProviderUserPage struct {
	Users     []ProviderUserResponse `json:"users"`
	NextToken string                 `json:"next_token,omitempty"`
}

type GroupsResponse struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}
