package dto

import "time"

// LoginRequest payload. Username may be an email address in local mode.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is accepted when the refresh cookie is not available.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh. The refresh token travels
// in an HTTP-only cookie, never in the body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Username    string `json:"username,omitempty"`
	Provider    string `json:"provider"`
}

// MeResponse describes the verified caller.
type MeResponse struct {
	Subject     string    `json:"subject"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	Roles       []string  `json:"roles"`
	Groups      []string  `json:"groups,omitempty"`
	Permissions []string  `json:"permissions"`
	Provider    string    `json:"provider"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
