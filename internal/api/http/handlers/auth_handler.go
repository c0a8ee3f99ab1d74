package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/api/dto"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/service"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

const refreshCookiePath = "/api/auth"

// RefreshCookie configures the HTTP-only cookie carrying the refresh token.
type RefreshCookie struct {
	Name   string
	Secure bool
}

// AuthHandler exposes login, refresh, logout and profile endpoints for
// whichever strategy the process was started with.
type AuthHandler struct {
	auth     service.Authenticator
	local    *service.LocalAuthService
	resolver *auth.Resolver
	cookie   RefreshCookie
}

// NewAuthHandler constructs handler. local is nil in provider mode, which
// disables the password change endpoint.
func NewAuthHandler(authenticator service.Authenticator, local *service.LocalAuthService, resolver *auth.Resolver, cookie RefreshCookie) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "refresh_token"
	}
	return &AuthHandler{auth: authenticator, local: local, resolver: resolver, cookie: cookie}
}

// SupportsPasswordChange reports whether the change-password route applies.
func (h *AuthHandler) SupportsPasswordChange() bool {
	return h.local != nil
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	h.setRefreshCookie(c, session.RefreshToken)
	return data(c, http.StatusOK, tokenResponse(session))
}

// Refresh handles POST /api/auth/refresh. The cookie wins over the body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(h.cookie.Name)
	if token == "" && len(c.Body()) > 0 {
		var req dto.RefreshRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		token = req.RefreshToken
	}
	if token == "" {
		return auth.ErrInvalidRefreshToken.WithMessage("refresh token is required")
	}

	session, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			h.clearRefreshCookie(c)
		}
		return err
	}
	h.setRefreshCookie(c, session.RefreshToken)
	return data(c, http.StatusOK, tokenResponse(session))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	token, _ := auth.ExtractBearer(c.Get(fiber.HeaderAuthorization))
	if err := h.auth.Logout(c.UserContext(), identity, token); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return data(c, http.StatusOK, fiber.Map{"status": "logged_out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	roles := make([]string, 0, len(identity.Roles))
	for _, role := range identity.Roles {
		roles = append(roles, string(role))
	}
	return data(c, http.StatusOK, dto.MeResponse{
		Subject:     identity.Subject,
		Username:    identity.Username,
		Email:       identity.Email,
		Role:        string(identity.PrimaryRole()),
		Roles:       roles,
		Groups:      identity.Groups,
		Permissions: h.resolver.PermissionList(identity.Roles...),
		Provider:    identity.Provider,
		ExpiresAt:   identity.ExpiresAt,
	})
}

// ChangePassword handles POST /api/auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	if h.local == nil {
		return apperrors.NewNotFound("route", nil)
	}
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}
	if err := h.local.ChangePassword(c.UserContext(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"status": "password_changed"})
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	if token == "" {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     refreshCookiePath,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     refreshCookiePath,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Expires:  time.Unix(0, 0),
	})
}

func tokenResponse(session *service.Session) dto.TokenResponse {
	provider := session.Provider
	if provider == "" {
		provider = domain.ProviderLocal
	}
	return dto.TokenResponse{
		AccessToken: session.AccessToken,
		IDToken:     session.IDToken,
		TokenType:   session.TokenType,
		ExpiresIn:   int(session.ExpiresIn / time.Second),
		Username:    session.Username,
		Provider:    provider,
	}
}
