package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/api/dto"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/identity"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// ProviderAdminHandler exposes user pool administration to admins.
type ProviderAdminHandler struct {
	provider identity.Provider
}

// NewProviderAdminHandler constructs handler.
func NewProviderAdminHandler(provider identity.Provider) *ProviderAdminHandler {
	return &ProviderAdminHandler{provider: provider}
}

// ListUsers handles GET /api/admin/cognito/users?limit=&next_token=.
func (h *ProviderAdminHandler) ListUsers(c *fiber.Ctx) error {
	limit := parseIntQuery(c, "limit", 60)
	page, err := h.provider.ListUsers(c.UserContext(), int32(limit), c.Query("next_token"))
	if err != nil {
		return err
	}
	users := make([]dto.ProviderUserResponse, 0, len(page.Users))
	for i := range page.Users {
		users = append(users, providerUserResponse(&page.Users[i]))
	}
	return data(c, http.StatusOK, dto.ProviderUserPage{Users: users, NextToken: page.NextToken})
}

// CreateUser handles POST /api/admin/cognito/users.
func (h *ProviderAdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateProviderUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("username and email required", nil)
	}
	user, err := h.provider.CreateUser(c.UserContext(), identity.NewUser{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Group:    strings.TrimSpace(req.Group),
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, providerUserResponse(user))
}

// DeleteUser handles DELETE /api/admin/cognito/users/:username.
func (h *ProviderAdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.provider.DeleteUser(c.UserContext(), c.Params("username")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// EnableUser handles POST /api/admin/cognito/users/:username/enable.
func (h *ProviderAdminHandler) EnableUser(c *fiber.Ctx) error {
	if err := h.provider.EnableUser(c.UserContext(), c.Params("username")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"username": c.Params("username"), "enabled": true})
}

// DisableUser handles POST /api/admin/cognito/users/:username/disable.
func (h *ProviderAdminHandler) DisableUser(c *fiber.Ctx) error {
	if err := h.provider.DisableUser(c.UserContext(), c.Params("username")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"username": c.Params("username"), "enabled": false})
}

// SetPassword handles POST /api/admin/cognito/users/:username/password.
func (h *ProviderAdminHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.SetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password required", nil)
	}
	if err := h.provider.ResetPassword(c.UserContext(), c.Params("username"), req.Password, req.Permanent); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"status": "password_set"})
}

// ListGroups handles GET /api/admin/cognito/users/:username/groups.
func (h *ProviderAdminHandler) ListGroups(c *fiber.Ctx) error {
	username := c.Params("username")
	groups, err := h.provider.ListGroupsFor(c.UserContext(), username)
	if err != nil {
		return err
	}
	if groups == nil {
		groups = []string{}
	}
	return data(c, http.StatusOK, dto.GroupsResponse{Username: username, Groups: groups})
}

// AddToGroup handles POST /api/admin/cognito/users/:username/groups/:group.
func (h *ProviderAdminHandler) AddToGroup(c *fiber.Ctx) error {
	if err := h.provider.AddToGroup(c.UserContext(), c.Params("username"), c.Params("group")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"status": "added"})
}

// RemoveFromGroup handles DELETE /api/admin/cognito/users/:username/groups/:group.
func (h *ProviderAdminHandler) RemoveFromGroup(c *fiber.Ctx) error {
	if err := h.provider.RemoveFromGroup(c.UserContext(), c.Params("username"), c.Params("group")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func providerUserResponse(user *identity.User) dto.ProviderUserResponse {
	return dto.ProviderUserResponse{
		Username:  user.Username,
		Email:     user.Email,
		Enabled:   user.Enabled,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
}
