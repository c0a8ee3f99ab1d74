package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/api/dto"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/service"
)

// UsersHandler exposes local administrator management.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, pageNum, perPage := parsePage(c)
	list, err := h.users.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(list.Users))
	for i := range list.Users {
		items = append(items, userResponse(&list.Users[i]))
	}
	return data(c, http.StatusOK, dto.UserListResponse{Items: items, Total: list.Total, Page: pageNum, PerPage: perPage})
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), identity, service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, userResponse(user))
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, userResponse(user))
}

// Update handles PATCH /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), identity, c.Params("id"), service.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, userResponse(user))
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		LastLogin: user.LastLogin,
	}
}
