package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/config"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// UserService manages locally stored administrator accounts.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// CreateUserInput carries the fields accepted when creating an account.
type CreateUserInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     string
}

// UpdateUserInput carries optional changes; nil fields are left alone.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Role     *string
	IsActive *bool
}

// UserList is one page of users plus the overall count.
type UserList struct {
	Users []domain.User
	Total int
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger, bcryptCost: cfg.BcryptCost}
}

// List returns a page of users ordered by creation time.
func (s *UserService) List(ctx context.Context, page repository.Page) (*UserList, error) {
	users, err := s.users.List(ctx, page)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &UserList{Users: users, Total: total}, nil
}

// Get fetches one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "user")
	}
	return user, nil
}

// Create validates and stores a new account.
func (s *UserService) Create(ctx context.Context, actor *auth.Identity, in CreateUserInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := domain.RoleViewer
	if in.Role != "" {
		parsed, err := parseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if actor != nil {
		if creator, err := s.users.GetByUsername(ctx, actor.Subject); err == nil {
			user.CreatedByID = &creator.ID
		}
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapLookupError(err, "user")
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserCreated, actorOf(actor),
		events.UserPayload{UserID: user.ID, Username: user.Username, Role: user.Role}))
	return user, nil
}

// Update applies the non-nil fields of in to the user.
func (s *UserService) Update(ctx context.Context, actor *auth.Identity, id string, in UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "user")
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Role != nil {
		role, err := parseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if in.IsActive != nil {
		if !*in.IsActive && actor != nil && actor.Subject == user.Username {
			return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
		}
		user.IsActive = *in.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapLookupError(err, "user")
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserUpdated, actorOf(actor),
		events.UserPayload{UserID: user.ID, Username: user.Username, Role: user.Role, IsActive: &user.IsActive}))
	return user, nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *auth.Identity, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapLookupError(err, "user")
	}
	if actor != nil && actor.Subject == user.Username {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapLookupError(err, "user")
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserDeleted, actorOf(actor),
		events.UserPayload{UserID: user.ID, Username: user.Username}))
	return nil
}

// EnsureDefaultAdmin creates the bootstrap administrator when the directory
// is empty. It reports whether an account was created.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, cfg config.AuthConfig) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(cfg.DefaultAdminPassword, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash default admin password: %w", err)
	}
	admin := &domain.User{
		Username:     cfg.DefaultAdminUsername,
		Email:        cfg.DefaultAdminEmail,
		FullName:     "System Administrator",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create default admin: %w", err)
	}
	s.logger.Warn("default admin account created; change its password",
		zap.String("username", admin.Username))
	return true, nil
}
