package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/config"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
)

var _ Authenticator = (*LocalAuthService)(nil)

// LocalAuthService authenticates against the users table and issues HS256
// access tokens.
type LocalAuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	now         func() time.Time
}

// LocalAuthDependencies encapsulates collaborators for the local strategy.
type LocalAuthDependencies struct {
	UserRepo    repository.UserRepository
	Tokens      *auth.TokenManager
	Revocations auth.RevocationStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewLocalAuthService builds the service.
func NewLocalAuthService(cfg config.AuthConfig, deps LocalAuthDependencies) *LocalAuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	revocations := deps.Revocations
	if revocations == nil {
		revocations = auth.NoopRevocationStore{}
	}
	return &LocalAuthService{
		users:       deps.UserRepo,
		tokens:      deps.Tokens,
		revocations: revocations,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.BcryptCost,
		now:         time.Now,
	}
}

func (s *LocalAuthService) Mode() string { return domain.ProviderLocal }

// Login accepts a username or an email address. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *LocalAuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		auth.BurnPasswordCheck(password)
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, auth.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, auth.ErrAccountDisabled
	}

	issued, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("stamp last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedIn,
		events.Actor{Subject: user.Username, Username: user.Username, Provider: domain.ProviderLocal},
		events.SessionPayload{Provider: domain.ProviderLocal}))

	return &Session{
		AccessToken: issued.Token,
		TokenType:   "bearer",
		ExpiresIn:   s.tokens.TTL(),
		Username:    user.Username,
		Provider:    domain.ProviderLocal,
	}, nil
}

func (s *LocalAuthService) lookup(ctx context.Context, login string) (*domain.User, error) {
	if strings.Contains(login, "@") {
		return s.users.GetByEmail(ctx, login)
	}
	return s.users.GetByUsername(ctx, login)
}

// Refresh always fails: local mode issues short-lived access tokens only.
func (s *LocalAuthService) Refresh(context.Context, string) (*Session, error) {
	return nil, auth.ErrInvalidRefreshToken.WithMessage("refresh tokens are not issued in local mode")
}

// Logout puts the presented token on the revocation list until it expires.
func (s *LocalAuthService) Logout(ctx context.Context, identity *auth.Identity, _ string) error {
	if identity == nil {
		return auth.ErrMissingCredentials
	}
	if identity.TokenID != "" {
		if err := s.revocations.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
			return auth.ErrProviderUnavailable.WithMessage("token revocation list is unavailable").Wrap(err)
		}
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedOut, actorOf(identity),
		events.SessionPayload{Provider: domain.ProviderLocal}))
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *LocalAuthService) ChangePassword(ctx context.Context, identity *auth.Identity, currentPassword, newPassword string) error {
	if identity == nil {
		return auth.ErrMissingCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByUsername(ctx, identity.Subject)
	if err != nil {
		return mapLookupError(err, "user")
	}
	if !auth.VerifyPassword(user.PasswordHash, currentPassword) {
		return auth.ErrInvalidCredentials.WithMessage("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapLookupError(err, "user")
	}
	return nil
}
