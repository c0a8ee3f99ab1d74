package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/identity"
)

var _ Authenticator = (*ProviderAuthService)(nil)

// ProviderAuthService delegates every credential operation to the external
// identity provider.
type ProviderAuthService struct {
	provider   identity.Provider
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProviderAuthService builds the service.
func NewProviderAuthService(provider identity.Provider, dispatcher events.Dispatcher, logger *zap.Logger) *ProviderAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderAuthService{provider: provider, dispatcher: dispatcher, logger: logger}
}

func (s *ProviderAuthService) Mode() string { return domain.ProviderCognito }

func (s *ProviderAuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}
	tokens, err := s.provider.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedIn,
		events.Actor{Subject: username, Username: username, Provider: domain.ProviderCognito},
		events.SessionPayload{Provider: domain.ProviderCognito}))

	return sessionFrom(tokens, username), nil
}

func (s *ProviderAuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, auth.ErrInvalidRefreshToken.WithMessage("refresh token is required")
	}
	tokens, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return sessionFrom(tokens, ""), nil
}

// Logout signs the user out of every device. Repeating it is harmless.
// The provider only signs out with an access token; an ID token bearer is
// refused rather than reported as signed out.
func (s *ProviderAuthService) Logout(ctx context.Context, caller *auth.Identity, accessToken string) error {
	if caller != nil && caller.TokenUse != "access" {
		return auth.ErrInvalidToken.WithMessage("sign-out requires an access token")
	}
	if err := s.provider.RevokeAll(ctx, accessToken); err != nil {
		return err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedOut, actorOf(caller),
		events.SessionPayload{Provider: domain.ProviderCognito}))
	return nil
}

func sessionFrom(tokens *identity.Tokens, username string) *Session {
	tokenType := tokens.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &Session{
		AccessToken:  tokens.AccessToken,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    tokens.ExpiresIn,
		Username:     username,
		Provider:     domain.ProviderCognito,
	}
}
