package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
)

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	Username     string
	Provider     string
}

// Authenticator is the login surface shared by both auth strategies. The
// process picks one implementation at startup.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, identity *auth.Identity, accessToken string) error
	Mode() string
}

func actorOf(identity *auth.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	return events.Actor{Subject: identity.Subject, Username: identity.Username, Provider: identity.Provider}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
