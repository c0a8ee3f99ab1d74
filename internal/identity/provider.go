package identity

import (
	"context"
	"time"
)

// Tokens is the token set returned by the identity provider on login or refresh.
type Tokens struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

// User is an account as the provider reports it.
type User struct {
	Username  string
	Email     string
	Enabled   bool
	Status    string
	CreatedAt *time.Time
}

// UserPage is one page of ListUsers.
type UserPage struct {
	Users     []User
	NextToken string
}

// NewUser describes an account to create. Password, when set, becomes the
// permanent password; Group, when set, is the initial membership.
type NewUser struct {
	Username string
	Email    string
	Password string
	Group    string
}

// Provider delegates authentication and account administration to an
// external identity service.
type Provider interface {
	Authenticate(ctx context.Context, username, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	RevokeAll(ctx context.Context, accessToken string) error

	ListGroupsFor(ctx context.Context, username string) ([]string, error)
	AddToGroup(ctx context.Context, username, group string) error
	RemoveFromGroup(ctx context.Context, username, group string) error

	ListUsers(ctx context.Context, limit int32, nextToken string) (*UserPage, error)
	CreateUser(ctx context.Context, in NewUser) (*User, error)
	DeleteUser(ctx context.Context, username string) error
	EnableUser(ctx context.Context, username string) error
	DisableUser(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, username, password string, permanent bool) error
}

// GroupLookup resolves group membership on the request path.
type GroupLookup interface {
	GroupsFor(ctx context.Context, username string) ([]string, error)
}

// CallObserver records provider call latency by operation and outcome.
type CallObserver interface {
	ObserveProviderCall(operation, outcome string, elapsed time.Duration)
}
