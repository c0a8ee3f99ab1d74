package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/config"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
)

var testAuthConfig = config.AuthConfig{
	BcryptCost:           bcrypt.MinCost,
	DefaultAdminUsername: "admin",
	DefaultAdminEmail:    "admin@delivery-platform.com",
	DefaultAdminPassword: "admin123",
}

type localFixture struct {
	users    *memUsers
	tokens   *auth.TokenManager
	verifier *auth.LocalVerifier
	svc      *LocalAuthService
	log      *eventLog
}

func newLocalFixture(t *testing.T) *localFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := newMemUsers()
	tokens := auth.NewTokenManager("test-secret", 15*time.Minute)
	revocations := auth.NewRedisRevocationStore(client)
	dispatcher, log := newEventLog()

	created, err := NewUserService(testAuthConfig, users, nil, nil).EnsureDefaultAdmin(context.Background(), testAuthConfig)
	require.NoError(t, err)
	require.True(t, created)

	return &localFixture{
		users:    users,
		tokens:   tokens,
		verifier: auth.NewLocalVerifier(tokens, revocations, users),
		svc: NewLocalAuthService(testAuthConfig, LocalAuthDependencies{
			UserRepo:    users,
			Tokens:      tokens,
			Revocations: revocations,
			Dispatcher:  dispatcher,
		}),
		log: log,
	}
}

func TestLocalLoginVerifyRoundTrip(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	for _, login := range []string{"admin", "admin@delivery-platform.com", "  admin  "} {
		t.Run(login, func(t *testing.T) {
			session, err := f.svc.Login(ctx, login, "admin123")
			require.NoError(t, err)
			assert.Equal(t, "bearer", session.TokenType)
			assert.Equal(t, 15*time.Minute, session.ExpiresIn)
			assert.Empty(t, session.RefreshToken)

			identity, err := f.verifier.Verify(ctx, session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "admin", identity.Subject)
			assert.Equal(t, []domain.Role{domain.RoleAdmin}, identity.Roles)
			assert.Equal(t, domain.ProviderLocal, identity.Provider)
		})
	}

	admin, err := f.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NotNil(t, admin.LastLogin)
	assert.Contains(t, f.log.types(), events.EventUserLoggedIn)
}

func TestLocalLoginRejectsBadCredentials(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.Create(ctx, &domain.User{
		Username:     "retired",
		Email:        "retired@example.com",
		PasswordHash: mustHash(t, "secret99"),
		Role:         domain.RoleViewer,
		IsActive:     false,
	}))

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "wrong password", username: "admin", password: "admin124", wantErr: auth.ErrInvalidCredentials},
		{name: "trailing whitespace in password", username: "admin", password: "admin123 ", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown user", username: "ghost", password: "admin123", wantErr: auth.ErrInvalidCredentials},
		{name: "empty password", username: "admin", password: "", wantErr: auth.ErrInvalidCredentials},
		{name: "disabled account", username: "retired", password: "secret99", wantErr: auth.ErrAccountDisabled},
		{name: "disabled account wrong password", username: "retired", password: "nope", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.svc.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, session)
		})
	}
	assert.Empty(t, f.log.types())
}

func TestLocalLogoutRevokesToken(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	session, err := f.svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	identity, err := f.verifier.Verify(ctx, session.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, identity, session.AccessToken))
	require.NoError(t, f.svc.Logout(ctx, identity, session.AccessToken))

	_, err = f.verifier.Verify(ctx, session.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.Equal(t, events.EventUserLoggedOut, f.log.last().Type)
}

func TestLocalRefreshIsUnsupported(t *testing.T) {
	f := newLocalFixture(t)

	session, err := f.svc.Refresh(context.Background(), "anything")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	assert.Nil(t, session)
}

func TestLocalChangePassword(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	caller := &auth.Identity{Subject: "admin", Username: "admin"}

	err := f.svc.ChangePassword(ctx, caller, "wrong", "new-secret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	err = f.svc.ChangePassword(ctx, caller, "admin123", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")

	require.NoError(t, f.svc.ChangePassword(ctx, caller, "admin123", "new-secret"))

	_, err = f.svc.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "admin", "new-secret")
	assert.NoError(t, err)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}
