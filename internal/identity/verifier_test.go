package identity

import (
	"context"
	"net/http"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

const (
	testIssuer   = "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool"
	testClientID = "client-id"
)

type stubGroups struct {
	groups map[string][]string
	calls  int
	err    error
}

func (s *stubGroups) GroupsFor(_ context.Context, username string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.groups[username], nil
}

func signCognitoToken(t *testing.T, key signingKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.kid
	signed, err := token.SignedString(key.priv)
	require.NoError(t, err)
	return signed
}

func baseClaims(use string) jwt.MapClaims {
	claims := jwt.MapClaims{
		"sub":              "6f1c-uuid",
		"iss":              testIssuer,
		"exp":              time.Now().Add(time.Hour).Unix(),
		"iat":              time.Now().Unix(),
		"token_use":        use,
		"cognito:username": "maria",
		"cognito:groups":   []string{"Manager", "drivers"},
	}
	if use == "id" {
		claims["aud"] = testClientID
		claims["email"] = "maria@example.com"
	} else {
		claims["client_id"] = testClientID
	}
	return claims
}

func newTestVerifier(t *testing.T, groups GroupLookup) (*TokenVerifier, signingKey) {
	t.Helper()
	key := newSigningKey(t, "k1")
	srv := newJWKSServer(t, key)
	ks := NewKeySet(srv.URL, KeySetOptions{MinRefresh: time.Minute})
	return NewTokenVerifier(ks, testIssuer, testClientID, groups, nil), key
}

func TestTokenVerifierAcceptsIDAndAccessTokens(t *testing.T) {
	v, key := newTestVerifier(t, nil)

	identity, err := v.Verify(context.Background(), signCognitoToken(t, key, baseClaims("id")))
	require.NoError(t, err)
	assert.Equal(t, "maria", identity.Username)
	assert.Equal(t, "maria@example.com", identity.Email)
	assert.Equal(t, []domain.Role{domain.RoleManager}, identity.Roles)
	assert.Equal(t, domain.ProviderCognito, identity.Provider)
	assert.True(t, identity.Active)

	identity, err = v.Verify(context.Background(), signCognitoToken(t, key, baseClaims("access")))
	require.NoError(t, err)
	assert.Equal(t, "access", identity.TokenUse)
}

func TestTokenVerifierRejects(t *testing.T) {
	v, key := newTestVerifier(t, nil)
	stranger := newSigningKey(t, "k1")

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "expired", token: func() string {
			c := baseClaims("id")
			c["exp"] = time.Now().Add(-time.Minute).Unix()
			return signCognitoToken(t, key, c)
		}},
		{name: "no expiry", token: func() string {
			c := baseClaims("id")
			delete(c, "exp")
			return signCognitoToken(t, key, c)
		}},
		{name: "wrong issuer", token: func() string {
			c := baseClaims("id")
			c["iss"] = "https://cognito-idp.us-east-1.amazonaws.com/other"
			return signCognitoToken(t, key, c)
		}},
		{name: "wrong audience", token: func() string {
			c := baseClaims("id")
			c["aud"] = "another-client"
			return signCognitoToken(t, key, c)
		}},
		{name: "wrong client", token: func() string {
			c := baseClaims("access")
			c["client_id"] = "another-client"
			return signCognitoToken(t, key, c)
		}},
		{name: "unknown token use", token: func() string {
			c := baseClaims("id")
			c["token_use"] = "refresh"
			return signCognitoToken(t, key, c)
		}},
		{name: "foreign key with same kid", token: func() string {
			return signCognitoToken(t, stranger, baseClaims("id"))
		}},
		{name: "hmac token", token: func() string {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims("id")).SignedString([]byte("secret"))
			require.NoError(t, err)
			return signed
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(context.Background(), tt.token())
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestTokenVerifierFallsBackToGroupLookup(t *testing.T) {
	groups := &stubGroups{groups: map[string][]string{"maria": {"admin"}}}
	v, key := newTestVerifier(t, groups)

	claims := baseClaims("access")
	delete(claims, "cognito:groups")

	identity, err := v.Verify(context.Background(), signCognitoToken(t, key, claims))
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, identity.Roles)
	assert.Equal(t, 1, groups.calls)
}

func TestTokenVerifierGroupLookupOutage(t *testing.T) {
	v, key := newTestVerifier(t, &stubGroups{err: auth.ErrProviderUnavailable})

	claims := baseClaims("access")
	delete(claims, "cognito:groups")

	_, err := v.Verify(context.Background(), signCognitoToken(t, key, claims))
	assert.ErrorIs(t, err, auth.ErrProviderUnavailable)
}

func TestTokenVerifierKeysUnavailable(t *testing.T) {
	key := newSigningKey(t, "k1")
	srv := newJWKSServer(t)
	srv.fail(http.StatusServiceUnavailable)
	v := NewTokenVerifier(NewKeySet(srv.URL, KeySetOptions{}), testIssuer, testClientID, nil, nil)

	_, err := v.Verify(context.Background(), signCognitoToken(t, key, baseClaims("id")))
	assert.ErrorIs(t, err, auth.ErrProviderUnavailable)
}
