package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// DefaultAccessTokenTTL applies when the manager is built without a positive TTL.
const DefaultAccessTokenTTL = 15 * time.Minute

// TokenManager issues and validates HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the manager that reads time from now.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *tm
	clone.now = now
	return &clone
}

// TTL is the lifetime applied by Issue.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed access token and the metadata callers need to track it.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Issue signs a token for subject with the default TTL.
func (tm *TokenManager) Issue(subject string, role domain.Role) (*IssuedToken, error) {
	return tm.IssueWithTTL(subject, role, tm.ttl)
}

// IssueWithTTL signs a token that expires ttl from now. A zero ttl yields a
// token that is already expired. exp has second granularity and is rounded
// up, so a token never expires before its ttl has elapsed.
func (tm *TokenManager) IssueWithTTL(subject string, role domain.Role, ttl time.Duration) (*IssuedToken, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("token subject must not be empty")
	}

	now := tm.now()
	expiresAt := now.Add(ttl)
	if ttl > 0 {
		if whole := expiresAt.Truncate(time.Second); whole.Before(expiresAt) {
			expiresAt = whole.Add(time.Second)
		}
	}
	id := uuid.NewString()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ID: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify validates signature, algorithm and expiry. Every failure is ErrInvalidToken.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, ErrInvalidToken.Wrap(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
