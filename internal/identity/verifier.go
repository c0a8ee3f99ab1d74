package identity

import (
	"context"
	"errors"
	"slices"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

var _ auth.Verifier = (*TokenVerifier)(nil)

type cognitoClaims struct {
	TokenUse        string   `json:"token_use"`
	ClientID        string   `json:"client_id"`
	Username        string   `json:"username"`
	CognitoUsername string   `json:"cognito:username"`
	Email           string   `json:"email"`
	Groups          []string `json:"cognito:groups"`
	jwt.RegisteredClaims
}

// TokenVerifier validates RS256 tokens minted by the user pool.
type TokenVerifier struct {
	keys     *KeySet
	issuer   string
	clientID string
	groups   GroupLookup
	resolver *auth.Resolver
	now      func() time.Time
}

// NewTokenVerifier builds a verifier. groups may be nil, in which case tokens
// without a cognito:groups claim carry no roles.
func NewTokenVerifier(keys *KeySet, issuer, clientID string, groups GroupLookup, resolver *auth.Resolver) *TokenVerifier {
	if resolver == nil {
		resolver = auth.NewResolver()
	}
	return &TokenVerifier{
		keys:     keys,
		issuer:   issuer,
		clientID: clientID,
		groups:   groups,
		resolver: resolver,
		now:      time.Now,
	}
}

// WithClock returns a copy that reads time from now.
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	clone := *v
	clone.now = now
	return &clone
}

func (v *TokenVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	claims := &cognitoClaims{}
	var keyErr error
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			keyErr = err
			return nil, err
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(keyErr, auth.ErrProviderUnavailable) {
			return nil, keyErr
		}
		return nil, auth.ErrInvalidToken.Wrap(err)
	}

	switch claims.TokenUse {
	case "id":
		if !slices.Contains([]string(claims.Audience), v.clientID) {
			return nil, auth.ErrInvalidToken.WithMessage("token audience mismatch")
		}
	case "access":
		if claims.ClientID != v.clientID {
			return nil, auth.ErrInvalidToken.WithMessage("token client mismatch")
		}
	default:
		return nil, auth.ErrInvalidToken.WithMessage("unsupported token use")
	}

	username := claims.CognitoUsername
	if username == "" {
		username = claims.Username
	}
	if username == "" {
		username = claims.Subject
	}

	groups := claims.Groups
	if groups == nil && v.groups != nil {
		groups, err = v.groups.GroupsFor(ctx, username)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return nil, auth.ErrInvalidToken.WithMessage("token subject no longer exists")
			}
			return nil, err
		}
	}

	identity := &auth.Identity{
		Subject:  claims.Subject,
		Username: username,
		Email:    claims.Email,
		Roles:    v.resolver.RolesForGroups(groups),
		Groups:   groups,
		Active:   true,
		TokenID:  claims.ID,
		Provider: domain.ProviderCognito,
		TokenUse: claims.TokenUse,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
