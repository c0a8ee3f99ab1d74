package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// Verifier turns a bearer token into an Identity. Token problems are reported
// as ErrInvalidToken; an unreachable backend as ErrProviderUnavailable.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// UserLookup is the slice of the user directory the local verifier needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// LocalVerifier validates tokens issued by this service.
type LocalVerifier struct {
	tokens      *TokenManager
	revocations RevocationStore
	users       UserLookup
}

// NewLocalVerifier wires the token manager with the revocation list and
// directory. A nil store disables revocation checks.
func NewLocalVerifier(tokens *TokenManager, revocations RevocationStore, users UserLookup) *LocalVerifier {
	if revocations == nil {
		revocations = NoopRevocationStore{}
	}
	return &LocalVerifier{tokens: tokens, revocations: revocations, users: users}
}

func (v *LocalVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := v.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if claims.ID != "" {
		revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, ErrProviderUnavailable.WithMessage("token revocation list is unavailable").Wrap(err)
		}
		if revoked {
			return nil, ErrInvalidToken.WithMessage("token has been revoked")
		}
	}

	identity := &Identity{
		Subject:   claims.Subject,
		Username:  claims.Subject,
		Active:    true,
		ExpiresAt: claims.ExpiresAt.Time,
		TokenID:   claims.ID,
		Provider:  domain.ProviderLocal,
		TokenUse:  "access",
	}
	if claims.Role.Valid() {
		identity.Roles = []domain.Role{claims.Role}
	}
	if v.users == nil {
		return identity, nil
	}

	user, err := v.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken.WithMessage("token subject no longer exists")
		}
		return nil, fmt.Errorf("load token subject: %w", err)
	}

	// The directory is authoritative for role and status so that admin
	// changes apply to tokens already in circulation.
	identity.Email = user.Email
	identity.Active = user.IsActive
	identity.Roles = nil
	if user.Role.Valid() {
		identity.Roles = []domain.Role{user.Role}
	}
	return identity, nil
}
