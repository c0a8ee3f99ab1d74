package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// Require returns a handler that admits the request only when the caller
// satisfies policy. The verified identity is stored in Locals and the user context.
func (g *Gate) Require(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.Authorize(c.UserContext(), c.Get(fiber.HeaderAuthorization), policy)
		if err != nil {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) && domainErr.HTTPStatus == http.StatusUnauthorized {
				c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			}
			return err
		}

		c.Locals(identityKey, identity)
		c.SetUserContext(WithIdentity(c.UserContext(), identity))
		return c.Next()
	}
}

// IdentityFromCtx retrieves the caller stored by Require.
func IdentityFromCtx(c *fiber.Ctx) (*Identity, bool) {
	identity, ok := c.Locals(identityKey).(*Identity)
	return identity, ok && identity != nil
}

// WithIdentity attaches identity to ctx for code below the HTTP layer.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext is the context.Context counterpart of IdentityFromCtx.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*Identity)
	return identity, ok && identity != nil
}
