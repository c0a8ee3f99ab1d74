package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// DecisionRecorder counts gate outcomes.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// Gate authenticates bearer tokens and enforces route policies. It holds no
// per-request state.
type Gate struct {
	verifier Verifier
	resolver *Resolver
	logger   *zap.Logger
	metrics  DecisionRecorder
}

// NewGate builds a gate over the configured verification strategy.
func NewGate(verifier Verifier, resolver *Resolver, logger *zap.Logger, metrics DecisionRecorder) *Gate {
	if resolver == nil {
		resolver = NewResolver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{verifier: verifier, resolver: resolver, logger: logger, metrics: metrics}
}

// Resolver exposes the permission table the gate enforces.
func (g *Gate) Resolver() *Resolver {
	return g.resolver
}

// Authorize runs header through extraction, verification, the active check
// and policy, in that order. Expired tokens therefore fail before roles are
// considered.
func (g *Gate) Authorize(ctx context.Context, header string, policy Policy) (*Identity, error) {
	token, err := ExtractBearer(header)
	if err != nil {
		return nil, g.reject(err)
	}

	identity, err := g.verifier.Verify(ctx, token)
	if err != nil {
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) {
			g.record("error")
			return nil, apperrors.NewInternalError(err)
		}
		return nil, g.reject(err)
	}

	if !identity.Active {
		return nil, g.reject(ErrAccountDisabled)
	}
	if !policy.admits(g.resolver, identity.Roles) {
		g.logger.Info("auth forbidden",
			zap.String("subject", identity.Subject),
			zap.String("permission", string(policy.Permission)),
		)
		return nil, g.reject(ErrForbidden)
	}

	g.record("allowed")
	return identity, nil
}

func (g *Gate) reject(err error) error {
	code := apperrors.ToDomainError(err).Code
	g.logger.Info("auth rejected", zap.String("code", code))
	g.record(strings.ToLower(code))
	return err
}

func (g *Gate) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordAuthDecision(outcome)
	}
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredentials
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredentials.WithMessage("authorization header must use the Bearer scheme")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}
