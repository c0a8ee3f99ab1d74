package auth

import (
	"net/http"

	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

// Authentication and authorization failures. Callers wrap or copy these with
// WithMessage/Wrap; errors.Is matches on the code.
var (
	ErrMissingCredentials  = apperrors.NewDomainError("MISSING_CREDENTIALS", "authentication credentials were not provided", http.StatusUnauthorized, nil)
	ErrInvalidToken        = apperrors.NewDomainError("INVALID_TOKEN", "token is invalid or expired", http.StatusUnauthorized, nil)
	ErrAccountDisabled     = apperrors.NewDomainError("ACCOUNT_DISABLED", "account is disabled", http.StatusUnauthorized, nil)
	ErrForbidden           = apperrors.NewDomainError("FORBIDDEN", "insufficient permissions", http.StatusForbidden, nil)
	ErrInvalidCredentials  = apperrors.NewDomainError("INVALID_CREDENTIALS", "incorrect username or password", http.StatusUnauthorized, nil)
	ErrInvalidRefreshToken = apperrors.NewDomainError("INVALID_REFRESH_TOKEN", "refresh token is invalid or expired", http.StatusUnauthorized, nil)
	ErrChallengeRequired   = apperrors.NewDomainError("CHALLENGE_REQUIRED", "additional authentication step is required", http.StatusUnauthorized, nil)
	ErrProviderUnavailable = apperrors.NewDomainError("PROVIDER_UNAVAILABLE", "identity provider is unavailable", http.StatusServiceUnavailable, nil)
	ErrProviderConflict    = apperrors.NewDomainError("PROVIDER_CONFLICT", "user already exists", http.StatusConflict, nil)
	ErrProviderForbidden   = apperrors.NewDomainError("PROVIDER_FORBIDDEN", "operation not permitted by identity provider", http.StatusForbidden, nil)
	ErrProviderFailure     = apperrors.NewDomainError("PROVIDER_ERROR", "identity provider request failed", http.StatusBadGateway, nil)
	ErrUserNotFound        = apperrors.NewDomainError("USER_NOT_FOUND", "user not found", http.StatusNotFound, nil)
	ErrGroupNotFound       = apperrors.NewDomainError("GROUP_NOT_FOUND", "group not found", http.StatusNotFound, nil)
)
