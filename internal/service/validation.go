package service

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperrors.NewValidationError("username must be 3-50 characters of letters, digits, '-' or '_'",
			map[string]any{"field": "username"})
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email is not a valid address", map[string]any{"field": "email"})
	}
	return nil
}

// bcrypt ignores bytes past 72, so longer passwords are refused outright.
func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return apperrors.NewValidationError("password must be between 6 and 72 characters",
			map[string]any{"field": "password"})
	}
	return nil
}

func parseRole(value string) (domain.Role, error) {
	role, ok := domain.ParseRole(value)
	if !ok {
		return "", apperrors.NewValidationError("role must be one of admin, manager, viewer",
			map[string]any{"field": "role"})
	}
	return role, nil
}

// mapLookupError turns a missing row into a NOT_FOUND for resource and a
// duplicate key into a CONFLICT naming the clashing field.
func mapLookupError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		constraint, ok := repository.DuplicateConstraint(err)
		if !ok {
			constraint = err.Error()
		}
		field := "value"
		switch {
		case strings.Contains(constraint, "username"):
			field = "username"
		case strings.Contains(constraint, "email"):
			field = "email"
		}
		return apperrors.NewConflict(field+" already exists", map[string]any{"field": field})
	}
	return apperrors.MapError(err)
}
