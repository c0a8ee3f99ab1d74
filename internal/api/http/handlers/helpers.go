package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
	maxPage        = 1_000_000
)

func parseBoolQuery(c *fiber.Ctx, key string) *bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := c.Query(key); val != "" {
		return &val
	}
	return nil
}

// parsePage reads page/per_page (1-based) into a repository page.
func parsePage(c *fiber.Ctx) (repository.Page, int, int) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page > maxPage {
		page = maxPage
	}
	return repository.Page{Limit: perPage, Offset: (page - 1) * perPage}, page, perPage
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func caller(c *fiber.Ctx) (*auth.Identity, error) {
	identity, ok := auth.IdentityFromCtx(c)
	if !ok {
		return nil, auth.ErrMissingCredentials
	}
	return identity, nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
