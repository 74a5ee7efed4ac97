package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

// RequireAdmin guards catalog and invoice management with
// "Authorization: Bearer <token>".
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.Open() {
			return c.Next()
		}
		h := c.Get(fiber.HeaderAuthorization)
		tok, found := strings.CutPrefix(h, "Bearer ")
		if !found {
			tok = ""
		}
		if err := auth.Check(strings.TrimSpace(tok)); err != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"has_header": h != ""})
			return fail(c, fiber.StatusUnauthorized, "admin token required")
		}
		return c.Next()
	}
}
