package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/media"
)

// ServeFiles serves flat files from store under a wildcard route, refusing
// traversal attempts (raw or percent-encoded).
func ServeFiles(store *media.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("*")
		full, err := store.Path(name)
		if err != nil {
			if strings.TrimSpace(name) != "" {
				applog.Security(c, "media.traversal.block", map[string]any{"path": name})
			}
			return fail(c, fiber.StatusNotFound, "file not found")
		}
		if !store.Exists(name) {
			return fail(c, fiber.StatusNotFound, "file not found")
		}
		return c.SendFile(full, true)
	}
}
