package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "message": msg})
}

func done(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"ok": true, "message": msg})
}

// storeFailure answers a failed catalog or inventory call. Client mistakes
// keep their message; anything else is logged and hidden.
func storeFailure(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	var ie *services.InputError
	switch {
	case errors.As(err, &ie):
		applog.Security(c, "validation.fail", merge(fields, "action", action, "error", ie.Msg))
		return fail(c, fiber.StatusBadRequest, ie.Msg)
	case errors.Is(err, repos.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, repos.ErrConflict):
		applog.Security(c, action+".conflict", merge(fields, "error", err.Error()))
		return fail(c, fiber.StatusConflict, err.Error())
	}
	applog.Error(c, action+".fail", err, fields)
	return fail(c, fiber.StatusInternalServerError, "internal error")
}

// publicBase is the URL prefix used for links handed to clients.
func publicBase(c *fiber.Ctx, configured string) string {
	if configured != "" {
		return configured
	}
	return c.Protocol() + "://" + c.Hostname()
}

func merge(fields map[string]any, kv ...any) map[string]any {
	out := make(map[string]any, len(fields)+len(kv)/2)
	for k, v := range fields {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			out[k] = kv[i+1]
		}
	}
	return out
}
