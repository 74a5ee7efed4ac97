package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// POST /finalizar-compra {"products":[{"id":101,"quantity":2}]}
func (h *CheckoutHandler) Finalize(c *fiber.Ctx) error {
	lines, err := validate.Cart(c.Body())
	if err != nil {
		applog.Security(c, "checkout.invalid", map[string]any{"error": err.Error()})
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	updated, err := h.Checkout.Checkout(c.UserContext(), lines)
	if err == nil {
		remaining := make(map[int64]int, len(updated))
		for _, v := range updated {
			remaining[v.ID] = v.Stock
		}
		applog.Audit(c, "checkout.success", map[string]any{"lines": len(lines), "remaining": remaining})
		return done(c, "purchase completed successfully")
	}

	var (
		ie  *services.InputError
		nf  *services.NotFoundError
		ise *services.InsufficientStockError
		ce  *services.ConflictError
	)
	switch {
	case errors.As(err, &ce):
		// earlier lines of this cart stay decremented
		applog.Security(c, "checkout.conflict", map[string]any{"variant_id": ce.VariantID, "applied_lines": ce.Applied})
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &ie), errors.As(err, &nf), errors.As(err, &ise):
		applog.Security(c, "checkout.rejected", map[string]any{"error": err.Error()})
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	applog.Error(c, "checkout.fail", err, map[string]any{"lines": len(lines), "applied_lines": len(updated)})
	return fail(c, fiber.StatusInternalServerError, "internal error while processing the purchase")
}
