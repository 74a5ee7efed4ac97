package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /productos/variantes
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	vs, err := h.Inv.ListVariants(c.UserContext())
	if err != nil {
		return storeFailure(c, "inventory.variant.list", err, nil)
	}
	return c.JSON(vs)
}

// GET /productos/variantes/:id
func (h *InventoryHandler) Stock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid variant id")
	}
	n, err := h.Inv.Stock(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "inventory.stock.get", err, map[string]any{"variant_id": id})
	}
	return c.JSON(fiber.Map{"stock": n})
}

// PATCH /productos/variantes/:id  {"stock": n}
func (h *InventoryHandler) SetStock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid variant id")
	}
	var body struct {
		Stock *int `json:"stock"`
	}
	if err := c.BodyParser(&body); err != nil || body.Stock == nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "stock", "variant_id": id})
		return fail(c, fiber.StatusBadRequest, "stock must be a non-negative integer")
	}
	v, err := h.Inv.SetStock(c.UserContext(), id, *body.Stock)
	if err != nil {
		return storeFailure(c, "inventory.stock.set", err, map[string]any{"variant_id": id})
	}
	applog.Audit(c, "inventory.stock.set", map[string]any{"variant_id": id, "stock": v.Stock})
	return c.JSON(v)
}

// POST /productos/:id/variantes
func (h *InventoryHandler) Add(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	var v domain.Variant
	if err := c.BodyParser(&v); err != nil {
		return fail(c, fiber.StatusBadRequest, "variant must be a JSON object {id, precio, stock, imagen}")
	}
	added, err := h.Inv.AddVariant(c.UserContext(), pid, v)
	if err != nil {
		return storeFailure(c, "inventory.variant.add", err, map[string]any{"product_id": pid, "variant_id": v.ID})
	}
	applog.Audit(c, "inventory.variant.add", map[string]any{"product_id": pid, "variant_id": added.ID, "stock": added.Stock})
	return c.Status(fiber.StatusCreated).JSON(added)
}

// DELETE /productos/variantes/:id
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid variant id")
	}
	if err := h.Inv.DeleteVariant(c.UserContext(), id); err != nil {
		return storeFailure(c, "inventory.variant.delete", err, map[string]any{"variant_id": id})
	}
	applog.Audit(c, "inventory.variant.delete", map[string]any{"variant_id": id})
	return done(c, "variant deleted")
}
