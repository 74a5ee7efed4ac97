package handlers

import (
	"encoding/json"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /productos
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		return storeFailure(c, "catalog.product.list", err, nil)
	}
	return c.JSON(ps)
}

// GET /productos/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "catalog.product.get", err, map[string]any{"product_id": id})
	}
	return c.JSON(p)
}

// POST /productos (multipart: nombre, imagen, optional variantes as JSON)
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var variants []domain.Variant
	if raw := c.FormValue("variantes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &variants); err != nil {
			applog.Security(c, "validation.fail", map[string]any{"field": "variantes"})
			return fail(c, fiber.StatusBadRequest, "variantes must be a JSON array of {id, precio, stock, imagen}")
		}
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), c.FormValue("nombre"), formFile(c, "imagen"), variants)
	if err != nil {
		return storeFailure(c, "catalog.product.create", err, map[string]any{"name": c.FormValue("nombre")})
	}
	applog.Audit(c, "catalog.product.create", map[string]any{"product_id": p.ID, "name": p.Name, "variants": len(p.Variants)})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /productos/:id
func (h *ProductHandler) Rename(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	var body struct {
		Name string `json:"nombre"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "request body must be a JSON object")
	}
	p, err := h.Catalog.RenameProduct(c.UserContext(), id, body.Name)
	if err != nil {
		return storeFailure(c, "catalog.product.rename", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "catalog.product.rename", map[string]any{"product_id": id, "name": p.Name})
	return c.JSON(p)
}

// PUT /productos/:id/imagen
func (h *ProductHandler) ReplaceImage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	img, err := h.Catalog.ReplaceImage(c.UserContext(), id, formFile(c, "imagen"))
	if err != nil {
		return storeFailure(c, "catalog.product.image", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "catalog.product.image", map[string]any{"product_id": id, "image": img})
	return c.JSON(fiber.Map{"ok": true, "imagen": img})
}

// DELETE /productos/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	p, err := h.Catalog.DeleteProduct(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, "catalog.product.delete", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "catalog.product.delete", map[string]any{"product_id": id, "name": p.Name, "variants": len(p.Variants)})
	return done(c, "product deleted")
}

// formFile returns nil when the field is absent.
func formFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}
