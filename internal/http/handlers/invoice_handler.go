package handlers

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

type InvoiceHandler struct {
	Invoices *services.InvoiceService
	BaseURL  string
}

// POST /facturas/pdf
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var body struct {
		Customer map[string]any      `json:"datosCliente"`
		Cart     []domain.InvoiceItem `json:"carrito"`
	}
	if err := c.BodyParser(&body); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "factura"})
		return fail(c, fiber.StatusBadRequest, "request body must be {datosCliente, carrito}")
	}
	customer := make(map[string]string, len(body.Customer))
	for k, v := range body.Customer {
		switch v := v.(type) {
		case nil:
		case string:
			customer[k] = v
		case float64:
			customer[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			customer[k] = fmt.Sprint(v)
		}
	}

	res, err := h.Invoices.Create(domain.Invoice{Customer: customer, Cart: body.Cart}, publicBase(c, h.BaseURL))
	if err != nil {
		var ie *services.InputError
		if errors.As(err, &ie) {
			applog.Security(c, "validation.fail", map[string]any{"action": "invoice.create", "error": ie.Msg})
			return fail(c, fiber.StatusBadRequest, ie.Msg)
		}
		applog.Error(c, "invoice.create.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not generate the invoice")
	}
	applog.Audit(c, "invoice.create", map[string]any{"file": res.File, "items": len(body.Cart)})
	return c.JSON(res)
}

// GET /facturas
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	files, err := h.Invoices.List(publicBase(c, h.BaseURL))
	if err != nil {
		applog.Error(c, "invoice.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not list invoices")
	}
	return c.JSON(files)
}

// DELETE /facturas/:nombre
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("nombre")
	err := h.Invoices.Delete(name)
	var ie *services.InputError
	switch {
	case err == nil:
		applog.Audit(c, "invoice.delete", map[string]any{"file": name})
		return done(c, "invoice and order data deleted")
	case errors.As(err, &ie):
		applog.Security(c, "invoice.delete.reject", map[string]any{"file": name})
		return fail(c, fiber.StatusBadRequest, ie.Msg)
	case errors.Is(err, os.ErrNotExist):
		return fail(c, fiber.StatusNotFound, "file not found")
	}
	applog.Error(c, "invoice.delete.fail", err, map[string]any{"file": name})
	return fail(c, fiber.StatusInternalServerError, "could not delete the invoice")
}

// POST /upload-pdf (multipart field "pdf")
func (h *InvoiceHandler) Upload(c *fiber.Ctx) error {
	url, err := h.Invoices.UploadPDF(formFile(c, "pdf"), publicBase(c, h.BaseURL))
	if err != nil {
		var ie *services.InputError
		if errors.As(err, &ie) {
			applog.Security(c, "upload.pdf.reject", map[string]any{"error": ie.Msg})
			return fail(c, fiber.StatusBadRequest, ie.Msg)
		}
		applog.Error(c, "upload.pdf.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not store the file")
	}
	applog.Audit(c, "upload.pdf", map[string]any{"url": url})
	return c.JSON(fiber.Map{"url": url})
}
