// Package httpapi assembles the Fiber application: middleware, limits and
// routes.
package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
)

// requests per minute per IP outside static files
const globalRate = 120

func NewApp(cfg config.Config, db *sqlx.DB, deps *handlers.Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "storefront",
		BodyLimit: cfg.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code, msg := fiber.StatusInternalServerError, "Something went wrong. Please try again."
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
				code, msg = fe.Code, fe.Message
			} else {
				applog.Error(c, "server.error", err, nil)
			}
			return c.Status(code).JSON(fiber.Map{"ok": false, "message": msg})
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New())
	app.Use(limiter.New(limiter.Config{
		Max:        globalRate,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/img/") || strings.HasPrefix(p, "/uploads/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"ok": false, "message": "too many requests, retry soon"})
		},
	}))

	// ---------- Static files ----------
	app.Get("/img/productos/*", handlers.ServeFiles(deps.Images))
	app.Get("/uploads/*", handlers.ServeFiles(deps.Files))

	admin := handlers.RequireAdmin(deps.Auth)
	if deps.Auth.Open() {
		applog.Security(nil, "admin.open", map[string]any{"hint": "set ADMIN_TOKEN_HASH to protect catalog and invoice management"})
	}

	// ---------- Catalog ----------
	p, inv := deps.ProductHandler, deps.InventoryHandler
	app.Get("/productos", p.List)
	app.Post("/productos", admin, p.Create)
	// variant routes before /productos/:id
	app.Get("/productos/variantes", inv.List)
	app.Get("/productos/variantes/:id", inv.Stock)
	app.Patch("/productos/variantes/:id", admin, inv.SetStock)
	app.Delete("/productos/variantes/:id", admin, inv.Delete)
	app.Get("/productos/:id", p.Get)
	app.Put("/productos/:id", admin, p.Rename)
	app.Delete("/productos/:id", admin, p.Delete)
	app.Put("/productos/:id/imagen", admin, p.ReplaceImage)
	app.Post("/productos/:id/variantes", admin, inv.Add)

	// ---------- Checkout ----------
	checkout := []fiber.Handler{}
	if cfg.CheckoutRate > 0 {
		checkout = append(checkout, limiter.New(limiter.Config{
			Max:        cfg.CheckoutRate,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "|checkout"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.checkout.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"ok": false, "message": "too many purchase attempts, retry soon"})
			},
		}))
	}
	app.Post("/finalizar-compra", append(checkout, deps.CheckoutHandler.Finalize)...)

	// ---------- Invoices ----------
	v := deps.InvoiceHandler
	app.Post("/facturas/pdf", v.Create)
	app.Get("/facturas", admin, v.List)
	app.Delete("/facturas/:nombre", admin, v.Delete)
	app.Post("/upload-pdf", v.Upload)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			applog.Error(c, "health.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "message": "not found"})
	})
	return app
}
