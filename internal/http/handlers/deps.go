package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/invoice"
	"storefront/internal/media"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	Auth   *services.AuthService
	Images *media.Store
	Files  *media.Store

	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CheckoutHandler  *CheckoutHandler
	InvoiceHandler   *InvoiceHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, images, files *media.Store) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, images, cfg.StoreTimeout)
	invSvc := services.NewInventoryService(invRepo, cfg.StoreTimeout)
	checkoutSvc := services.NewCheckoutService(invRepo, cfg.StoreTimeout)
	invoiceSvc := services.NewInvoiceService(files,
		invoice.Options{LogoPath: cfg.LogoPath, ImagesDir: images.Dir()}, cfg.WhatsAppNumber)

	return &Deps{
		Auth:             services.NewAuthService(cfg.AdminTokenHash),
		Images:           images,
		Files:            files,
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CheckoutHandler:  &CheckoutHandler{Checkout: checkoutSvc},
		InvoiceHandler:   &InvoiceHandler{Invoices: invoiceSvc, BaseURL: cfg.BaseURL},
	}
}
