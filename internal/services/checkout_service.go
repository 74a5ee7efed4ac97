package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

// StockStore is what checkout needs from the catalog storage.
type StockStore interface {
	ProductByVariant(ctx context.Context, variantID int64) (domain.Product, error)
	DecrementStock(ctx context.Context, variantID int64, qty int) (domain.Variant, error)
}

type CheckoutService struct {
	Store   StockStore
	Timeout time.Duration // per store call
}

func NewCheckoutService(store StockStore, timeout time.Duration) *CheckoutService {
	return &CheckoutService{Store: store, Timeout: timeout}
}

// Checkout validates every line against current stock, then decrements each
// one with a conditional update, in submitted order. A failure while
// decrementing aborts the remaining lines; lines already decremented are not
// restored. Typed errors (*InputError, *NotFoundError,
// *InsufficientStockError, *ConflictError) are the client's problem; anything
// else is an infrastructure failure.
func (s *CheckoutService) Checkout(ctx context.Context, lines []domain.CartLine) ([]domain.Variant, error) {
	if len(lines) == 0 {
		return nil, inputErr("no valid products received for the purchase")
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, inputErr("product %d (id %d): quantity must be a positive integer", i+1, l.VariantID)
		}
	}

	// read-only pass
	for _, l := range lines {
		p, err := s.productByVariant(ctx, l.VariantID)
		if errors.Is(err, repos.ErrNotFound) {
			return nil, &NotFoundError{VariantID: l.VariantID}
		}
		if err != nil {
			return nil, fmt.Errorf("checkout: lookup variant %d: %w", l.VariantID, err)
		}
		v, ok := p.Find(l.VariantID)
		if !ok {
			return nil, &NotFoundError{VariantID: l.VariantID}
		}
		if v.Stock < l.Quantity {
			return nil, &InsufficientStockError{VariantID: l.VariantID, Available: v.Stock, Requested: l.Quantity}
		}
	}

	// commit pass
	updated := make([]domain.Variant, 0, len(lines))
	for i, l := range lines {
		v, err := s.decrement(ctx, l.VariantID, l.Quantity)
		if errors.Is(err, repos.ErrNoMatch) {
			return updated, &ConflictError{VariantID: l.VariantID, Applied: i}
		}
		if err != nil {
			return updated, fmt.Errorf("checkout: decrement variant %d: %w", l.VariantID, err)
		}
		updated = append(updated, v)
	}
	return updated, nil
}

func (s *CheckoutService) productByVariant(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Store.ProductByVariant(ctx, id)
}

func (s *CheckoutService) decrement(ctx context.Context, id int64, qty int) (domain.Variant, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Store.DecrementStock(ctx, id, qty)
}
