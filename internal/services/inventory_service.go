package services

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type InventoryService struct {
	Inv     *repos.InventoryRepo
	Timeout time.Duration
}

func NewInventoryService(inv *repos.InventoryRepo, timeout time.Duration) *InventoryService {
	return &InventoryService{Inv: inv, Timeout: timeout}
}

func (s *InventoryService) ListVariants(ctx context.Context) ([]domain.Variant, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Inv.Variants(ctx)
}

// Stock reports the current counter for one variant. Unknown ids return
// repos.ErrNotFound.
func (s *InventoryService) Stock(ctx context.Context, id int64) (int, error) {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	v, err := s.Inv.Variant(ctx, id)
	if err != nil {
		return 0, err
	}
	return v.Stock, nil
}

func (s *InventoryService) SetStock(ctx context.Context, id int64, stock int) (domain.Variant, error) {
	if stock < 0 {
		return domain.Variant{}, inputErr("stock must be a non-negative integer")
	}
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Inv.SetStock(ctx, id, stock)
}

func (s *InventoryService) AddVariant(ctx context.Context, productID int64, v domain.Variant) (domain.Variant, error) {
	if msg := variantProblem(v); msg != "" {
		return domain.Variant{}, inputErr("variant: %s", msg)
	}
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Inv.AddVariant(ctx, productID, v)
}

func (s *InventoryService) DeleteVariant(ctx context.Context, id int64) error {
	ctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()
	return s.Inv.DeleteVariant(ctx, id)
}
