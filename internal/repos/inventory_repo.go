package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

// InventoryRepo owns variant rows and their stock counters.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Variants returns every variant of the catalog, flattened.
func (r *InventoryRepo) Variants(ctx context.Context) ([]domain.Variant, error) {
	out := []domain.Variant{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+variantCols+` FROM variants ORDER BY id`)
	return out, err
}

func (r *InventoryRepo) Variant(ctx context.Context, id int64) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.GetContext(ctx, &v, r.db.Rebind(`SELECT `+variantCols+` FROM variants WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, ErrNotFound
	}
	return v, err
}

// ProductByVariant returns the product owning the variant, with all of its
// variants loaded.
func (r *InventoryRepo) ProductByVariant(ctx context.Context, variantID int64) (domain.Product, error) {
	var pid int64
	err := r.db.GetContext(ctx, &pid, r.db.Rebind(`SELECT product_id FROM variants WHERE id = ?`), variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return getProduct(ctx, r.db, pid)
}

// AddVariant appends a variant to the product. The id must be new to the
// whole catalog.
func (r *InventoryRepo) AddVariant(ctx context.Context, productID int64, v domain.Variant) (domain.Variant, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Variant{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM products WHERE id = ?`), productID); err != nil {
		return domain.Variant{}, err
	}
	if exists == 0 {
		return domain.Variant{}, ErrNotFound
	}
	if err := tx.GetContext(ctx, &v.Position, tx.Rebind(`SELECT COALESCE(MAX(position)+1, 0) FROM variants WHERE product_id = ?`), productID); err != nil {
		return domain.Variant{}, err
	}
	v.ProductID = productID
	if err := insertVariant(ctx, tx, v); err != nil {
		return domain.Variant{}, err
	}
	return v, tx.Commit()
}

// SetStock overwrites the stock counter (catalog management, not checkout).
func (r *InventoryRepo) SetStock(ctx context.Context, id int64, stock int) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.GetContext(ctx, &v, r.db.Rebind(`UPDATE variants SET stock = ? WHERE id = ? RETURNING `+variantCols), stock, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, ErrNotFound
	}
	return v, err
}

func (r *InventoryRepo) DeleteVariant(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM variants WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty in a single conditional statement: the row is
// only touched while stock >= qty, so concurrent callers can never drive it
// negative. ErrNoMatch means the variant is unknown or short on stock.
func (r *InventoryRepo) DecrementStock(ctx context.Context, id int64, qty int) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.GetContext(ctx, &v, r.db.Rebind(`
		UPDATE variants
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
		RETURNING `+variantCols), qty, id, qty)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, ErrNoMatch
	}
	return v, err
}
