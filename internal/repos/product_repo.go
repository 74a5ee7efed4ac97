package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, image, created_at, updated_at`
const variantCols = `id, product_id, position, price, stock, image`

// List returns every product with its variants, ordered by name.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY LOWER(name)`); err != nil {
		return nil, err
	}
	var vs []domain.Variant
	if err := r.db.SelectContext(ctx, &vs, `SELECT `+variantCols+` FROM variants ORDER BY product_id, position, id`); err != nil {
		return nil, err
	}
	byProduct := make(map[int64][]domain.Variant, len(out))
	for _, v := range vs {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range out {
		out[i].Variants = nonNil(byProduct[out[i].ID])
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

// Create inserts the product and its variants in one transaction. Variant
// ids must not exist anywhere in the catalog yet.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := tx.GetContext(ctx, &p.ID, tx.Rebind(`INSERT INTO products(name,image,created_at) VALUES(?,?,?) RETURNING id`),
		p.Name, p.Image, p.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, fmt.Errorf("product %q: %w", p.Name, ErrConflict)
		}
		return domain.Product{}, err
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		v.ProductID = p.ID
		v.Position = i
		if err := insertVariant(ctx, tx, *v); err != nil {
			return domain.Product{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	p.Variants = nonNil(p.Variants)
	return p, nil
}

func (r *ProductRepo) Rename(ctx context.Context, id int64, name string) (domain.Product, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET name = ?, updated_at = ? WHERE id = ?`),
		name, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, fmt.Errorf("product %q: %w", name, ErrConflict)
		}
		return domain.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// SetImage stores the new image reference and returns the previous one.
func (r *ProductRepo) SetImage(ctx context.Context, id int64, image string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var old string
	if err := tx.GetContext(ctx, &old, tx.Rebind(`SELECT image FROM products WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE products SET image = ?, updated_at = ? WHERE id = ?`),
		image, time.Now().UTC().Format(time.RFC3339), id); err != nil {
		return "", err
	}
	return old, tx.Commit()
}

// Delete removes the product and its variants and returns what was deleted.
func (r *ProductRepo) Delete(ctx context.Context, id int64) (domain.Product, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	p, err := getProduct(ctx, tx, id)
	if err != nil {
		return domain.Product{}, err
	}
	// explicit so it does not depend on the foreign_keys pragma
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM variants WHERE product_id = ?`), id); err != nil {
		return domain.Product{}, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM products WHERE id = ?`), id); err != nil {
		return domain.Product{}, err
	}
	return p, tx.Commit()
}

type queryer interface {
	sqlx.QueryerContext
	Rebind(string) string
}

func getProduct(ctx context.Context, q queryer, id int64) (domain.Product, error) {
	var p domain.Product
	if err := sqlx.GetContext(ctx, q, &p, q.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, err
	}
	vs, err := variantsOf(ctx, q, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Variants = vs
	return p, nil
}

func variantsOf(ctx context.Context, q queryer, productID int64) ([]domain.Variant, error) {
	vs := []domain.Variant{}
	err := sqlx.SelectContext(ctx, q, &vs, q.Rebind(`SELECT `+variantCols+` FROM variants WHERE product_id = ? ORDER BY position, id`), productID)
	return vs, err
}

func insertVariant(ctx context.Context, tx *sqlx.Tx, v domain.Variant) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO variants(id,product_id,position,price,stock,image) VALUES(?,?,?,?,?,?)`),
		v.ID, v.ProductID, v.Position, v.Price, v.Stock, v.Image)
	if isUniqueViolation(err) {
		return fmt.Errorf("variant %d: %w", v.ID, ErrConflict)
	}
	return err
}

func nonNil(vs []domain.Variant) []domain.Variant {
	if vs == nil {
		return []domain.Variant{}
	}
	return vs
}
