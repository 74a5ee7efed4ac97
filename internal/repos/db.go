package repos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNoMatch is returned by DecrementStock when no variant with the id
	// currently holds enough stock. Unknown ids and short stock look the same.
	ErrNoMatch  = errors.New("no matching variant with sufficient stock")
	ErrConflict = errors.New("already exists")
)

// OpenDB connects with the given driver ("sqlite" or "pgx") and makes sure the
// schema exists.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	if driver != "sqlite" && driver != "pgx" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// sqlite has a single writer, and every extra connection to :memory:
		// would open a fresh, empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "pgx" {
		schema = postgresSchema
	}
	_, err := db.Exec(schema)
	return err
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  image TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_nocase ON products(LOWER(name));

-- variant ids are assigned by the catalog, unique across all products
CREATE TABLE IF NOT EXISTS variants(
  id INTEGER PRIMARY KEY,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  position INTEGER NOT NULL DEFAULT 0,
  price REAL NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL CHECK (stock >= 0),
  image TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id, position);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  image TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_nocase ON products(LOWER(name));

CREATE TABLE IF NOT EXISTS variants(
  id BIGINT PRIMARY KEY,
  product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  position INTEGER NOT NULL DEFAULT 0,
  price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL CHECK (stock >= 0),
  image TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id, position);
`

// SeedIfEmpty inserts a small demo catalog when there are no products yet.
func SeedIfEmpty(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products/variants")

	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	type seedVariant struct {
		id    int64
		price float64
		stock int
		image string
	}
	seed := []struct {
		name, image string
		variants    []seedVariant
	}{
		{"Remera Basica", "remera.jpg", []seedVariant{
			{101, 8500, 5, "remera-blanca.jpg"},
			{102, 8500, 3, "remera-negra.jpg"},
		}},
		{"Buzo Canguro", "buzo.jpg", []seedVariant{
			{201, 21000, 4, "buzo-gris.jpg"},
		}},
		{"Gorra Trucker", "gorra.jpg", []seedVariant{
			{301, 6000, 10, "gorra-azul.jpg"},
			{302, 6000, 0, "gorra-roja.jpg"},
		}},
	}
	for _, p := range seed {
		var pid int64
		if err := tx.GetContext(ctx, &pid, tx.Rebind(`INSERT INTO products(name,image,created_at) VALUES(?,?,?) RETURNING id`),
			p.name, p.image, now); err != nil {
			return err
		}
		for i, v := range p.variants {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO variants(id,product_id,position,price,stock,image) VALUES(?,?,?,?,?,?)`),
				v.id, pid, i, v.price, v.stock, v.image); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a unique/primary key violation on
// either supported driver.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// extended codes off: primary keys also report "UNIQUE constraint failed"
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}
