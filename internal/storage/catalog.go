package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"product_advisor/pkg"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest catalog schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

const productColumns = `id, name, category, price, ram, storage, weight, screen_size, processor, graphics,
	battery_life, use_case, upgradable_ram, upgradable_storage, description, brand, image_url`

// SQLiteCatalog is the product catalog backed by SQLite
type SQLiteCatalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path
func OpenCatalog(path string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	// Pragmas in the connection string apply to all connections
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteCatalog{db: db}, nil
}

// migrate applies schema migrations based on user_version
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: products table
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS products (
		  id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		  name               TEXT NOT NULL,
		  category           TEXT NOT NULL DEFAULT '',
		  price              REAL NOT NULL,
		  ram                INTEGER,
		  storage            INTEGER,
		  weight             REAL,
		  screen_size        REAL,
		  processor          TEXT,
		  graphics           TEXT,
		  battery_life       INTEGER,
		  use_case           TEXT,
		  upgradable_ram     INTEGER NOT NULL DEFAULT 0,
		  upgradable_storage INTEGER NOT NULL DEFAULT 0,
		  description        TEXT,
		  brand              TEXT,
		  image_url          TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
		CREATE INDEX IF NOT EXISTS idx_products_price ON products(price);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// All returns every product in insertion order
func (c *SQLiteCatalog) All(ctx context.Context) ([]pkg.ProductRecord, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []pkg.ProductRecord
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Insert adds products in one transaction; IDs are assigned by the database
func (c *SQLiteCatalog) Insert(ctx context.Context, products ...pkg.ProductRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO products (
		name, category, price, ram, storage, weight, screen_size, processor, graphics,
		battery_life, use_case, upgradable_ram, upgradable_storage, description, brand, image_url
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		_, err := stmt.ExecContext(ctx,
			p.Name, p.Category, p.Price,
			nullInt(p.MemorySize), nullInt(p.StorageSize), nullFloat(p.Weight), nullFloat(p.ScreenSize),
			p.Processor, p.Graphics, nullInt(p.BatteryLife), p.UseCase,
			p.UpgradableMemory, p.UpgradableStorage, p.Description, p.Brand, p.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

// Count returns the number of products
func (c *SQLiteCatalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Close closes the database
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func scanProduct(rows *sql.Rows) (pkg.ProductRecord, error) {
	var (
		p                            pkg.ProductRecord
		ram, storage, battery        sql.NullInt64
		weight, screen               sql.NullFloat64
		processor, graphics, useCase sql.NullString
		description, brand, imageURL sql.NullString
	)

	err := rows.Scan(
		&p.ID, &p.Name, &p.Category, &p.Price,
		&ram, &storage, &weight, &screen,
		&processor, &graphics, &battery, &useCase,
		&p.UpgradableMemory, &p.UpgradableStorage, &description, &brand, &imageURL,
	)
	if err != nil {
		return p, fmt.Errorf("failed to scan product: %w", err)
	}

	p.MemorySize = intPtr(ram)
	p.StorageSize = intPtr(storage)
	p.BatteryLife = intPtr(battery)
	p.Weight = floatPtr(weight)
	p.ScreenSize = floatPtr(screen)
	p.Processor = processor.String
	p.Graphics = graphics.String
	p.UseCase = useCase.String
	p.Description = description.String
	p.Brand = brand.String
	p.ImageURL = imageURL.String
	return p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
