package storage

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"product_advisor/internal/logger"
	"product_advisor/pkg"

	"github.com/bytedance/sonic"
)

//go:embed seed_catalog.json
var seedCatalog []byte

// CatalogWriter is the write side used by seeding
type CatalogWriter interface {
	Insert(ctx context.Context, products ...pkg.ProductRecord) error
	Count(ctx context.Context) (int, error)
}

// SeedProducts returns the built-in sample catalog
func SeedProducts() ([]pkg.ProductRecord, error) {
	return decodeProducts(seedCatalog)
}

// LoadProducts reads a JSON array of products from path
func LoadProducts(path string) ([]pkg.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return decodeProducts(data)
}

// ExportProducts writes products to path as indented JSON
func ExportProducts(path string, products []pkg.ProductRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	if products == nil {
		products = []pkg.ProductRecord{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Seed inserts products into an empty catalog. It returns the number inserted;
// a catalog that already holds rows is left untouched.
func Seed(ctx context.Context, catalog CatalogWriter, products []pkg.ProductRecord) (int, error) {
	count, err := catalog.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info().Int("existing", count).Msg("Catalog already seeded")
		return 0, nil
	}

	if err := catalog.Insert(ctx, products...); err != nil {
		return 0, err
	}

	logger.Info().Int("products", len(products)).Msg("Catalog seeded")
	return len(products), nil
}

func decodeProducts(data []byte) ([]pkg.ProductRecord, error) {
	var products []pkg.ProductRecord
	if err := sonic.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return products, nil
}
