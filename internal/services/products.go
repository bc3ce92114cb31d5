package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"product_advisor/pkg"
)

// MaxResults caps how many products a search returns
const MaxResults = 5

// Filter keeps a product when it returns true
type Filter func(p pkg.ProductRecord) bool

// ProductMatcher turns a preference record into an ordered shortlist
type ProductMatcher struct {
	limit int
}

// NewProductMatcher creates a matcher returning at most MaxResults products
func NewProductMatcher() *ProductMatcher {
	return &ProductMatcher{limit: MaxResults}
}

// Search applies every filter whose slot is set, orders by ascending price
// (catalog order breaks ties) and truncates to the limit.
func (m *ProductMatcher) Search(record pkg.PreferenceRecord, catalog []pkg.ProductRecord) []pkg.ProductRecord {
	return m.SearchWith(Filters(record), catalog)
}

// SearchWith runs an explicit filter list, the filters are conjunctive
func (m *ProductMatcher) SearchWith(filters []Filter, catalog []pkg.ProductRecord) []pkg.ProductRecord {
	results := make([]pkg.ProductRecord, 0, len(catalog))
	for _, product := range catalog {
		if matchesAll(filters, product) {
			results = append(results, product)
		}
	}

	slices.SortStableFunc(results, func(a, b pkg.ProductRecord) int {
		return cmp.Compare(a.Price, b.Price)
	})

	if len(results) > m.limit {
		results = results[:m.limit]
	}
	return results
}

func matchesAll(filters []Filter, product pkg.ProductRecord) bool {
	for _, keep := range filters {
		if !keep(product) {
			return false
		}
	}
	return true
}

// Filters builds the predicates for the set slots of record
func Filters(record pkg.PreferenceRecord) []Filter {
	var filters []Filter

	if record.Budget != nil {
		budget := *record.Budget
		filters = append(filters, func(p pkg.ProductRecord) bool { return p.Price <= budget })
	}

	if record.MemorySize != nil {
		need := *record.MemorySize
		filters = append(filters, func(p pkg.ProductRecord) bool {
			return p.MemorySize != nil && *p.MemorySize >= need
		})
	}

	if record.StorageSize != nil {
		need := *record.StorageSize
		filters = append(filters, func(p pkg.ProductRecord) bool {
			return p.StorageSize != nil && *p.StorageSize >= need
		})
	}

	if record.Purpose != "" {
		purpose := string(record.Purpose)
		filters = append(filters, func(p pkg.ProductRecord) bool { return containsFold(p.UseCase, purpose) })
	}

	if record.Category != "" {
		category := record.Category
		filters = append(filters, func(p pkg.ProductRecord) bool { return p.Category == category })
	}

	if record.BrandPreference != "" {
		brand := record.BrandPreference
		filters = append(filters, func(p pkg.ProductRecord) bool { return containsFold(p.Brand, brand) })
	}

	if lo, hi, ok := weightRange(record.WeightPreference); ok {
		filters = append(filters, func(p pkg.ProductRecord) bool { return within(p.Weight, lo, hi) })
	}

	if lo, hi, ok := screenRange(record.ScreenSize); ok {
		filters = append(filters, func(p pkg.ProductRecord) bool { return within(p.ScreenSize, lo, hi) })
	}

	if record.Upgradability != "" {
		wanted := strings.ToLower(string(record.Upgradability))
		if wanted == string(pkg.UpgradeBoth) {
			wanted = "ram storage"
		}
		if strings.Contains(wanted, "ram") {
			filters = append(filters, func(p pkg.ProductRecord) bool { return p.UpgradableMemory })
		}
		if strings.Contains(wanted, "storage") {
			filters = append(filters, func(p pkg.ProductRecord) bool { return p.UpgradableStorage })
		}
	}

	return filters
}

// Bucket edges are inclusive; a negative bound means open-ended.
// The medium screen bucket leaves (13,14) and (15,16) uncovered.
func weightRange(w pkg.WeightClass) (lo, hi float64, ok bool) {
	switch w {
	case pkg.WeightLight:
		return -1, 1.5, true
	case pkg.WeightMedium:
		return 1.5, 2.5, true
	case pkg.WeightHeavy:
		return 2.5, -1, true
	}
	return 0, 0, false
}

func screenRange(s pkg.ScreenSize) (lo, hi float64, ok bool) {
	switch s {
	case pkg.ScreenSmall:
		return -1, 13, true
	case pkg.ScreenMedium:
		return 14, 15, true
	case pkg.ScreenLarge:
		return 16, -1, true
	}
	return 0, 0, false
}

func within(v *float64, lo, hi float64) bool {
	if v == nil {
		return false
	}
	if lo >= 0 && *v < lo {
		return false
	}
	if hi >= 0 && *v > hi {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ProductService is an in-memory catalog, used for development and tests
type ProductService struct {
	mu       sync.RWMutex
	products []pkg.ProductRecord
}

// NewProductService creates a catalog holding a copy of products in insertion order
func NewProductService(products []pkg.ProductRecord) *ProductService {
	return &ProductService{products: slices.Clone(products)}
}

// All returns the catalog in insertion order
func (ps *ProductService) All(ctx context.Context) ([]pkg.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return slices.Clone(ps.products), nil
}

// Insert appends products, assigning ids to those without one
func (ps *ProductService) Insert(ctx context.Context, products ...pkg.ProductRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	next := int64(len(ps.products)) + 1
	for _, p := range products {
		if p.ID == 0 {
			p.ID = next
		}
		next++
		ps.products = append(ps.products, p)
	}
	return nil
}

// Count returns the number of products held
func (ps *ProductService) Count(ctx context.Context) (int, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.products), nil
}
