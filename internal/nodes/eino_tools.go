package nodes

import (
	"context"
	"fmt"
	"strings"

	"product_advisor/internal/logger"
	"product_advisor/internal/services"
	"product_advisor/pkg"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

// Catalog is the read side of the product catalog
type Catalog interface {
	All(ctx context.Context) ([]pkg.ProductRecord, error)
}

// ProductSearchInput is the argument schema of the product_search tool
type ProductSearchInput struct {
	Budget           float64 `json:"budget,omitempty" jsonschema:"description=maximum price in dollars"`
	MemorySize       int     `json:"ram,omitempty" jsonschema:"description=minimum RAM in GB"`
	StorageSize      int     `json:"storage,omitempty" jsonschema:"description=minimum storage in GB"`
	Purpose          string  `json:"purpose,omitempty" jsonschema:"description=use case such as gaming or business"`
	Category         string  `json:"category,omitempty" jsonschema:"description=product category such as laptop"`
	BrandPreference  string  `json:"brand_preference,omitempty" jsonschema:"description=preferred brand"`
	ScreenSize       string  `json:"screen_size,omitempty" jsonschema:"description=small, medium or large"`
	WeightPreference string  `json:"weight_preference,omitempty" jsonschema:"description=light, medium or heavy"`
	Upgradability    string  `json:"upgradability,omitempty" jsonschema:"description=ram, storage or both"`
}

// ProductLookupInput is the argument schema of the price_lookup tool
type ProductLookupInput struct {
	Name string `json:"name" jsonschema:"description=full or partial product name"`
}

// Record converts tool arguments into a preference record
func (in ProductSearchInput) Record() pkg.PreferenceRecord {
	var r pkg.PreferenceRecord
	if in.Budget > 0 {
		r.Budget = pkg.Float(in.Budget)
	}
	if in.MemorySize > 0 {
		r.MemorySize = pkg.Int(in.MemorySize)
	}
	if in.StorageSize > 0 {
		r.StorageSize = pkg.Int(in.StorageSize)
	}
	r.Purpose = pkg.Purpose(strings.ToLower(in.Purpose))
	r.Category = strings.TrimSpace(in.Category)
	r.BrandPreference = in.BrandPreference
	r.ScreenSize = pkg.ScreenSize(strings.ToLower(in.ScreenSize))
	r.WeightPreference = pkg.WeightClass(strings.ToLower(in.WeightPreference))
	r.Upgradability = pkg.Upgradability(strings.ToLower(in.Upgradability))
	return r
}

// ProductSearchTool creates the catalog search tool using Eino's InferTool
func ProductSearchTool(catalog Catalog, matcher *services.ProductMatcher) (tool.InvokableTool, error) {
	return utils.InferTool("product_search", "Search the product catalog by budget, specs and preferences",
		func(ctx context.Context, in ProductSearchInput) (string, error) {
			logger.Debug().Interface("input", in).Msg("Tool product_search invoked")

			products, err := catalog.All(ctx)
			if err != nil {
				return "", fmt.Errorf("catalog unavailable: %w", err)
			}

			matches := matcher.Search(in.Record(), products)
			if len(matches) == 0 {
				return "No products match these preferences.", nil
			}
			return recommendationReply(matches), nil
		})
}

// PriceLookupTool creates the price lookup tool using Eino's InferTool
func PriceLookupTool(catalog Catalog) (tool.InvokableTool, error) {
	return utils.InferTool("price_lookup", "Look up the price of a product by name",
		func(ctx context.Context, in ProductLookupInput) (string, error) {
			logger.Debug().Str("name", in.Name).Msg("Tool price_lookup invoked")

			products, err := catalog.All(ctx)
			if err != nil {
				return "", fmt.Errorf("catalog unavailable: %w", err)
			}

			for _, p := range products {
				if in.Name != "" && strings.Contains(strings.ToLower(p.Name), strings.ToLower(in.Name)) {
					return fmt.Sprintf("**%s** (%s): $%.2f", p.Name, p.Brand, p.Price), nil
				}
			}
			return fmt.Sprintf("Product '%s' not found", in.Name), nil
		})
}

// GetTools returns all catalog tools as BaseTool instances
func GetTools(catalog Catalog, matcher *services.ProductMatcher) ([]tool.BaseTool, error) {
	search, err := ProductSearchTool(catalog, matcher)
	if err != nil {
		return nil, err
	}
	lookup, err := PriceLookupTool(catalog)
	if err != nil {
		return nil, err
	}
	return []tool.BaseTool{search, lookup}, nil
}
