package nodes

import (
	"context"
	"errors"
	"testing"

	"product_advisor/internal/services"
	"product_advisor/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	products []pkg.ProductRecord
	err      error
}

func (s staticCatalog) All(context.Context) ([]pkg.ProductRecord, error) {
	return s.products, s.err
}

func toolCatalog() staticCatalog {
	return staticCatalog{products: []pkg.ProductRecord{
		{ID: 1, Name: "Nitro 15", Category: "laptop", Price: 999, UseCase: "Gaming", Brand: "Acer"},
		{ID: 2, Name: "Swift 13", Category: "laptop", Price: 899, UseCase: "Business", Brand: "Acer"},
		{ID: 3, Name: "Smart Speaker", Category: "Audio", Price: 89.99, UseCase: "Home", Brand: "Sonos"},
	}}
}

func TestEinoTools(t *testing.T) {
	tools, err := GetTools(toolCatalog(), services.NewProductMatcher())
	require.NoError(t, err)
	require.Len(t, tools, 2)

	var toolNames []string
	for _, tl := range tools {
		info, err := tl.Info(context.Background())
		require.NoError(t, err)
		toolNames = append(toolNames, info.Name)
	}
	assert.Equal(t, []string{"product_search", "price_lookup"}, toolNames)
}

func TestProductSearchTool(t *testing.T) {
	ctx := context.Background()
	search, err := ProductSearchTool(toolCatalog(), services.NewProductMatcher())
	require.NoError(t, err)

	out, err := search.InvokableRun(ctx, `{"budget": 1000, "purpose": "gaming"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Nitro 15")
	assert.NotContains(t, out, "Swift 13")

	out, err = search.InvokableRun(ctx, `{"budget": 100, "category": "laptop"}`)
	require.NoError(t, err)
	assert.Equal(t, "No products match these preferences.", out)

	out, err = search.InvokableRun(ctx, `{"budget": 100, "category": "Audio"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Smart Speaker")
	assert.NotContains(t, out, "Nitro 15")

	broken, err := ProductSearchTool(staticCatalog{err: errors.New("down")}, services.NewProductMatcher())
	require.NoError(t, err)
	_, err = broken.InvokableRun(ctx, `{}`)
	assert.Error(t, err)
}

func TestPriceLookupTool(t *testing.T) {
	lookup, err := PriceLookupTool(toolCatalog())
	require.NoError(t, err)

	out, err := lookup.InvokableRun(context.Background(), `{"name": "swift"}`)
	require.NoError(t, err)
	assert.Equal(t, "**Swift 13** (Acer): $899.00", out)

	out, err = lookup.InvokableRun(context.Background(), `{"name": "zenbook"}`)
	require.NoError(t, err)
	assert.Equal(t, "Product 'zenbook' not found", out)
}
