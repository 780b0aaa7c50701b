package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shoe() *Product {
	override := int64(12000)
	return &Product{
		ID:    "p1",
		Name:  "Air Zoom",
		Price: 10000,
		Stock: 3,
		Variants: []ProductVariant{
			{ID: "v1", Attributes: map[string]string{"color": "black", "size": "42"}, Stock: 2},
			{ID: "v2", Attributes: map[string]string{"color": "white", "size": "42"}, Price: &override, Stock: 0},
		},
	}
}

func TestFindVariant(t *testing.T) {
	p := shoe()

	v, ok := p.FindVariant(map[string]string{"size": "42", "color": "black"})
	require.True(t, ok)
	assert.Equal(t, "v1", v.ID)

	_, ok = p.FindVariant(map[string]string{"color": "black"})
	assert.False(t, ok, "partial selections do not match")

	_, ok = p.FindVariant(map[string]string{"color": "red", "size": "42"})
	assert.False(t, ok)
}

func TestFindVariantWithoutVariants(t *testing.T) {
	p := Product{ID: "p2", Price: 500, Stock: 4}

	v, ok := p.FindVariant(nil)
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = p.FindVariant(map[string]string{"size": ""})
	assert.True(t, ok, "empty selections are ignored")

	_, ok = p.FindVariant(map[string]string{"size": "M"})
	assert.False(t, ok)
}

func TestPriceAndStockFor(t *testing.T) {
	p := shoe()
	assert.Equal(t, int64(10000), p.PriceFor(nil))
	assert.Equal(t, int64(10000), p.PriceFor(&p.Variants[0]))
	assert.Equal(t, int64(12000), p.PriceFor(&p.Variants[1]))
	assert.Equal(t, 3, p.StockFor(nil))
	assert.Equal(t, 0, p.StockFor(&p.Variants[1]))
}

func TestProductCartItem(t *testing.T) {
	p := shoe()
	item := p.CartItem(&p.Variants[0], 1)

	assert.Equal(t, "p1-color=black&size=42", item.Key)
	assert.Equal(t, 2, item.Stock)
	assert.Equal(t, int64(10000), item.Price)
}

func TestProductPage_TotalPages(t *testing.T) {
	assert.Equal(t, 3, ProductPage{TotalCount: 25, Limit: 12}.TotalPages())
	assert.Equal(t, 1, ProductPage{TotalCount: 12, Limit: 12}.TotalPages())
	assert.Equal(t, 0, ProductPage{TotalCount: 0, Limit: 12}.TotalPages())
	assert.Equal(t, 0, ProductPage{TotalCount: 5}.TotalPages())
}

func TestFilterNormalized(t *testing.T) {
	f := Filter{Page: 0, Limit: 9999, Sort: "bogus"}.Normalized()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, DefaultSort, f.Sort)

	assert.Equal(t, 24, Filter{Page: 3, Limit: 12, Sort: SortNewest}.Offset())
}

func TestFilterOffset_HugePageStaysPositive(t *testing.T) {
	f := Filter{Page: 100000000000000000, Limit: MaxLimit}
	assert.Equal(t, MaxPage, f.Normalized().Page)
	assert.Equal(t, (MaxPage-1)*MaxLimit, f.Offset())
	assert.Positive(t, f.Offset())
}

func TestPriceToCents(t *testing.T) {
	assert.Equal(t, int64(1999), PriceToCents(19.99))
	assert.Equal(t, int64(1000), PriceToCents(10))
	assert.Equal(t, int64(0), PriceToCents(0))
}

func TestPriceToCents_Saturates(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), PriceToCents(1e20))
	assert.Equal(t, int64(math.MaxInt64), PriceToCents(math.MaxFloat64))
	assert.Equal(t, int64(math.MinInt64), PriceToCents(-1e20))
}
