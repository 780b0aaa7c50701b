package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/filter"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func catalog() *ProductRepository {
	return NewProductRepository(
		domain.Product{ID: "p1", Name: "Road Shoe", Status: domain.ProductStatusPublished, Price: 9900,
			CategorySlug: "running", ParentSlug: "shoes", BrandSlug: "acme", Tags: []string{"sale"},
			Specs: map[string]string{"size": "42"}, Rating: 4.1, CreatedAt: base},
		domain.Product{ID: "p2", Name: "Trail Shoe", Status: domain.ProductStatusPublished, Price: 12900,
			CategorySlug: "trail", ParentSlug: "shoes", BrandSlug: "zen", Featured: true,
			Specs: map[string]string{"size": "43"}, Rating: 4.8, CreatedAt: base.Add(time.Hour)},
		domain.Product{ID: "p3", Name: "Rain Jacket", Status: domain.ProductStatusPublished, Price: 15900,
			CategorySlug: "jackets", BrandSlug: "acme", CreatedAt: base.Add(2 * time.Hour)},
		domain.Product{ID: "p4", Name: "Draft Shoe", Status: domain.ProductStatusDraft, Price: 100,
			CategorySlug: "running", ParentSlug: "shoes", CreatedAt: base.Add(3 * time.Hour)},
	)
}

func ids(page *domain.ProductPage) []string {
	out := make([]string, len(page.Items))
	for i, p := range page.Items {
		out[i] = p.ID
	}
	return out
}

func TestProductRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := catalog()
	minPrice, maxPrice := 100.0, 130.0
	featured := true

	tests := []struct {
		name string
		f    domain.Filter
		want []string
	}{
		{name: "defaults newest first, drafts hidden", f: domain.Filter{}, want: []string{"p3", "p2", "p1"}},
		{name: "parent category", f: domain.Filter{CategorySlug: "shoes"}, want: []string{"p2", "p1"}},
		{name: "subcategory", f: domain.Filter{SubcategorySlugs: []string{"trail"}}, want: []string{"p2"}},
		{name: "brand", f: domain.Filter{BrandSlugs: []string{"acme"}, Sort: domain.SortPriceAsc}, want: []string{"p1", "p3"}},
		{name: "price range", f: domain.Filter{MinPrice: &minPrice, MaxPrice: &maxPrice}, want: []string{"p2"}},
		{name: "search", f: domain.Filter{Search: "SHOE", Sort: domain.SortNameDesc}, want: []string{"p2", "p1"}},
		{name: "tags", f: domain.Filter{Tags: []string{"sale", "new"}}, want: []string{"p1"}},
		{name: "featured", f: domain.Filter{Featured: &featured}, want: []string{"p2"}},
		{name: "specs", f: domain.Filter{Specs: map[string][]string{"size": {"42", "44"}}}, want: []string{"p1"}},
		{name: "rating", f: domain.Filter{Sort: domain.SortRatingDesc}, want: []string{"p2", "p1", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, len(tt.want), page.TotalCount)
		})
	}
}

func TestProductRepository_Paging(t *testing.T) {
	page, err := catalog().List(context.Background(), domain.Filter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(page))
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages())

	page, err = catalog().List(context.Background(), domain.Filter{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestProductRepository_HugePage(t *testing.T) {
	f := filter.ParseQuery("page=100000000000000000&limit=100")

	page, err := catalog().List(context.Background(), f)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, domain.MaxPage, page.Page)
}

func TestProductRepository_HugePriceBounds(t *testing.T) {
	page, err := catalog().List(context.Background(), filter.ParseQuery("minPrice=1e20"))
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = catalog().List(context.Background(), filter.ParseQuery("maxPrice=1e20"))
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
}

func TestProductRepository_IndexAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository()

	require.NoError(t, repo.Index(ctx, &domain.Product{ID: "x", Name: "X"}))
	p, err := repo.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "X", p.Name)

	require.NoError(t, repo.Delete(ctx, "x"))
	_, err = repo.GetByID(ctx, "x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoadProducts(t *testing.T) {
	repo, err := LoadProducts(strings.NewReader(`[{"id":"p1","name":"Mug","status":"published","price":1200,"stock":3}]`))
	require.NoError(t, err)

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	_, err = LoadProducts(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestCouponRepository(t *testing.T) {
	repo := NewCouponRepository(domain.Coupon{Code: "Summer-10", Type: domain.CouponTypePercentage})

	c, err := repo.GetByCode(context.Background(), " summer-10")
	require.NoError(t, err)
	assert.Equal(t, "Summer-10", c.Code)

	_, err = repo.GetByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
