// Package memory is an in-process catalog used by storectl and tests. Its
// listing semantics match the SQL and search backends.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ProductRepository holds products in a map. It implements
// domain.ProductRepository and domain.ProductIndexer.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductRepository creates a catalog holding products.
func NewProductRepository(products ...domain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// LoadProducts reads a JSON array of products.
func LoadProducts(rd io.Reader) (*ProductRepository, error) {
	var products []domain.Product
	if err := json.NewDecoder(rd).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewProductRepository(products...), nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (r *ProductRepository) List(_ context.Context, f domain.Filter) (*domain.ProductPage, error) {
	f = f.Normalized()

	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(f, &p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return less(f.Sort, &matched[i], &matched[j]) })

	total := len(matched)
	start := min(max(f.Offset(), 0), total)
	end := min(start+f.Limit, total)

	return &domain.ProductPage{
		Items:      matched[start:end],
		TotalCount: total,
		Page:       f.Page,
		Limit:      f.Limit,
	}, nil
}

func (r *ProductRepository) Index(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	r.products[p.ID] = *p
	r.mu.Unlock()
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.products, id)
	r.mu.Unlock()
	return nil
}

func matches(f domain.Filter, p *domain.Product) bool {
	if !p.IsPublished() {
		return false
	}
	if f.CategorySlug != "" && p.CategorySlug != f.CategorySlug && p.ParentSlug != f.CategorySlug {
		return false
	}
	if len(f.SubcategorySlugs) > 0 && !contains(f.SubcategorySlugs, p.CategorySlug) {
		return false
	}
	if len(f.BrandSlugs) > 0 && !contains(f.BrandSlugs, p.BrandSlug) {
		return false
	}
	if f.MinPrice != nil && p.Price < domain.PriceToCents(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price > domain.PriceToCents(*f.MaxPrice) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if len(f.Tags) > 0 && !overlaps(f.Tags, p.Tags) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	for key, values := range f.Specs {
		if len(values) == 0 {
			continue
		}
		v, ok := p.Specs[key]
		if !ok || !contains(values, v) {
			return false
		}
	}
	return true
}

func less(sortKey string, a, b *domain.Product) bool {
	switch sortKey {
	case domain.SortPriceAsc:
		if a.Price != b.Price {
			return a.Price < b.Price
		}
	case domain.SortPriceDesc:
		if a.Price != b.Price {
			return a.Price > b.Price
		}
	case domain.SortNameAsc:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	case domain.SortNameDesc:
		if a.Name != b.Name {
			return a.Name > b.Name
		}
	case domain.SortRatingDesc:
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, s := range a {
		if contains(b, s) {
			return true
		}
	}
	return false
}
