package domain

import (
	"context"
	"time"
)

// Product status constants.
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Product is a catalog entry as the storefront sees it. Price is the base
// price in cents; variants may override price and carry their own stock.
type Product struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	Status       string            `json:"status"`
	Price        int64             `json:"price"`
	Currency     string            `json:"currency"`
	Image        string            `json:"image,omitempty"`
	CategoryID   string            `json:"category_id,omitempty"`
	CategorySlug string            `json:"category_slug,omitempty"`
	ParentSlug   string            `json:"parent_category_slug,omitempty"`
	BrandID      string            `json:"brand_id,omitempty"`
	BrandSlug    string            `json:"brand_slug,omitempty"`
	BrandName    string            `json:"brand_name,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Featured     bool              `json:"featured"`
	Rating       float64           `json:"rating"`
	Stock        int               `json:"stock"`
	Specs        map[string]string `json:"specs,omitempty"`
	Variants     []ProductVariant  `json:"variants,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ProductVariant is one purchasable combination of attributes.
type ProductVariant struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Attributes map[string]string `json:"attributes"`
	Price      *int64            `json:"price,omitempty"`
	Stock      int               `json:"stock"`
}

// IsPublished reports whether the product is visible in the storefront.
func (p *Product) IsPublished() bool {
	return p.Status == ProductStatusPublished
}

// FindVariant returns the variant whose attributes equal selection exactly,
// ignoring empty selections. A product without variants matches only an
// empty selection.
func (p *Product) FindVariant(selection map[string]string) (*ProductVariant, bool) {
	sel := NormalizeVariants(selection)
	if len(p.Variants) == 0 {
		return nil, len(sel) == 0
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if sameAttributes(v.Attributes, sel) {
			return v, true
		}
	}
	return nil, false
}

func sameAttributes(attrs, sel map[string]string) bool {
	attrs = NormalizeVariants(attrs)
	if len(attrs) != len(sel) {
		return false
	}
	for k, v := range sel {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// PriceFor returns the unit price of v, or the base price when v is nil or
// does not override it.
func (p *Product) PriceFor(v *ProductVariant) int64 {
	if v != nil && v.Price != nil {
		return *v.Price
	}
	return p.Price
}

// StockFor returns the stock ceiling of v, or of the product when v is nil.
func (p *Product) StockFor(v *ProductVariant) int {
	if v != nil {
		return v.Stock
	}
	return p.Stock
}

// ListItem returns the saved-list reference for p.
func (p *Product) ListItem() ListItem {
	return ListItem{
		ProductID:  p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		Price:      p.Price,
		Image:      p.Image,
		CategoryID: p.CategoryID,
	}
}

// CartItem builds a cart line for quantity units of v (nil for the base
// product), snapshotting price and stock from the catalog.
func (p *Product) CartItem(v *ProductVariant, quantity int) CartItem {
	item := CartItem{
		ProductID:  p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		Price:      p.PriceFor(v),
		Image:      p.Image,
		Quantity:   quantity,
		Stock:      p.StockFor(v),
		CategoryID: p.CategoryID,
	}
	if v != nil {
		item.Variants = NormalizeVariants(v.Attributes)
	}
	item.Key = CartKey(item.ProductID, item.Variants)
	return item
}

// ProductPage is one page of a filtered listing.
type ProductPage struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}

// TotalPages derives the page count from TotalCount and Limit.
func (p ProductPage) TotalPages() int {
	if p.Limit <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + p.Limit - 1) / p.Limit
}

// ProductRepository reads the catalog.
type ProductRepository interface {
	// List returns the published products matching f, one page at a time.
	List(ctx context.Context, f Filter) (*ProductPage, error)

	// GetByID returns a product by id, or an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id string) (*Product, error)
}

// ProductIndexer keeps a search index in sync with the catalog.
type ProductIndexer interface {
	Index(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
