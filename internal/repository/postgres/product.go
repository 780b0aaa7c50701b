// Package postgres reads the catalog and coupons from PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ProductRepository implements domain.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns one page of published products matching f.
func (r *ProductRepository) List(ctx context.Context, f domain.Filter) (page *domain.ProductPage, err error) {
	q := buildListQuery(f)

	ctx, end := database.TraceQuery(ctx, "products.list", q.sql)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		dest := append(productDest(&p), &totalCount)
		var specs []byte
		dest[specsColumn] = &specs

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		if err := decodeSpecs(specs, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
		// The window count is only available on non-empty pages.
		if q.offset > 0 {
			if err := r.db.QueryRow(ctx, q.countSQL, q.countArgs...).Scan(&totalCount); err != nil {
				return nil, fmt.Errorf("count products: %w", err)
			}
		}
	}

	return &domain.ProductPage{
		Items:      products,
		TotalCount: totalCount,
		Page:       f.Normalized().Page,
		Limit:      q.limit,
	}, nil
}

// GetByID returns a product with its variants.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := "SELECT" + productColumns + productJoins + "\n\tWHERE p.id = $1"

	ctx, end := database.TraceQuery(ctx, "products.get", query)
	defer func() { end(err) }()

	var (
		product domain.Product
		specs   []byte
	)
	dest := productDest(&product)
	dest[specsColumn] = &specs

	if err := r.db.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if err := decodeSpecs(specs, &product); err != nil {
		return nil, err
	}

	variants, err := r.listVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Variants = variants
	return &product, nil
}

func (r *ProductRepository) listVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sku, attributes, price, stock
		FROM product_variants
		WHERE product_id = $1
		ORDER BY sku`, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.ProductVariant
	for rows.Next() {
		var (
			v     domain.ProductVariant
			attrs []byte
		)
		if err := rows.Scan(&v.ID, &v.SKU, &attrs, &v.Price, &v.Stock); err != nil {
			return nil, fmt.Errorf("scan variant row: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal variant attributes: %w", err)
			}
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant rows: %w", err)
	}
	return variants, nil
}

// specsColumn is the position of p.specs in productColumns.
const specsColumn = 18

// productDest lists scan targets in productColumns order. The specs slot is
// a placeholder the caller replaces with a []byte.
func productDest(p *domain.Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Status, &p.Price, &p.Currency, &p.Image,
		&p.CategoryID, &p.CategorySlug, &p.ParentSlug,
		&p.BrandID, &p.BrandSlug, &p.BrandName,
		&p.Tags, &p.Featured, &p.Rating, &p.Stock, nil, &p.CreatedAt, &p.UpdatedAt,
	}
}

func decodeSpecs(data []byte, p *domain.Product) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &p.Specs); err != nil {
		return fmt.Errorf("unmarshal specs: %w", err)
	}
	return nil
}
