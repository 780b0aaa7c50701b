package postgres

import (
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/filter"
)

const productColumns = `
	p.id, p.name, p.slug, p.description, p.status, p.price, p.currency, p.image,
	COALESCE(p.category_id, ''), COALESCE(c.slug, ''), COALESCE(pc.slug, ''),
	COALESCE(p.brand_id, ''), COALESCE(b.slug, ''), COALESCE(b.name, ''),
	p.tags, p.featured, p.rating, p.stock, p.specs, p.created_at, p.updated_at`

const productJoins = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN categories pc ON pc.id = c.parent_id
	LEFT JOIN brands b ON b.id = p.brand_id`

var orderBy = map[string]string{
	domain.SortNewest:     "p.created_at DESC",
	domain.SortPriceAsc:   "p.price ASC",
	domain.SortPriceDesc:  "p.price DESC",
	domain.SortNameAsc:    "p.name ASC",
	domain.SortNameDesc:   "p.name DESC",
	domain.SortRatingDesc: "p.rating DESC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// listQuery is the SQL plan for one listing page. countSQL/countArgs count
// the full result set without paging.
type listQuery struct {
	sql       string
	args      []any
	countSQL  string
	countArgs []any
	limit     int
	offset    int
}

// buildListQuery turns a filter into SQL. Every value is a bind parameter;
// only the ORDER BY clause is chosen from a fixed map.
func buildListQuery(f domain.Filter) listQuery {
	f = f.Normalized()

	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, "p.status = "+arg(domain.ProductStatusPublished))

	if f.CategorySlug != "" {
		n := arg(f.CategorySlug)
		conditions = append(conditions, fmt.Sprintf("(c.slug = %s OR pc.slug = %s)", n, n))
	}
	if len(f.SubcategorySlugs) > 0 {
		conditions = append(conditions, "c.slug = ANY("+arg(f.SubcategorySlugs)+")")
	}
	if len(f.BrandSlugs) > 0 {
		conditions = append(conditions, "b.slug = ANY("+arg(f.BrandSlugs)+")")
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "p.price >= "+arg(domain.PriceToCents(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "p.price <= "+arg(domain.PriceToCents(*f.MaxPrice)))
	}
	if f.Search != "" {
		n := arg("%" + likeEscaper.Replace(f.Search) + "%")
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", n, n))
	}
	if len(f.Tags) > 0 {
		conditions = append(conditions, "p.tags && "+arg(f.Tags))
	}
	if f.Featured != nil {
		conditions = append(conditions, "p.featured = "+arg(*f.Featured))
	}
	for _, key := range filter.SpecKeys(f) {
		values := f.Specs[key]
		if len(values) == 0 {
			continue
		}
		k := arg(key)
		conditions = append(conditions, fmt.Sprintf("p.specs ->> %s = ANY(%s)", k, arg(values)))
	}

	where := "WHERE " + strings.Join(conditions, " AND ")
	countArgs := append([]any(nil), args...)

	q := listQuery{
		countSQL:  "SELECT count(*)" + productJoins + "\n\t" + where,
		countArgs: countArgs,
		limit:     f.Limit,
		offset:    f.Offset(),
	}

	limit := arg(q.limit)
	offset := arg(q.offset)
	q.sql = fmt.Sprintf("SELECT%s,\n\tcount(*) OVER() AS total_count%s\n\t%s\n\tORDER BY %s, p.id ASC\n\tLIMIT %s OFFSET %s",
		productColumns, productJoins, where, orderBy[f.Sort], limit, offset)
	q.args = args
	return q
}
