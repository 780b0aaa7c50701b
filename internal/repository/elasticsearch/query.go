package elasticsearch

import (
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/filter"
)

type object = map[string]any

func term(field string, value any) object {
	return object{"term": object{field: value}}
}

func terms(field string, values []string) object {
	return object{"terms": object{field: values}}
}

// maxResultWindow is the index.max_result_window default.
const maxResultWindow = 10000

// buildSearchQuery is the query DSL equivalent of the SQL listing plan.
func buildSearchQuery(f domain.Filter) object {
	f = f.Normalized()

	filters := []any{term("status", domain.ProductStatusPublished)}

	if f.CategorySlug != "" {
		filters = append(filters, object{"bool": object{
			"should": []any{
				term("category_slug", f.CategorySlug),
				term("parent_category_slug", f.CategorySlug),
			},
			"minimum_should_match": 1,
		}})
	}
	if len(f.SubcategorySlugs) > 0 {
		filters = append(filters, terms("category_slug", f.SubcategorySlugs))
	}
	if len(f.BrandSlugs) > 0 {
		filters = append(filters, terms("brand_slug", f.BrandSlugs))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		r := object{}
		if f.MinPrice != nil {
			r["gte"] = domain.PriceToCents(*f.MinPrice)
		}
		if f.MaxPrice != nil {
			r["lte"] = domain.PriceToCents(*f.MaxPrice)
		}
		filters = append(filters, object{"range": object{"price": r}})
	}
	if len(f.Tags) > 0 {
		filters = append(filters, terms("tags", f.Tags))
	}
	if f.Featured != nil {
		filters = append(filters, term("featured", *f.Featured))
	}
	for _, key := range filter.SpecKeys(f) {
		if values := f.Specs[key]; len(values) > 0 {
			filters = append(filters, terms("specs."+key, values))
		}
	}

	boolQuery := object{"filter": filters}
	if f.Search != "" {
		boolQuery["must"] = []any{object{"multi_match": object{
			"query":  f.Search,
			"fields": []string{"name^3", "name.autocomplete^2", "description", "brand_name"},
			"type":   "best_fields",
		}}}
	}

	from, size := f.Offset(), f.Limit
	if from+size > maxResultWindow {
		// Pages past the window are empty; only the total is fetched.
		from, size = 0, 0
	}

	return object{
		"query":            object{"bool": boolQuery},
		"from":             from,
		"size":             size,
		"track_total_hits": true,
		"sort":             buildSort(f.Sort),
	}
}

func buildSort(sort string) []any {
	var primary object
	switch sort {
	case domain.SortPriceAsc:
		primary = object{"price": "asc"}
	case domain.SortPriceDesc:
		primary = object{"price": "desc"}
	case domain.SortNameAsc:
		primary = object{"name.keyword": "asc"}
	case domain.SortNameDesc:
		primary = object{"name.keyword": "desc"}
	case domain.SortRatingDesc:
		primary = object{"rating": "desc"}
	default:
		primary = object{"created_at": "desc"}
	}
	return []any{primary, object{"id": "asc"}}
}
