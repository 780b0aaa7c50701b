package domain

import "math"

// Sort keys accepted by the catalog listing.
const (
	SortNewest     = "newest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortNameAsc    = "name_asc"
	SortNameDesc   = "name_desc"
	SortRatingDesc = "rating_desc"
)

// Listing defaults.
const (
	DefaultSort  = SortNewest
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// MaxPage keeps (page-1)*limit within a 32-bit int.
const MaxPage = math.MaxInt32 / MaxLimit

// ValidSorts returns the accepted sort keys.
func ValidSorts() []string {
	return []string{SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortRatingDesc}
}

// IsValidSort reports whether s is an accepted sort key.
func IsValidSort(s string) bool {
	for _, v := range ValidSorts() {
		if v == s {
			return true
		}
	}
	return false
}

// Filter describes one catalog listing query. Prices are in major units as
// they appear in URLs; nil pointers mean "no constraint".
type Filter struct {
	CategorySlug     string              `json:"category,omitempty"`
	SubcategorySlugs []string            `json:"subcategories,omitempty"`
	BrandSlugs       []string            `json:"brands,omitempty"`
	MinPrice         *float64            `json:"min_price,omitempty"`
	MaxPrice         *float64            `json:"max_price,omitempty"`
	Search           string              `json:"search,omitempty"`
	Sort             string              `json:"sort"`
	Page             int                 `json:"page"`
	Limit            int                 `json:"limit"`
	Tags             []string            `json:"tags,omitempty"`
	Featured         *bool               `json:"featured,omitempty"`
	Specs            map[string][]string `json:"specs,omitempty"`
}

// DefaultFilter returns a filter with every default applied.
func DefaultFilter() Filter {
	return Filter{Sort: DefaultSort, Page: DefaultPage, Limit: DefaultLimit}
}

// Normalized returns f with page, limit and sort forced into range.
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if !IsValidSort(f.Sort) {
		f.Sort = DefaultSort
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f Filter) Offset() int {
	n := f.Normalized()
	return (n.Page - 1) * n.Limit
}

// PriceToCents converts a major-unit bound to cents, rounding to nearest.
// Bounds beyond the int64 range saturate.
func PriceToCents(v float64) int64 {
	c := v * 100
	switch {
	case math.IsNaN(c):
		return 0
	case c >= math.MaxInt64:
		return math.MaxInt64
	case c <= math.MinInt64:
		return math.MinInt64
	case c < 0:
		return int64(c - 0.5)
	}
	return int64(c + 0.5)
}
