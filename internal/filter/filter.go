package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

// Parse builds a filter from query parameters. Invalid values fall back to
// defaults; nothing here fails. An inverted price range is kept as given.
func Parse(values url.Values) domain.Filter {
	f := domain.DefaultFilter()

	for _, fd := range schema {
		for _, key := range fd.keys {
			raw := strings.TrimSpace(values.Get(key))
			if raw == "" {
				continue
			}
			fd.apply(&f, raw)
			break
		}
	}

	for key, vals := range values {
		if !isSpecKey(key) {
			continue
		}
		list, ok := parseList(strings.Join(vals, ","))
		if !ok {
			continue
		}
		if f.Specs == nil {
			f.Specs = make(map[string][]string)
		}
		f.Specs[key] = list
	}
	return f
}

// ParseQuery parses a raw query string such as "category=shoes&page=2".
// Malformed pairs are skipped.
func ParseQuery(raw string) domain.Filter {
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return Parse(values)
}

// Values renders f as canonical query parameters: primary names only,
// defaults omitted, lists comma-joined. Parse(Values(f)) yields f again.
func Values(f domain.Filter) url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}

	set("category", f.CategorySlug)
	set("subcategory", strings.Join(f.SubcategorySlugs, ","))
	set("brand", strings.Join(f.BrandSlugs, ","))
	if f.MinPrice != nil {
		set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	set("search", f.Search)
	if f.Sort != "" && f.Sort != domain.DefaultSort {
		set("sort", f.Sort)
	}
	if f.Page > domain.DefaultPage {
		set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 && f.Limit != domain.DefaultLimit {
		set("limit", strconv.Itoa(f.Limit))
	}
	set("tags", strings.Join(f.Tags, ","))
	if f.Featured != nil {
		set("featured", strconv.FormatBool(*f.Featured))
	}
	for key, vals := range f.Specs {
		set(key, strings.Join(vals, ","))
	}
	return v
}

// CacheKey is a stable string identifying f, suitable for cache keys.
func CacheKey(f domain.Filter) string {
	return Values(f.Normalized()).Encode()
}

// PageURL links to page of the listing at path filtered by f.
func PageURL(path string, f domain.Filter, page int) string {
	f.Page = page
	q := Values(f).Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// Links are the pagination links of a listing page. Empty strings mean the
// link does not apply.
type Links struct {
	Self  string `json:"self"`
	First string `json:"first"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last"`
}

// PageLinks builds pagination links for f given the total page count.
func PageLinks(path string, f domain.Filter, totalPages int) Links {
	f = f.Normalized()
	last := max(totalPages, 1)

	l := Links{
		Self:  PageURL(path, f, f.Page),
		First: PageURL(path, f, 1),
		Last:  PageURL(path, f, last),
	}
	if f.Page > 1 {
		l.Prev = PageURL(path, f, min(f.Page-1, last))
	}
	if f.Page < last {
		l.Next = PageURL(path, f, f.Page+1)
	}
	return l
}

// SpecKeys returns the spec filter keys of f in sorted order.
func SpecKeys(f domain.Filter) []string {
	keys := make([]string, 0, len(f.Specs))
	for k := range f.Specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
