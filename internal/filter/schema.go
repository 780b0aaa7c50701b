// Package filter turns loosely typed URL query parameters into a
// domain.Filter and builds canonical listing URLs back from one.
package filter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/slug"
)

// MaxSearchLength bounds the search term in runes.
const MaxSearchLength = 200

// field binds the accepted parameter names of one filter attribute to how it
// is parsed and stored. The first alias carrying a value wins.
type field struct {
	keys  []string
	apply func(f *domain.Filter, raw string)
}

// bind builds a field from a parser and a setter. A parser returning false
// leaves the default in place.
func bind[T any](parse func(string) (T, bool), set func(*domain.Filter, T), keys ...string) field {
	return field{
		keys: keys,
		apply: func(f *domain.Filter, raw string) {
			if v, ok := parse(raw); ok {
				set(f, v)
			}
		},
	}
}

var schema = []field{
	bind(parseSlug, func(f *domain.Filter, v string) { f.CategorySlug = v }, "category"),
	bind(parseList, func(f *domain.Filter, v []string) { f.SubcategorySlugs = v }, "subcategory", "subcategories"),
	bind(parseList, func(f *domain.Filter, v []string) { f.BrandSlugs = v }, "brand", "brands"),
	bind(parsePrice, func(f *domain.Filter, v float64) { f.MinPrice = &v }, "minPrice", "priceMin"),
	bind(parsePrice, func(f *domain.Filter, v float64) { f.MaxPrice = &v }, "maxPrice", "priceMax"),
	bind(parseSearch, func(f *domain.Filter, v string) { f.Search = v }, "search", "q"),
	bind(parseSort, func(f *domain.Filter, v string) { f.Sort = v }, "sort"),
	bind(parsePage, func(f *domain.Filter, v int) { f.Page = v }, "page"),
	bind(parseLimit, func(f *domain.Filter, v int) { f.Limit = v }, "limit", "perPage"),
	bind(parseList, func(f *domain.Filter, v []string) { f.Tags = v }, "tags"),
	bind(parseBool, func(f *domain.Filter, v bool) { f.Featured = &v }, "featured"),
}

var known = func() map[string]bool {
	m := make(map[string]bool)
	for _, fd := range schema {
		for _, k := range fd.keys {
			m[k] = true
		}
	}
	return m
}()

var specKey = regexp.MustCompile(`^[a-z0-9_]{1,40}$`)

// isSpecKey reports whether an unknown parameter may act as a spec filter.
// Tracking parameters never do.
func isSpecKey(key string) bool {
	if known[key] || strings.HasPrefix(key, "utm_") || key == "fbclid" || key == "gclid" {
		return false
	}
	return specKey.MatchString(key)
}

func parseSlug(raw string) (string, bool) {
	s := slug.Generate(raw)
	return s, s != ""
}

// parseList splits a comma list, trimming entries and dropping empty and
// repeated ones.
func parseList(raw string) ([]string, bool) {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out, len(out) > 0
}

func parsePrice(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func parseSearch(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if utf8.RuneCountInString(s) > MaxSearchLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxSearchLength]))
	}
	return s, s != ""
}

func parseSort(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, domain.IsValidSort(s)
}

func parsePositive(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return n, err == nil && n > 0
}

func parsePage(raw string) (int, bool) {
	n, ok := parsePositive(raw)
	return min(n, domain.MaxPage), ok
}

func parseLimit(raw string) (int, bool) {
	n, ok := parsePositive(raw)
	return min(n, domain.MaxLimit), ok
}

func parseBool(raw string) (bool, bool) {
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
