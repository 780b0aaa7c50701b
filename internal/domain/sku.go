package domain

import (
	"sort"
	"strings"

	"github.com/utafrali/storefront/pkg/slug"
)

var colorCodes = map[string]string{
	"black":  "BLK",
	"white":  "WHT",
	"red":    "RED",
	"blue":   "BLU",
	"green":  "GRN",
	"yellow": "YLW",
	"gray":   "GRY",
	"grey":   "GRY",
	"pink":   "PNK",
	"purple": "PRP",
	"orange": "ORG",
	"brown":  "BRN",
	"navy":   "NVY",
	"beige":  "BGE",
}

// GenerateSKU derives a deterministic SKU from brand, product name and
// variant attributes: ("Nike", "Nike Air Zoom", {color: black, size: M})
// gives "NIKE-AIR-ZOOM-BLK-M". Name words repeating the brand are dropped and
// attributes are ordered by type.
func GenerateSKU(brand, name string, attributes map[string]string) string {
	brandWords := slug.Words(brand)
	skip := make(map[string]bool, len(brandWords))
	parts := make([]string, 0, 8)
	for _, w := range brandWords {
		skip[w] = true
		parts = append(parts, strings.ToUpper(w))
	}
	for _, w := range slug.Words(name) {
		if !skip[w] {
			parts = append(parts, strings.ToUpper(w))
		}
	}

	types := make([]string, 0, len(attributes))
	for k, v := range attributes {
		if v != "" {
			types = append(types, k)
		}
	}
	sort.Strings(types)
	for _, k := range types {
		if code := attributeCode(attributes[k]); code != "" {
			parts = append(parts, code)
		}
	}
	return strings.Join(parts, "-")
}

func attributeCode(value string) string {
	s := slug.Generate(value)
	if code, ok := colorCodes[s]; ok {
		return code
	}
	s = strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	if len(s) > 3 {
		return s[:3]
	}
	return s
}
