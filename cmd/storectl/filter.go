package main

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/filter"
)

type parsedFilter struct {
	Filter   domain.Filter `json:"filter"`
	Query    string        `json:"query"`
	CacheKey string        `json:"cache_key"`
	Specs    []string      `json:"spec_keys,omitempty"`
}

func newFilterCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Work with catalog listing filters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "parse <query-string-or-url>",
		Short:   "Parse listing parameters and print the normalized filter",
		Example: "  storectl filter parse 'category=shirts&brands=acme,zeta&minPrice=10&sort=price_asc'\n  storectl filter parse 'https://shop.example/products?q=linen&page=2'",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw := args[0]
			if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
				raw = u.RawQuery
			}
			raw = strings.TrimPrefix(raw, "?")

			f := filter.ParseQuery(raw).Normalized()
			return e.print(parsedFilter{
				Filter:   f,
				Query:    filter.Values(f).Encode(),
				CacheKey: filter.CacheKey(f),
				Specs:    filter.SpecKeys(f),
			})
		},
	})
	return cmd
}
