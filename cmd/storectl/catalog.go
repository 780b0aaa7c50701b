package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/pkg/slug"
)

// catalogNamespace seeds the deterministic product IDs so regenerated
// catalogs keep the IDs stored carts refer to.
var catalogNamespace = uuid.MustParse("6f1c2a52-0d6e-4c51-9a57-3c4a0b8f2d11")

type brandDef struct {
	Name string
	Slug string
}

var seedBrands = []brandDef{
	{"Northwind", "northwind"},
	{"Alder & Co", "alder-co"},
	{"Kestrel", "kestrel"},
	{"Tidewater", "tidewater"},
	{"Marlow", "marlow"},
	{"Fenwick", "fenwick"},
}

type categoryDef struct {
	Slug   string
	Parent string
	Types  []string
	Sized  bool // size variants on top of colors
}

var seedCategories = []categoryDef{
	{"t-shirts", "clothing", []string{"Tee", "Crew Tee", "Long Sleeve Tee"}, true},
	{"shirts", "clothing", []string{"Oxford Shirt", "Linen Shirt", "Flannel Shirt"}, true},
	{"jackets", "clothing", []string{"Rain Jacket", "Bomber Jacket", "Field Jacket"}, true},
	{"running", "shoes", []string{"Trail Runner", "Road Runner"}, true},
	{"sneakers", "shoes", []string{"Canvas Sneaker", "Court Sneaker"}, true},
	{"backpacks", "bags", []string{"Daypack", "Roll Top Pack"}, false},
	{"mugs", "home", []string{"Stoneware Mug", "Travel Mug"}, false},
}

var (
	seedAdjectives = []string{"Classic", "Organic", "Heavyweight", "Washed", "Recycled", "Everyday", "Packable"}
	seedColors     = []string{"black", "white", "navy", "grey", "green", "beige", "red"}
	seedSizes      = []string{"XS", "S", "M", "L", "XL"}
	seedMaterials  = []string{"cotton", "linen", "wool", "polyester", "canvas", "ceramic"}
	seedTags       = []string{"new", "sale", "bestseller", "eco"}
)

type generateOptions struct {
	count int
	seed  uint64
	out   string
	now   time.Time
}

func newCatalogCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Generate and check JSON catalogs for --catalog",
	}

	opts := generateOptions{}
	generate := &cobra.Command{
		Use:     "generate",
		Short:   "Write a deterministic sample catalog",
		Example: "  storectl catalog generate --count 500 --out catalog.json",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if opts.count < 1 {
				return fmt.Errorf("invalid count %d", opts.count)
			}
			opts.now = time.Now().UTC().Truncate(time.Second)
			products := generateProducts(opts)

			w := e.out
			if opts.out != "" && opts.out != "-" {
				f, err := os.Create(opts.out)
				if err != nil {
					return fmt.Errorf("create catalog: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeCatalog(w, products)
		},
	}
	generate.Flags().IntVar(&opts.count, "count", 100, "number of products")
	generate.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	generate.Flags().StringVarP(&opts.out, "out", "o", "-", "output file, - for stdout")

	check := &cobra.Command{
		Use:   "check <file>",
		Short: "Load a catalog and report what the storefront will see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer f.Close()

			repo, err := memory.LoadProducts(f)
			if err != nil {
				return err
			}
			lf := domain.DefaultFilter()
			lf.Limit = 1
			page, err := repo.List(cmd.Context(), lf)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%d published products\n", page.TotalCount)
			return nil
		},
	}

	cmd.AddCommand(generate, check)
	return cmd
}

func writeCatalog(w io.Writer, products []domain.Product) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return nil
}

// generateProducts builds opts.count products. The same seed and count
// always give the same catalog apart from timestamps.
func generateProducts(opts generateOptions) []domain.Product {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	products := make([]domain.Product, 0, opts.count)

	for i := range opts.count {
		brand := seedBrands[rng.IntN(len(seedBrands))]
		cat := seedCategories[rng.IntN(len(seedCategories))]
		name := fmt.Sprintf("%s %s %s",
			brand.Name,
			seedAdjectives[rng.IntN(len(seedAdjectives))],
			cat.Types[rng.IntN(len(cat.Types))],
		)
		price := int64(990 + rng.IntN(120)*100)

		p := domain.Product{
			ID:           uuid.NewSHA1(catalogNamespace, fmt.Appendf(nil, "product:%d", i)).String(),
			Name:         name,
			Slug:         fmt.Sprintf("%s-%d", slug.Generate(name), i+1),
			Description:  fmt.Sprintf("%s from %s.", name, brand.Name),
			Status:       domain.ProductStatusPublished,
			Price:        price,
			Currency:     "USD",
			CategorySlug: cat.Slug,
			ParentSlug:   cat.Parent,
			BrandSlug:    brand.Slug,
			BrandName:    brand.Name,
			Featured:     rng.IntN(10) == 0,
			Rating:       float64(30+rng.IntN(21)) / 10,
			Specs: map[string]string{
				"material": seedMaterials[rng.IntN(len(seedMaterials))],
			},
			CreatedAt: opts.now.Add(-time.Duration(i) * time.Hour),
			UpdatedAt: opts.now,
		}
		if rng.IntN(4) == 0 {
			p.Tags = []string{seedTags[rng.IntN(len(seedTags))]}
		}
		// Roughly one in twenty is a draft.
		if rng.IntN(20) == 0 {
			p.Status = domain.ProductStatusDraft
		}

		p.Variants = generateVariants(rng, &p, cat)
		for _, v := range p.Variants {
			p.Stock += v.Stock
		}
		products = append(products, p)
	}
	return products
}

func generateVariants(rng *rand.Rand, p *domain.Product, cat categoryDef) []domain.ProductVariant {
	colors := pick(rng, seedColors, 1+rng.IntN(3))
	sizes := []string{""}
	if cat.Sized {
		sizes = seedSizes
	}

	variants := make([]domain.ProductVariant, 0, len(colors)*len(sizes))
	for _, color := range colors {
		for _, size := range sizes {
			attrs := map[string]string{"color": color}
			if size != "" {
				attrs["size"] = size
			}
			v := domain.ProductVariant{
				SKU:        domain.GenerateSKU(p.BrandName, p.Name, attrs),
				Attributes: attrs,
				Stock:      rng.IntN(25),
			}
			v.ID = uuid.NewSHA1(catalogNamespace, []byte(p.ID+":"+v.SKU)).String()
			if size == "XL" {
				price := p.Price + 500
				v.Price = &price
			}
			variants = append(variants, v)
		}
	}
	return variants
}

// pick returns n distinct values from list in list order.
func pick(rng *rand.Rand, list []string, n int) []string {
	idx := rng.Perm(len(list))[:n]
	out := make([]string, 0, n)
	for i, v := range list {
		for _, j := range idx {
			if i == j {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
