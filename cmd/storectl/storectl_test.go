package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	filestorage "github.com/utafrali/storefront/internal/storage/file"
	"github.com/utafrali/storefront/pkg/logger"
)

const testCatalog = `[
	{"id":"tee","name":"Cotton Tee","slug":"cotton-tee","status":"published","price":1500,"stock":10,
	 "variants":[{"id":"tee-m","attributes":{"size":"M"},"stock":3}]},
	{"id":"mug","name":"Mug","slug":"mug","status":"published","price":800,"stock":2}
]`

func quietLogger() *slog.Logger {
	return logger.NewWithWriter("storectl-test", "error", io.Discard)
}

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T, backend string) *cli {
	t.Helper()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0o644))

	return &cli{t: t, base: []string{
		"--storage", backend,
		"--dir", filepath.Join(dir, "stores"),
		"--db", filepath.Join(dir, "stores.db"),
		"--catalog", catalog,
		"--session", "s1",
	}}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, c.base...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCart_AddShowAndContains(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			c := newCLI(t, backend)

			out, err := c.run("cart", "add", "tee", "2", "--variant", "size=M")
			require.NoError(t, err)
			assert.Contains(t, out, "[success] Added to cart")
			assert.Contains(t, out, `"ok": true`)

			out, err = c.run("cart", "add", "mug", "5")
			require.NoError(t, err)
			assert.Contains(t, out, "Not enough stock")
			assert.Contains(t, out, `"ok": false`)

			out, err = c.run("cart", "show")
			require.NoError(t, err)
			assert.Contains(t, out, `"subtotal": 4600`)
			assert.Contains(t, out, `"item_count": 4`)

			out, err = c.run("cart", "contains", "tee", "--variant", "size=M")
			require.NoError(t, err)
			assert.Equal(t, "true\n", out)

			out, err = c.run("cart", "clear")
			require.NoError(t, err)
			assert.Contains(t, out, "Cart cleared")
		})
	}
}

func TestCart_Errors(t *testing.T) {
	c := newCLI(t, "file")

	_, err := c.run("cart", "add", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = c.run("cart", "add", "mug", "many")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quantity")

	_, err = c.run("cart", "add", "tee", "--variant", "size")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want name=value")
}

func TestOwnersAreSeparate(t *testing.T) {
	c := newCLI(t, "file")

	_, err := c.run("wishlist", "add", "mug")
	require.NoError(t, err)

	out, err := c.run("wishlist", "show", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 0`)

	out, err = c.run("wishlist", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 1`)
}

func TestCompare_Toggle(t *testing.T) {
	c := newCLI(t, "sqlite")

	out, err := c.run("compare", "toggle", "mug")
	require.NoError(t, err)
	assert.Contains(t, out, "Added to compare")

	out, err = c.run("compare", "toggle", "mug")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed from compare")
	assert.Contains(t, out, `"count": 0`)
}

func TestFilterParse(t *testing.T) {
	c := newCLI(t, "file")

	out, err := c.run("filter", "parse", "https://shop.example/products?brand=acme&minPrice=10&sort=price_asc&utm_source=x")
	require.NoError(t, err)
	assert.Contains(t, out, `"brands": [`)
	assert.Contains(t, out, `"sort": "price_asc"`)
	assert.NotContains(t, out, "utm_source")
}

func TestToken(t *testing.T) {
	c := newCLI(t, "file")
	secret := "storectl-test-secret-0123456789abcdef"

	out, err := c.run("token", "u1", "--secret", secret)
	require.NoError(t, err)

	sub, err := auth.NewJWTManager(secret, 0).Subject(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)

	t.Setenv("STOREFRONT_JWT_SECRET", "")
	_, err = c.run("token", "u1")
	require.Error(t, err)
}

func TestRehydrate(t *testing.T) {
	c := newCLI(t, "file")
	_, err := c.run("cart", "add", "mug", "1")
	require.NoError(t, err)

	dir := c.base[3]
	s, err := filestorage.New(dir, quietLogger())
	require.NoError(t, err)
	e := &env{opts: &options{backend: "file", dir: dir}, logger: quietLogger(), storage: s}

	ev, err := rehydrate(context.Background(), e, "guest:s1:cart-store")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "guest:s1", ev.Owner)
	assert.Equal(t, "cart-store", ev.Store)
	items, ok := ev.Items.([]domain.CartItem)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "mug", items[0].ProductID)

	ev, err = rehydrate(context.Background(), e, "notes")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParseVariants(t *testing.T) {
	sel, err := parseVariants([]string{"size=M", "color=blue", "size=L"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"size": "L", "color": "blue"}, sel)

	sel, err = parseVariants(nil)
	require.NoError(t, err)
	assert.Nil(t, sel)

	_, err = parseVariants([]string{"=M"})
	assert.Error(t, err)
}

func TestCatalogGenerate_Deterministic(t *testing.T) {
	opts := generateOptions{count: 40, seed: 7}
	a := generateProducts(opts)
	b := generateProducts(opts)
	require.Len(t, a, 40)
	assert.Equal(t, a, b)

	seen := map[string]bool{}
	for _, p := range a {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		require.NotEmpty(t, p.Variants)
		for _, v := range p.Variants {
			assert.NotEmpty(t, v.SKU)
			assert.NotEmpty(t, v.Attributes["color"])
		}
	}

	other := generateProducts(generateOptions{count: 40, seed: 8})
	assert.Equal(t, a[0].ID, other[0].ID, "ids depend on position only")
}

func TestCatalogGenerateAndUse(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "generated.json")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"catalog", "generate", "--count", "25", "--out", catalog})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	cmd = newRootCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"catalog", "check", catalog})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Regexp(t, `^\d+ published products\n$`, out.String())

	products := generateProducts(generateOptions{count: 25, seed: 1})
	var target string
	for _, p := range products {
		if p.IsPublished() && len(p.Variants) > 0 && p.Variants[0].Stock > 0 {
			target = p.ID
			for name, value := range p.Variants[0].Attributes {
				target += " --variant " + name + "=" + value
			}
			break
		}
	}
	require.NotEmpty(t, target)

	c := &cli{t: t, base: []string{"--dir", filepath.Join(dir, "stores"), "--catalog", catalog}}
	res, err := c.run(append([]string{"cart", "add"}, strings.Fields(target)...)...)
	require.NoError(t, err)
	assert.Contains(t, res, `"ok": true`)
}
