package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/memory"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// countingRepo counts calls reaching the wrapped repository.
type countingRepo struct {
	domain.ProductRepository
	lists, gets int
}

func (c *countingRepo) List(ctx context.Context, f domain.Filter) (*domain.ProductPage, error) {
	c.lists++
	return c.ProductRepository.List(ctx, f)
}

func (c *countingRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	c.gets++
	return c.ProductRepository.GetByID(ctx, id)
}

func setup(t *testing.T) (*ProductRepository, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingRepo{ProductRepository: memory.NewProductRepository(
		domain.Product{ID: "p1", Name: "Mug", Status: domain.ProductStatusPublished, Price: 1200},
	)}
	return NewProductRepository(inner, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), inner, mr
}

func TestList_ReadThrough(t *testing.T) {
	repo, inner, mr := setup(t)
	ctx := context.Background()

	first, err := repo.List(ctx, domain.Filter{Sort: domain.SortPriceAsc})
	require.NoError(t, err)
	second, err := repo.List(ctx, domain.Filter{Sort: domain.SortPriceAsc, Page: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.lists, "equivalent filters share one cache entry")
	assert.Equal(t, first.TotalCount, second.TotalCount)
	assert.Equal(t, "p1", second.Items[0].ID)
	assert.True(t, mr.Exists("storefront:catalog:v0:list:sort=price_asc"))
}

func TestInvalidate_BumpsVersion(t *testing.T) {
	repo, inner, _ := setup(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets)

	v, err := repo.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets)
}

func TestErrorsAreNotCached(t *testing.T) {
	repo, inner, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	assert.Equal(t, 2, inner.gets)
}

func TestRedisDown_FallsThrough(t *testing.T) {
	repo, inner, mr := setup(t)
	mr.Close()

	page, err := repo.List(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, inner.lists)
}

func TestCorruptEntryIsReplaced(t *testing.T) {
	repo, inner, mr := setup(t)
	require.NoError(t, mr.Set("storefront:catalog:v0:product:p1", "{not json"))

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 1, inner.gets)

	again, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", again.Name)
	assert.Equal(t, 1, inner.gets)
}
