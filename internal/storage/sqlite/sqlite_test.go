package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/storage"
)

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "db", "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))

	_, err = s.Get(ctx, "cart-store")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart-store", []byte(`{"v":1}`)))
	require.NoError(t, s.Set(ctx, "cart-store", []byte(`{"v":2}`)))

	got, err := s.Get(ctx, "cart-store")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	require.NoError(t, s.Remove(ctx, "cart-store"))
	require.NoError(t, s.Remove(ctx, "cart-store"))
	_, err = s.Get(ctx, "cart-store")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "wishlist-store", []byte("saved")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Get(ctx, "wishlist-store")
	require.NoError(t, err)
	assert.Equal(t, "saved", string(got))
}
