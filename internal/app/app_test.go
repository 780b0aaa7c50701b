package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/storage/sqlite"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	catalogFile := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(catalogFile, []byte(`[
		{"id":"mug","name":"Mug","slug":"mug","status":"published","price":800,"stock":2},
		{"id":"hidden","name":"Hidden","slug":"hidden","status":"draft","price":100,"stock":1}
	]`), 0o644))

	return &config.Config{
		Environment:     "test",
		HTTPPort:        8080,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
		StorageBackend:  config.StorageMemory,
		CatalogBackend:  config.CatalogMemory,
		CatalogFile:     catalogFile,
		OTELSampleRate:  1,
	}
}

func TestNewApp_MemoryBackends(t *testing.T) {
	a, err := NewApp(testConfig(t), newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			TotalCount int `json:"total_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.TotalCount, "drafts are not listed")

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_SQLiteStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "stores.db")

	a, err := NewApp(cfg, newTestLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"mug","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sid := rec.Header().Get("X-Session-ID")
	require.NotEmpty(t, sid)

	require.NoError(t, a.Shutdown())

	s, err := sqlite.Open(t.Context(), cfg.SQLitePath)
	require.NoError(t, err)
	defer s.Close()
	data, err := s.Get(t.Context(), "guest:"+sid+":cart-store")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"product_id":"mug"`)
}

func TestNewApp_FileStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageFile
	cfg.StorageDir = t.TempDir()

	a, err := NewApp(cfg, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/items", strings.NewReader(`{"product_id":"mug"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	entries, err := os.ReadDir(cfg.StorageDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "wishlist-store.json"))
}

func TestNewApp_MissingCatalogFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := NewApp(cfg, newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open catalog file")
}
