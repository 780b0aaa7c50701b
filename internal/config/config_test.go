package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, CatalogMemory, cfg.CatalogBackend)
	assert.Equal(t, 720*time.Hour, cfg.StoreTTL)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.ElasticsearchURLs)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_PrefixedVariables(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "9090")
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "sqlite")
	t.Setenv("STOREFRONT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("HTTP_PORT", "1")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, StorageSQLite, cfg.StorageBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_UnknownBackends(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "s3")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend "s3"`)

	t.Setenv("STOREFRONT_STORAGE_BACKEND", "memory")
	t.Setenv("STOREFRONT_CATALOG_BACKEND", "mongo")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown catalog backend "mongo"`)
}

func TestLoad_RedisStorageNeedsURL(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOREFRONT_REDIS_URL is required")

	t.Setenv("STOREFRONT_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("STOREFRONT_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("STOREFRONT_OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}
