// Package cache is a Redis read-through cache in front of a catalog
// repository. Entries are namespaced by a catalog version; bumping the
// version invalidates every cached listing at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/filter"
	"github.com/utafrali/storefront/pkg/logger"
)

const (
	keyPrefix  = "storefront:catalog:"
	versionKey = keyPrefix + "version"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_catalog_cache_requests_total",
		Help: "Catalog cache lookups by kind and result.",
	},
	[]string{"kind", "result"},
)

// ProductRepository caches List and GetByID of the wrapped repository.
// Redis failures degrade to the wrapped repository.
type ProductRepository struct {
	next   domain.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductRepository wraps next with a cache of the given TTL.
func NewProductRepository(next domain.ProductRepository, client *redis.Client, ttl time.Duration, l *slog.Logger) *ProductRepository {
	return &ProductRepository{next: next, client: client, ttl: ttl, logger: l}
}

// Version returns the current catalog version (0 when never bumped).
func (r *ProductRepository) Version(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get catalog version: %w", err)
	}
	return v, nil
}

// Invalidate bumps the catalog version. Old entries expire on their TTL.
func (r *ProductRepository) Invalidate(ctx context.Context) (int64, error) {
	v, err := r.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis bump catalog version: %w", err)
	}
	return v, nil
}

func (r *ProductRepository) List(ctx context.Context, f domain.Filter) (*domain.ProductPage, error) {
	var page domain.ProductPage
	key, hit := r.lookup(ctx, "list", "list:"+filter.CacheKey(f), &page)
	if hit {
		return &page, nil
	}

	result, err := r.next.List(ctx, f)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, result)
	return result, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	key, hit := r.lookup(ctx, "product", "product:"+id, &p)
	if hit {
		return &p, nil
	}

	result, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, result)
	return result, nil
}

// lookup resolves the versioned key for suffix and decodes a cached value
// into dst. An empty key means the cache is unavailable for this call.
func (r *ProductRepository) lookup(ctx context.Context, kind, suffix string, dst any) (string, bool) {
	log := logger.WithContext(ctx, r.logger)

	version, err := r.Version(ctx)
	if err != nil {
		requestsTotal.WithLabelValues(kind, "error").Inc()
		log.WarnContext(ctx, "catalog cache unavailable", slog.String("error", err.Error()))
		return "", false
	}
	key := keyPrefix + "v" + strconv.FormatInt(version, 10) + ":" + suffix

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		requestsTotal.WithLabelValues(kind, "miss").Inc()
		return key, false
	case err != nil:
		requestsTotal.WithLabelValues(kind, "error").Inc()
		log.WarnContext(ctx, "catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return "", false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		requestsTotal.WithLabelValues(kind, "error").Inc()
		log.WarnContext(ctx, "discarding corrupt cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return key, false
	}
	requestsTotal.WithLabelValues(kind, "hit").Inc()
	return key, true
}

func (r *ProductRepository) store(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		logger.WithContext(ctx, r.logger).WarnContext(ctx, "catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
