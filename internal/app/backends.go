package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/elasticsearch"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/storage"
	filestorage "github.com/utafrali/storefront/internal/storage/file"
	memstorage "github.com/utafrali/storefront/internal/storage/memory"
	redisstorage "github.com/utafrali/storefront/internal/storage/redis"
	"github.com/utafrali/storefront/internal/storage/sqlite"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// openStorage selects where cart, wishlist and compare documents live.
func (a *App) openStorage(ctx context.Context, healthHandler *health.Handler) (storage.Storage, error) {
	cfg, logger := a.cfg, a.logger

	switch cfg.StorageBackend {
	case config.StorageRedis:
		logger.Info("store persistence: redis", slog.Duration("ttl", cfg.StoreTTL))
		return redisstorage.New(a.rdb, "", cfg.StoreTTL), nil

	case config.StorageFile:
		s, err := filestorage.New(cfg.StorageDir, logger)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.Info("store persistence: files", slog.String("dir", s.Dir()))
		return s, nil

	case config.StorageSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		healthHandler.Register("sqlite", s.Ping)
		logger.Info("store persistence: sqlite", slog.String("path", cfg.SQLitePath))
		return s, nil

	default:
		logger.Warn("store persistence: memory, documents are lost on restart")
		return memstorage.New(), nil
	}
}

// catalog is the product data layer. products serves listings; source is
// the source of truth used to re-index; indexer is set when listings are
// served from a search index.
type catalog struct {
	products domain.ProductRepository
	source   domain.ProductRepository
	indexer  *elasticsearch.Repository
	coupons  domain.CouponRepository
}

func (a *App) openCatalog(ctx context.Context, healthHandler *health.Handler) (*catalog, error) {
	cfg, logger := a.cfg, a.logger

	switch cfg.CatalogBackend {
	case config.CatalogPostgres:
		if err := a.openPostgres(ctx, healthHandler); err != nil {
			return nil, err
		}
		repo := postgres.NewProductRepository(a.pool)
		return &catalog{products: repo, source: repo, coupons: postgres.NewCouponRepository(a.pool)}, nil

	case config.CatalogElasticsearch:
		// The index is a projection of the postgres catalog, which stays the
		// source of truth for re-indexing and coupons.
		if err := a.openPostgres(ctx, healthHandler); err != nil {
			return nil, err
		}
		transport := httpclient.NewBreakerTransport(
			httpclient.NewTransport(httpclient.DefaultConfig(), nil),
			httpclient.DefaultCircuitBreakerConfig("elasticsearch"),
			logger,
		)
		es, err := elasticsearch.New(elasticsearch.Config{
			Addresses: cfg.ElasticsearchURLs,
			Index:     cfg.ElasticsearchIndex,
			Transport: transport,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("ensure elasticsearch index: %w", err)
		}
		healthHandler.Register("elasticsearch", es.Ping)
		logger.Info("catalog: elasticsearch",
			slog.Any("addresses", cfg.ElasticsearchURLs),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return &catalog{
			products: es,
			source:   postgres.NewProductRepository(a.pool),
			indexer:  es,
			coupons:  postgres.NewCouponRepository(a.pool),
		}, nil

	default:
		repo := memory.NewProductRepository()
		if cfg.CatalogFile != "" {
			f, err := os.Open(cfg.CatalogFile)
			if err != nil {
				return nil, fmt.Errorf("open catalog file: %w", err)
			}
			defer f.Close()
			if repo, err = memory.LoadProducts(f); err != nil {
				return nil, fmt.Errorf("load catalog file: %w", err)
			}
		}
		logger.Info("catalog: memory", slog.String("file", cfg.CatalogFile))
		return &catalog{products: repo, source: repo, coupons: memory.NewCouponRepository()}, nil
	}
}

func (a *App) openPostgres(ctx context.Context, healthHandler *health.Handler) error {
	cfg, logger := a.cfg, a.logger

	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL")

	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	registerPoolMetrics(pool, logger)
	healthHandler.Register("postgres", pool.Ping)

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	return nil
}
