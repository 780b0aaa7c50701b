// Package app wires the storefront service together and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/repository/cache"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	consumer   *pkgkafka.Consumer
	closers    []func() error
	httpServer *http.Server

	// stop ends background work started for the router.
	stop           context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	// Tracing.
	tcfg := tracing.DefaultConfig("storefront")
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	shutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	// Redis is shared by store persistence, the catalog cache and event
	// deduplication.
	if cfg.RedisURL != "" {
		a.rdb, err = database.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
		logger.Info("connected to Redis")
	}

	storage, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	cat, err := a.openCatalog(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Catalog reads go through the Redis cache when one is configured.
	products := cat.products
	var cached *cache.ProductRepository
	if a.rdb != nil {
		cached = cache.NewProductRepository(cat.products, a.rdb, cfg.CatalogCacheTTL, logger)
		products = cached
	}

	catalogService := service.NewCatalogService(products, httpclient.DefaultCircuitBreakerConfig("catalog"), logger)
	healthHandler.RegisterOptional("catalog", func(context.Context) error {
		if catalogService.State() == gobreaker.StateOpen {
			return errors.New("catalog circuit breaker is open")
		}
		return nil
	})

	var publisher event.Publisher = event.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = a.startEvents(cat, cached, healthHandler)
	}

	var tokens middleware.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry).Subject
	} else {
		logger.Warn("JWT secret not set, every request is served as a guest")
	}

	deps := service.StoreDeps{
		Storage:   storage,
		Locks:     store.NewLocks(),
		Notifier:  notify.Fanout(notify.Context, notify.Log(logger)),
		Publisher: publisher,
		Logger:    logger,
	}

	routerCtx, stop := context.WithCancel(context.Background())
	a.stop = stop

	router := handler.NewRouter(routerCtx, handler.RouterConfig{
		Catalog:        catalogService,
		Cart:           service.NewCartService(deps, catalogService, cat.coupons),
		Wishlist:       service.NewWishlistService(deps, catalogService),
		Compare:        service.NewCompareService(deps, catalogService),
		Health:         healthHandler,
		Tokens:         tokens,
		Logger:         logger,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RateLimit:      cfg.RateLimitRPS,
		RateBurst:      cfg.RateLimitBurst,
		CatalogMaxAge:  cfg.CatalogMaxAge,
		RequestTimeout: cfg.RequestTimeout,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ok = true
	return a, nil
}

// startEvents creates the store update producer and the product change
// consumer.
func (a *App) startEvents(cat *catalog, cached *cache.ProductRepository, healthHandler *health.Handler) event.Publisher {
	cfg, logger := a.cfg, a.logger

	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	healthHandler.RegisterOptional("kafka", a.producer.Ping)

	var invalidator event.CacheInvalidator
	if cached != nil {
		invalidator = cached
	}
	var indexer domain.ProductIndexer
	if cat.indexer != nil {
		indexer = cat.indexer
	}
	changes := event.NewProductChangeHandler(invalidator, cat.source, indexer, logger)

	var seen pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	if a.rdb != nil {
		seen = pkgkafka.NewRedisIdempotencyStore(a.rdb, "storefront:events:", 24*time.Hour)
	}

	a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaConsumerGroup,
		Topic:    event.TopicProductChanged,
		MinBytes: 1,
		MaxBytes: 10e6, // 10 MB
		DLQ:      a.dlq,
	}, pkgkafka.IdempotentHandler(seen, changes.Handle, logger), logger)

	logger.Info("kafka initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("consumer_topic", event.TopicProductChanged),
	)
	return event.NewProducer(a.producer, logger)
}

// Run serves HTTP and, when events are configured, consumes product changes
// until ctx is canceled or the server fails. The app is shut down before Run
// returns.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if consumer := a.consumer; consumer != nil {
		// Start closes the consumer on its way out.
		a.consumer = nil
		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.stop != nil {
		a.stop()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
		a.consumer = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		}
		a.dlq = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close error", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
}

func registerPoolMetrics(pool *pgxpool.Pool, logger *slog.Logger) {
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}
}
