package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Wishlist *service.ListService
	Compare  *service.ListService
	Health   *health.Handler
	// Tokens validates bearer tokens; nil treats every caller as a guest.
	Tokens     middleware.TokenValidator
	Logger     *slog.Logger
	PprofCIDRs []string
	// RateLimit and RateBurst bound mutating requests per owner; 0 disables.
	RateLimit      float64
	RateBurst      int
	CatalogMaxAge  int
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered. ctx
// bounds background work started by middleware.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	products := NewProductHandler(cfg.Catalog, logger)
	carts := NewCartHandler(cfg.Cart, logger)
	wishlist := NewListHandler(cfg.Wishlist, logger)
	compare := NewListHandler(cfg.Compare, logger)

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit > 0 {
		limit = middleware.RateLimit(ctx, cfg.RateLimit, max(cfg.RateBurst, 1), logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			r.Get("/products", products.List)
			r.Get("/products/{id}", products.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.ResolveIdentity(cfg.Tokens, logger))
			r.Use(CollectNotifications)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Get("/contains", carts.Contains)
				r.Get("/summary", carts.Summary)

				r.Group(func(r chi.Router) {
					r.Use(limit)
					r.Delete("/", carts.ClearCart)
					r.Post("/items", carts.AddItem)
					r.Patch("/items/{key}", carts.UpdateQuantity)
					r.Delete("/items/{key}", carts.RemoveItem)
					r.With(middleware.RequireUser).Post("/merge", carts.Merge)
				})
			})

			r.Route("/wishlist", func(r chi.Router) {
				wishlist.mount(r, limit)
			})
			r.Route("/compare", func(r chi.Router) {
				compare.mount(r, limit)
				r.Get("/matrix", compare.Matrix)
			})
		})
	})

	return r
}
