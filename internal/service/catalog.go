// Package service holds the storefront use cases: catalog reads behind a
// circuit breaker, and the per-owner cart, wishlist and compare flows.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

// ProductLookup resolves a product the storefront may sell.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// CatalogService reads products through a circuit breaker so a failing data
// layer is answered with 503s instead of piling up slow requests.
type CatalogService struct {
	repo    domain.ProductRepository
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewCatalogService creates a catalog service over repo.
func NewCatalogService(repo domain.ProductRepository, cfg httpclient.CircuitBreakerConfig, logger *slog.Logger) *CatalogService {
	settings := httpclient.BreakerSettings(cfg, logger)
	// Missing products and bad input are answers, not outages.
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidInput)
	}

	return &CatalogService{
		repo:    repo,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// ListProducts returns one page of the catalog listing for f.
func (s *CatalogService) ListProducts(ctx context.Context, f domain.Filter) (*domain.ProductPage, error) {
	f = f.Normalized()

	res, err := s.breaker.Execute(func() (any, error) {
		return s.repo.List(ctx, f)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil, err
		}
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to load products",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unavailable("failed to load products", err)
	}
	return res.(*domain.ProductPage), nil
}

// GetProduct returns a published product. Drafts and archived products are
// reported as not found.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	res, err := s.breaker.Execute(func() (any, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to load product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unavailable("failed to load products", err)
	}

	p := res.(*domain.Product)
	if !p.IsPublished() {
		return nil, apperrors.NotFound("product", id)
	}
	return p, nil
}

// State reports the breaker state, for readiness checks.
func (s *CatalogService) State() gobreaker.State {
	return s.breaker.State()
}
