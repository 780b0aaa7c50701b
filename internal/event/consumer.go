package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Product change actions.
const (
	ActionUpserted = "upserted"
	ActionDeleted  = "deleted"
)

// ProductChangedData is the payload of a product.changed event.
type ProductChangedData struct {
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
}

// CacheInvalidator drops cached catalog reads.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// ProductChangeHandler reacts to catalog changes: it invalidates the listing
// cache and, when a search index is configured, re-indexes the product from
// the source of truth.
type ProductChangeHandler struct {
	cache   CacheInvalidator
	source  domain.ProductRepository
	indexer domain.ProductIndexer
	logger  *slog.Logger
}

// NewProductChangeHandler creates a handler. cache and indexer may be nil.
func NewProductChangeHandler(cache CacheInvalidator, source domain.ProductRepository, indexer domain.ProductIndexer, logger *slog.Logger) *ProductChangeHandler {
	return &ProductChangeHandler{cache: cache, source: source, indexer: indexer, logger: logger}
}

// Handle processes one product.changed event. Returned errors are retried by
// the consumer and eventually dead-lettered.
func (h *ProductChangeHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.EventType != EventProductChanged {
		return nil
	}

	var data ProductChangedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode product.changed: %w", err)
	}
	if data.ProductID == "" {
		return fmt.Errorf("product.changed event %s has no product id", event.EventID)
	}

	log := logger.WithContext(ctx, h.logger).With(slog.String("product_id", data.ProductID))

	if h.indexer != nil {
		if err := h.reindex(ctx, data); err != nil {
			return err
		}
	}

	if h.cache != nil {
		version, err := h.cache.Invalidate(ctx)
		if err != nil {
			return fmt.Errorf("invalidate catalog cache: %w", err)
		}
		log.InfoContext(ctx, "catalog cache invalidated", slog.Int64("version", version))
	}
	return nil
}

func (h *ProductChangeHandler) reindex(ctx context.Context, data ProductChangedData) error {
	if data.Action == ActionDeleted {
		if err := h.indexer.Delete(ctx, data.ProductID); err != nil {
			return fmt.Errorf("remove product from index: %w", err)
		}
		return nil
	}

	p, err := h.source.GetByID(ctx, data.ProductID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return h.indexer.Delete(ctx, data.ProductID)
	case err != nil:
		return fmt.Errorf("load product: %w", err)
	case !p.IsPublished():
		return h.indexer.Delete(ctx, data.ProductID)
	}

	if err := h.indexer.Index(ctx, p); err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	return nil
}
