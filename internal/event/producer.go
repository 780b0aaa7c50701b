// Package event publishes store changes to Kafka and consumes catalog
// change events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics.
var (
	TopicStoreUpdated   = pkgkafka.Topic("store", "updated")
	TopicProductChanged = pkgkafka.Topic("product", "changed")
)

// Event types.
const (
	EventStoreUpdated   = "store.updated"
	EventProductChanged = "product.changed"
)

// SourceStorefront identifies events emitted by this service.
const SourceStorefront = "storefront"

// StoreUpdatedData is the payload of a store.updated event.
type StoreUpdatedData struct {
	Owner      string   `json:"owner"`
	Store      string   `json:"store"`
	Op         string   `json:"op"`
	ItemCount  int      `json:"item_count"`
	Subtotal   int64    `json:"subtotal,omitempty"`
	ProductIDs []string `json:"product_ids"`
}

// Publisher announces committed store changes.
type Publisher interface {
	PublishStoreUpdated(ctx context.Context, data StoreUpdatedData) error
}

// eventWriter is the subset of *pkgkafka.Producer used here.
type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  eventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka eventWriter, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishStoreUpdated publishes a store.updated event keyed by owner.
func (p *Producer) PublishStoreUpdated(ctx context.Context, data StoreUpdatedData) error {
	if data.ProductIDs == nil {
		data.ProductIDs = []string{}
	}

	event, err := pkgkafka.NewEvent(EventStoreUpdated, data.Owner, data.Store, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create store.updated event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	event.WithMetadata("op", data.Op)

	if err := p.kafka.Publish(ctx, TopicStoreUpdated, event); err != nil {
		return fmt.Errorf("publish store.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published store.updated event",
		slog.String("store", data.Store),
		slog.String("op", data.Op),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// NoopPublisher drops every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishStoreUpdated(context.Context, StoreUpdatedData) error { return nil }
