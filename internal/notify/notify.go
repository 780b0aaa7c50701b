// Package notify delivers store notifications. Delivery is fire-and-forget:
// a sink cannot fail a store operation.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
)

// Notifier receives notifications produced by store operations.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n domain.Notification)

func (f Func) Notify(ctx context.Context, n domain.Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, domain.Notification) {})

// Fanout sends each notification to every non-nil notifier in order.
func Fanout(notifiers ...Notifier) Notifier {
	live := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			live = append(live, n)
		}
	}
	return fanout(live)
}

type fanout []Notifier

func (f fanout) Notify(ctx context.Context, n domain.Notification) {
	for _, sink := range f {
		sink.Notify(ctx, n)
	}
}

// Log writes notifications to l, enriched with the request fields in ctx.
// Destructive notifications log at info, the rest at debug.
func Log(l *slog.Logger) Notifier {
	return Func(func(ctx context.Context, n domain.Notification) {
		level := slog.LevelDebug
		if n.Variant == domain.VariantDestructive {
			level = slog.LevelInfo
		}
		logger.WithContext(ctx, l).Log(ctx, level, "store notification",
			slog.String("title", n.Title),
			slog.String("variant", string(n.Variant)),
		)
	})
}

// ---------------------------------------------------------------------------
// Request-scoped collection
// ---------------------------------------------------------------------------

type collectorKey struct{}

// Collector accumulates the notifications raised while serving one request so
// the handler can return them alongside the response.
type Collector struct {
	mu    sync.Mutex
	items []domain.Notification
}

// WithCollector attaches a fresh Collector to ctx.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// CollectorFromContext returns the Collector attached to ctx, or nil.
func CollectorFromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}

func (c *Collector) Notify(_ context.Context, n domain.Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
}

// Notifications returns a copy of what has been collected, never nil.
func (c *Collector) Notifications() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Context forwards notifications to the Collector in ctx, if any.
var Context Notifier = Func(func(ctx context.Context, n domain.Notification) {
	if c := CollectorFromContext(ctx); c != nil {
		c.Notify(ctx, n)
	}
})
