package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

// engine holds one persisted collection. A mutation runs a pure transition
// on the current items, writes the result, and only then swaps it in, so a
// failed write leaves the in-memory state untouched.
type engine[I any] struct {
	name     string
	key      string
	storage  storage.Storage
	notifier notify.Notifier
	logger   *slog.Logger
	// check validates and may normalize decoded items.
	check func([]I) ([]I, error)

	mu       sync.Mutex
	items    []I
	hydrated bool
}

func newEngine[I any](name, key string, s storage.Storage, n notify.Notifier, l *slog.Logger, check func([]I) ([]I, error)) *engine[I] {
	if n == nil {
		n = notify.Discard
	}
	return &engine[I]{
		name:     name,
		key:      key,
		storage:  s,
		notifier: n,
		logger:   l,
		check:    check,
		items:    []I{},
	}
}

// hydrate (re)loads the persisted document. Absent, unreadable or invalid
// documents leave an empty, hydrated store. Backend errors leave the store
// unhydrated so the next call retries instead of overwriting data it could
// not read.
func (e *engine[I]) hydrate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hydrateLocked(ctx)
}

func (e *engine[I]) hydrateLocked(ctx context.Context) (err error) {
	ctx, end := tracing.Start(ctx, "store", e.name+".hydrate", attribute.String("store.key", e.key))
	defer func() { end(err) }()

	log := logger.WithContext(ctx, e.logger)

	data, err := e.storage.Get(ctx, e.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		e.items, e.hydrated = []I{}, true
		hydrationsTotal.WithLabelValues(e.name, hydrateEmpty).Inc()
		return nil
	case err != nil:
		hydrationsTotal.WithLabelValues(e.name, hydrateError).Inc()
		log.ErrorContext(ctx, "failed to read store document",
			slog.String("store", e.name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("hydrate %s: %w", e.name, err)
	}

	items, err := decodeDocument[I](data)
	if err == nil && e.check != nil {
		items, err = e.check(items)
	}
	if err != nil {
		log.WarnContext(ctx, "discarding invalid store document",
			slog.String("store", e.name),
			slog.String("error", err.Error()),
		)
		e.items, e.hydrated = []I{}, true
		hydrationsTotal.WithLabelValues(e.name, hydrateInvalid).Inc()
		return nil
	}

	e.items, e.hydrated = items, true
	hydrationsTotal.WithLabelValues(e.name, hydrateLoaded).Inc()
	log.DebugContext(ctx, "store hydrated",
		slog.String("store", e.name),
		slog.Int("items", len(items)),
	)
	return nil
}

func (e *engine[I]) isHydrated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hydrated
}

func (e *engine[I]) snapshot() []I {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]I, len(e.items))
	copy(out, e.items)
	return out
}

// apply runs transition against the current items. Changed results are
// persisted before they become visible; notifications go out after that.
func (e *engine[I]) apply(ctx context.Context, op string, transition func([]I) ([]I, domain.Outcome)) (out domain.Outcome, err error) {
	ctx, end := tracing.Start(ctx, "store", e.name+"."+op, attribute.String("store.key", e.key))
	defer func() { end(err) }()

	log := logger.WithContext(ctx, e.logger)

	e.mu.Lock()
	if !e.hydrated {
		if err = e.hydrateLocked(ctx); err != nil {
			e.mu.Unlock()
			operationsTotal.WithLabelValues(e.name, op, outcomeError).Inc()
			return domain.Outcome{}, err
		}
	}

	next, out := transition(e.items)
	if out.Changed {
		var data []byte
		data, err = encodeDocument(next)
		if err == nil {
			err = e.storage.Set(ctx, e.key, data)
		}
		if err != nil {
			e.mu.Unlock()
			operationsTotal.WithLabelValues(e.name, op, outcomeError).Inc()
			log.ErrorContext(ctx, "failed to persist store",
				slog.String("store", e.name),
				slog.String("op", op),
				slog.String("error", err.Error()),
			)
			return domain.Outcome{}, fmt.Errorf("persist %s: %w", e.name, err)
		}
		e.items = next
	}
	e.mu.Unlock()

	outcome := outcomeOK
	if !out.OK {
		outcome = outcomeRejected
	}
	operationsTotal.WithLabelValues(e.name, op, outcome).Inc()

	if out.Changed {
		log.InfoContext(ctx, "store updated",
			slog.String("store", e.name),
			slog.String("op", op),
			slog.Int("items", len(next)),
		)
	}

	if out.Notification != nil {
		e.notifier.Notify(ctx, *out.Notification)
	}
	return out, nil
}
