// Package store keeps the cart, wishlist and compare collections of one
// owner. Each store hydrates from a storage.Storage, applies the pure
// transitions of package domain, persists the result and emits a
// notification.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
)

// CartStore is the persisted cart of one owner. It is safe for concurrent
// use.
type CartStore struct {
	e *engine[domain.CartItem]
}

// NewCartStore creates an unhydrated cart store over s.
func NewCartStore(s storage.Storage, n notify.Notifier, l *slog.Logger) *CartStore {
	return &CartStore{e: newEngine("cart", CartKey, s, n, l, checkCartItems)}
}

// Hydrate loads the persisted cart, replacing the in-memory state.
func (s *CartStore) Hydrate(ctx context.Context) error { return s.e.hydrate(ctx) }

// Hydrated reports whether the persisted cart has been read.
func (s *CartStore) Hydrated() bool { return s.e.isHydrated() }

// Cart returns a copy of the current cart.
func (s *CartStore) Cart() domain.Cart { return domain.Cart{Items: s.e.snapshot()} }

// AddItem adds item or raises the quantity of the matching line, up to its
// stock, and persists the cart when it changed.
func (s *CartStore) AddItem(ctx context.Context, item domain.CartItem) (domain.Outcome, error) {
	return s.e.apply(ctx, "add", func(items []domain.CartItem) ([]domain.CartItem, domain.Outcome) {
		next, out := domain.Cart{Items: items}.AddItem(item)
		return next.Items, out
	})
}

// RemoveItem drops the line with key and persists the cart.
func (s *CartStore) RemoveItem(ctx context.Context, key string) (domain.Outcome, error) {
	return s.e.apply(ctx, "remove", func(items []domain.CartItem) ([]domain.CartItem, domain.Outcome) {
		next, out := domain.Cart{Items: items}.RemoveItem(key)
		return next.Items, out
	})
}

// UpdateQuantity sets the quantity of the line with key. A quantity below
// one removes the line and one above stock is clamped to it.
func (s *CartStore) UpdateQuantity(ctx context.Context, key string, quantity int) (domain.Outcome, error) {
	return s.e.apply(ctx, "update", func(items []domain.CartItem) ([]domain.CartItem, domain.Outcome) {
		next, out := domain.Cart{Items: items}.UpdateQuantity(key, quantity)
		return next.Items, out
	})
}

// ClearCart empties the cart and persists the empty document.
func (s *CartStore) ClearCart(ctx context.Context) (domain.Outcome, error) {
	return s.e.apply(ctx, "clear", func(items []domain.CartItem) ([]domain.CartItem, domain.Outcome) {
		next, out := domain.Cart{Items: items}.Clear()
		return next.Items, out
	})
}

// Merge adds every line of other with AddItem semantics.
func (s *CartStore) Merge(ctx context.Context, other domain.Cart) (domain.Outcome, error) {
	return s.e.apply(ctx, "merge", func(items []domain.CartItem) ([]domain.CartItem, domain.Outcome) {
		next, out := domain.Cart{Items: items}.Merge(other)
		return next.Items, out
	})
}

// IsInCart reports whether the product/variant combination is in the cart.
func (s *CartStore) IsInCart(productID string, variants map[string]string) bool {
	return s.Cart().Contains(productID, variants)
}

// checkCartItems rejects lines no transition could have produced and
// recomputes keys so older documents match the current key format. Lines
// are held to their stock ceiling: sold-out lines are dropped and larger
// quantities clamped.
func checkCartItems(items []domain.CartItem) ([]domain.CartItem, error) {
	seen := make(map[string]struct{}, len(items))
	kept := items[:0]
	for i, it := range items {
		switch {
		case it.ProductID == "":
			return nil, fmt.Errorf("%w: item %d has no product id", errShape, i)
		case it.Quantity <= 0:
			return nil, fmt.Errorf("%w: item %d has quantity %d", errShape, i, it.Quantity)
		case it.Stock < 0 || it.Price < 0:
			return nil, fmt.Errorf("%w: item %d has negative stock or price", errShape, i)
		}
		it.Variants = domain.NormalizeVariants(it.Variants)
		it.Key = domain.CartKey(it.ProductID, it.Variants)
		if _, dup := seen[it.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q", errShape, it.Key)
		}
		seen[it.Key] = struct{}{}

		if it.Stock == 0 {
			continue
		}
		it.Quantity = min(it.Quantity, it.Stock)
		kept = append(kept, it)
	}
	return kept, nil
}

// ListStore is a persisted wishlist or compare list of one owner.
type ListStore struct {
	policy domain.ListPolicy
	e      *engine[domain.ListItem]
}

// NewWishlistStore creates an unbounded wishlist store over s.
func NewWishlistStore(s storage.Storage, n notify.Notifier, l *slog.Logger) *ListStore {
	return newListStore(domain.WishlistPolicy, WishlistKey, s, n, l)
}

// NewCompareStore creates a compare store capped at domain.CompareLimit.
func NewCompareStore(s storage.Storage, n notify.Notifier, l *slog.Logger) *ListStore {
	return newListStore(domain.ComparePolicy, CompareKey, s, n, l)
}

func newListStore(p domain.ListPolicy, key string, s storage.Storage, n notify.Notifier, l *slog.Logger) *ListStore {
	return &ListStore{policy: p, e: newEngine(p.Name, key, s, n, l, checkListItems)}
}

// Policy returns the list's name and cap.
func (s *ListStore) Policy() domain.ListPolicy { return s.policy }

// Hydrate loads the persisted list, replacing the in-memory state.
func (s *ListStore) Hydrate(ctx context.Context) error { return s.e.hydrate(ctx) }

// Hydrated reports whether the persisted list has been read.
func (s *ListStore) Hydrated() bool { return s.e.isHydrated() }

// List returns a copy of the current list.
func (s *ListStore) List() domain.List { return domain.List{Items: s.e.snapshot()} }

// AddItem appends item unless it is already listed or the list is full.
func (s *ListStore) AddItem(ctx context.Context, item domain.ListItem) (domain.Outcome, error) {
	return s.e.apply(ctx, "add", func(items []domain.ListItem) ([]domain.ListItem, domain.Outcome) {
		next, out := domain.List{Items: items}.Add(s.policy, item)
		return next.Items, out
	})
}

// RemoveItem drops productID from the list.
func (s *ListStore) RemoveItem(ctx context.Context, productID string) (domain.Outcome, error) {
	return s.e.apply(ctx, "remove", func(items []domain.ListItem) ([]domain.ListItem, domain.Outcome) {
		next, out := domain.List{Items: items}.Remove(s.policy, productID)
		return next.Items, out
	})
}

// ToggleItem removes item when listed and adds it otherwise.
func (s *ListStore) ToggleItem(ctx context.Context, item domain.ListItem) (domain.Outcome, error) {
	return s.e.apply(ctx, "toggle", func(items []domain.ListItem) ([]domain.ListItem, domain.Outcome) {
		next, out := domain.List{Items: items}.Toggle(s.policy, item)
		return next.Items, out
	})
}

// ClearAll empties the list.
func (s *ListStore) ClearAll(ctx context.Context) (domain.Outcome, error) {
	return s.e.apply(ctx, "clear", func(items []domain.ListItem) ([]domain.ListItem, domain.Outcome) {
		next, out := domain.List{Items: items}.Clear(s.policy)
		return next.Items, out
	})
}

// Contains reports membership by product id (IsInWishlist / IsInCompare).
func (s *ListStore) Contains(productID string) bool {
	return s.List().Contains(productID)
}

// checkListItems requires product ids to be present and unique. The compare
// cap is enforced on add only, so an oversized persisted list is kept.
func checkListItems(items []domain.ListItem) ([]domain.ListItem, error) {
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: item %d has no product id", errShape, i)
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %q", errShape, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return items, nil
}
