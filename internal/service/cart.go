package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// MaxQuantityPerItem bounds a single add or update request.
const MaxQuantityPerItem = 99

// AddItemInput is the body of an add-to-cart request. Price and stock are
// taken from the catalog, never from the client.
type AddItemInput struct {
	ProductID string            `json:"product_id" validate:"required,max=64"`
	Quantity  int               `json:"quantity" validate:"required,gte=1,lte=99"`
	Variants  map[string]string `json:"variants"`
}

// UpdateQuantityInput is the body of a quantity change; 0 removes the line.
type UpdateQuantityInput struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=99"`
}

// MergeInput names the guest session whose cart is merged into the
// signed-in owner's cart.
type MergeInput struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	Items     []domain.CartItem `json:"items"`
	Subtotal  int64             `json:"subtotal"`
	ItemCount int               `json:"item_count"`
	Hydrated  bool              `json:"hydrated"`
}

// CartResult is the outcome of a cart mutation with the resulting cart.
type CartResult struct {
	OK   bool     `json:"ok"`
	Cart CartView `json:"cart"`
}

// CartSummary prices the cart, optionally with a coupon.
type CartSummary struct {
	Subtotal    int64                `json:"subtotal"`
	Discount    int64                `json:"discount"`
	Total       int64                `json:"total"`
	ItemCount   int                  `json:"item_count"`
	Coupon      *domain.CouponResult `json:"coupon,omitempty"`
	CouponError string               `json:"coupon_error,omitempty"`
}

// StoreDeps are the collaborators shared by the cart and list services.
type StoreDeps struct {
	Storage   storage.Storage
	Locks     *store.Locks
	Notifier  notify.Notifier
	Publisher event.Publisher
	Logger    *slog.Logger
}

func (d StoreDeps) withDefaults() StoreDeps {
	if d.Locks == nil {
		d.Locks = store.NewLocks()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Discard
	}
	if d.Publisher == nil {
		d.Publisher = event.NoopPublisher{}
	}
	return d
}

// publish announces a committed change. Failures are logged and dropped; the
// change is already durable.
func (d StoreDeps) publish(ctx context.Context, data event.StoreUpdatedData) {
	if err := d.Publisher.PublishStoreUpdated(ctx, data); err != nil {
		logger.WithContext(ctx, d.Logger).WarnContext(ctx, "failed to publish store update",
			slog.String("store", data.Store),
			slog.String("error", err.Error()),
		)
	}
}

// CartService runs cart operations for one owner at a time.
type CartService struct {
	deps    StoreDeps
	catalog ProductLookup
	coupons domain.CouponRepository
	now     func() time.Time
}

// NewCartService creates a cart service. coupons may be nil, which disables
// coupon pricing.
func NewCartService(deps StoreDeps, catalog ProductLookup, coupons domain.CouponRepository) *CartService {
	return &CartService{deps: deps.withDefaults(), catalog: catalog, coupons: coupons, now: time.Now}
}

func (s *CartService) open(ctx context.Context, owner string) (*store.CartStore, error) {
	cs := store.NewCartStore(storage.Scoped(s.deps.Storage, owner), s.deps.Notifier, s.deps.Logger)
	if err := cs.Hydrate(ctx); err != nil {
		return nil, apperrors.Unavailable("cart is temporarily unavailable", err)
	}
	return cs, nil
}

// mutate serializes op against owner's cart and publishes committed changes.
func (s *CartService) mutate(ctx context.Context, owner, op string, fn func(*store.CartStore) (domain.Outcome, error)) (*CartResult, error) {
	unlock := s.deps.Locks.Lock(owner + ":cart")
	defer unlock()

	cs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	out, err := fn(cs)
	if err != nil {
		return nil, apperrors.Unavailable("failed to save cart", err)
	}

	cart := cs.Cart()
	if out.Changed {
		s.deps.publish(ctx, event.StoreUpdatedData{
			Owner:      owner,
			Store:      "cart",
			Op:         op,
			ItemCount:  cart.ItemCount(),
			Subtotal:   cart.Subtotal(),
			ProductIDs: cartProductIDs(cart),
		})
	}
	return &CartResult{OK: out.OK, Cart: cartView(cs)}, nil
}

// GetCart returns owner's cart.
func (s *CartService) GetCart(ctx context.Context, owner string) (*CartView, error) {
	cs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}
	v := cartView(cs)
	return &v, nil
}

// AddItem adds a catalog product (and variant selection) to owner's cart.
// Unknown products are 404; selections that match no variant are 400.
func (s *CartService) AddItem(ctx context.Context, owner string, in AddItemInput) (*CartResult, error) {
	if in.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	p, err := s.catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	v, ok := p.FindVariant(in.Variants)
	if !ok {
		return nil, apperrors.InvalidInput("unknown variant selection for product " + p.ID)
	}

	item := p.CartItem(v, in.Quantity)
	return s.mutate(ctx, owner, "add", func(cs *store.CartStore) (domain.Outcome, error) {
		return cs.AddItem(ctx, item)
	})
}

// UpdateQuantity sets the quantity of the line with key.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, key string, quantity int) (*CartResult, error) {
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	return s.mutate(ctx, owner, "update", func(cs *store.CartStore) (domain.Outcome, error) {
		return cs.UpdateQuantity(ctx, key, quantity)
	})
}

// RemoveItem removes the line with key; absent keys are a no-op.
func (s *CartService) RemoveItem(ctx context.Context, owner, key string) (*CartResult, error) {
	return s.mutate(ctx, owner, "remove", func(cs *store.CartStore) (domain.Outcome, error) {
		return cs.RemoveItem(ctx, key)
	})
}

// Clear empties owner's cart.
func (s *CartService) Clear(ctx context.Context, owner string) (*CartResult, error) {
	return s.mutate(ctx, owner, "clear", func(cs *store.CartStore) (domain.Outcome, error) {
		return cs.ClearCart(ctx)
	})
}

// Contains reports whether the product/variant combination is in the cart.
func (s *CartService) Contains(ctx context.Context, owner, productID string, variants map[string]string) (bool, error) {
	cs, err := s.open(ctx, owner)
	if err != nil {
		return false, err
	}
	return cs.IsInCart(productID, variants), nil
}

// Merge folds the guest cart of guestOwner into owner's cart with AddItem
// semantics, then deletes the guest cart. Both carts are locked in key order
// so concurrent merges cannot deadlock.
func (s *CartService) Merge(ctx context.Context, owner, guestOwner string) (*CartResult, error) {
	if owner == guestOwner {
		return nil, apperrors.InvalidInput("cannot merge a cart into itself")
	}

	first, second := owner+":cart", guestOwner+":cart"
	if second < first {
		first, second = second, first
	}
	unlockFirst := s.deps.Locks.Lock(first)
	defer unlockFirst()
	unlockSecond := s.deps.Locks.Lock(second)
	defer unlockSecond()

	guest, err := s.open(ctx, guestOwner)
	if err != nil {
		return nil, err
	}
	target, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	out, err := target.Merge(ctx, guest.Cart())
	if err != nil {
		return nil, apperrors.Unavailable("failed to save cart", err)
	}

	if len(guest.Cart().Items) > 0 {
		if err := storage.Scoped(s.deps.Storage, guestOwner).Remove(ctx, store.CartKey); err != nil {
			logger.WithContext(ctx, s.deps.Logger).WarnContext(ctx, "failed to remove merged guest cart",
				slog.String("guest_owner", guestOwner),
				slog.String("error", err.Error()),
			)
		}
	}

	cart := target.Cart()
	if out.Changed {
		s.deps.publish(ctx, event.StoreUpdatedData{
			Owner:      owner,
			Store:      "cart",
			Op:         "merge",
			ItemCount:  cart.ItemCount(),
			Subtotal:   cart.Subtotal(),
			ProductIDs: cartProductIDs(cart),
		})
	}
	return &CartResult{OK: out.OK, Cart: cartView(target)}, nil
}

// Summary prices owner's cart. Coupon problems are reported in CouponError
// rather than failing the request.
func (s *CartService) Summary(ctx context.Context, owner, couponCode string) (*CartSummary, error) {
	cs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart := cs.Cart()

	sum := &CartSummary{
		Subtotal:  cart.Subtotal(),
		Total:     cart.Subtotal(),
		ItemCount: cart.ItemCount(),
	}
	if couponCode == "" {
		return sum, nil
	}
	if s.coupons == nil {
		sum.CouponError = "coupons are not available"
		return sum, nil
	}

	c, err := s.coupons.GetByCode(ctx, couponCode)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		sum.CouponError = "coupon not found"
		return sum, nil
	case err != nil:
		return nil, apperrors.Unavailable("failed to load coupon", err)
	}

	result, err := c.Apply(sum.Subtotal, s.now())
	if err != nil {
		sum.CouponError = err.Error()
		return sum, nil
	}
	sum.Coupon = &result
	sum.Discount = result.Discount
	sum.Total = sum.Subtotal - result.Discount
	return sum, nil
}

func cartView(cs *store.CartStore) CartView {
	cart := cs.Cart()
	return CartView{
		Items:     cart.Items,
		Subtotal:  cart.Subtotal(),
		ItemCount: cart.ItemCount(),
		Hydrated:  cs.Hydrated(),
	}
}

func cartProductIDs(c domain.Cart) []string {
	seen := make(map[string]struct{}, len(c.Items))
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sort.Strings(ids)
	return ids
}
