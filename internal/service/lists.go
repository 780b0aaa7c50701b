package service

import (
	"context"
	"errors"
	"sort"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ListInput is the body of a wishlist or compare add/toggle request.
type ListInput struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

// ListView is a saved list as returned to clients.
type ListView struct {
	Name     string            `json:"name"`
	Items    []domain.ListItem `json:"items"`
	Count    int               `json:"count"`
	Limit    int               `json:"limit,omitempty"`
	Hydrated bool              `json:"hydrated"`
}

// ListResult is the outcome of a list mutation with the resulting list.
type ListResult struct {
	OK   bool     `json:"ok"`
	List ListView `json:"list"`
}

// CompareMatrix lines compared products up against the union of their spec
// keys. Values[i][j] is product j's value for Keys[i], empty when unset.
type CompareMatrix struct {
	Products []domain.ListItem `json:"products"`
	Keys     []string          `json:"keys"`
	Values   [][]string        `json:"values"`
}

// ListService runs wishlist or compare operations, depending on the store
// constructor it was built with.
type ListService struct {
	deps    StoreDeps
	catalog ProductLookup
	policy  domain.ListPolicy
	newList func(storage.Storage, *StoreDeps) *store.ListStore
}

// NewWishlistService creates the wishlist service.
func NewWishlistService(deps StoreDeps, catalog ProductLookup) *ListService {
	return &ListService{
		deps:    deps.withDefaults(),
		catalog: catalog,
		policy:  domain.WishlistPolicy,
		newList: func(s storage.Storage, d *StoreDeps) *store.ListStore {
			return store.NewWishlistStore(s, d.Notifier, d.Logger)
		},
	}
}

// NewCompareService creates the compare service.
func NewCompareService(deps StoreDeps, catalog ProductLookup) *ListService {
	return &ListService{
		deps:    deps.withDefaults(),
		catalog: catalog,
		policy:  domain.ComparePolicy,
		newList: func(s storage.Storage, d *StoreDeps) *store.ListStore {
			return store.NewCompareStore(s, d.Notifier, d.Logger)
		},
	}
}

// Policy returns the list policy the service enforces.
func (s *ListService) Policy() domain.ListPolicy { return s.policy }

func (s *ListService) open(ctx context.Context, owner string) (*store.ListStore, error) {
	ls := s.newList(storage.Scoped(s.deps.Storage, owner), &s.deps)
	if err := ls.Hydrate(ctx); err != nil {
		return nil, apperrors.Unavailable(s.policy.Label+" is temporarily unavailable", err)
	}
	return ls, nil
}

func (s *ListService) mutate(ctx context.Context, owner, op string, fn func(*store.ListStore) (domain.Outcome, error)) (*ListResult, error) {
	unlock := s.deps.Locks.Lock(owner + ":" + s.policy.Name)
	defer unlock()

	ls, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	out, err := fn(ls)
	if err != nil {
		return nil, apperrors.Unavailable("failed to save "+s.policy.Label, err)
	}

	if out.Changed {
		list := ls.List()
		s.deps.publish(ctx, event.StoreUpdatedData{
			Owner:      owner,
			Store:      s.policy.Name,
			Op:         op,
			ItemCount:  len(list.Items),
			ProductIDs: list.IDs(),
		})
	}
	return &ListResult{OK: out.OK, List: s.view(ls)}, nil
}

// Get returns owner's list.
func (s *ListService) Get(ctx context.Context, owner string) (*ListView, error) {
	ls, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}
	v := s.view(ls)
	return &v, nil
}

// Add saves a catalog product to owner's list.
func (s *ListService) Add(ctx context.Context, owner, productID string) (*ListResult, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	item := p.ListItem()
	return s.mutate(ctx, owner, "add", func(ls *store.ListStore) (domain.Outcome, error) {
		return ls.AddItem(ctx, item)
	})
}

// Toggle removes productID when present, otherwise adds it.
func (s *ListService) Toggle(ctx context.Context, owner, productID string) (*ListResult, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	item := p.ListItem()
	return s.mutate(ctx, owner, "toggle", func(ls *store.ListStore) (domain.Outcome, error) {
		return ls.ToggleItem(ctx, item)
	})
}

// Remove drops productID from owner's list. It does not consult the catalog
// so delisted products can still be removed.
func (s *ListService) Remove(ctx context.Context, owner, productID string) (*ListResult, error) {
	return s.mutate(ctx, owner, "remove", func(ls *store.ListStore) (domain.Outcome, error) {
		return ls.RemoveItem(ctx, productID)
	})
}

// Clear empties owner's list.
func (s *ListService) Clear(ctx context.Context, owner string) (*ListResult, error) {
	return s.mutate(ctx, owner, "clear", func(ls *store.ListStore) (domain.Outcome, error) {
		return ls.ClearAll(ctx)
	})
}

// Contains reports whether productID is in owner's list.
func (s *ListService) Contains(ctx context.Context, owner, productID string) (bool, error) {
	ls, err := s.open(ctx, owner)
	if err != nil {
		return false, err
	}
	return ls.Contains(productID), nil
}

// Matrix builds the comparison table for owner's list. Products that have
// left the catalog keep their column with empty values.
func (s *ListService) Matrix(ctx context.Context, owner string) (*CompareMatrix, error) {
	ls, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}
	items := ls.List().Items

	specs := make([]map[string]string, len(items))
	keySet := make(map[string]struct{})
	for i, it := range items {
		p, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		specs[i] = p.Specs
		for k := range p.Specs {
			keySet[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([][]string, len(keys))
	for i, k := range keys {
		row := make([]string, len(items))
		for j := range items {
			row[j] = specs[j][k]
		}
		values[i] = row
	}

	return &CompareMatrix{Products: items, Keys: keys, Values: values}, nil
}

func (s *ListService) view(ls *store.ListStore) ListView {
	items := ls.List().Items
	return ListView{
		Name:     s.policy.Name,
		Items:    items,
		Count:    len(items),
		Limit:    s.policy.Cap,
		Hydrated: ls.Hydrated(),
	}
}
