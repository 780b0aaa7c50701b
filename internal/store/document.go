package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Storage keys of the persisted documents.
const (
	CartKey     = "cart-store"
	WishlistKey = "wishlist-store"
	CompareKey  = "compare-store"
)

// DocumentVersion is the only document version this package reads.
const DocumentVersion = 0

var errShape = errors.New("document shape")

// document is the persisted envelope: {"state":{"items":[...]},"version":0}.
type document[I any] struct {
	State   *itemsState[I] `json:"state"`
	Version *int           `json:"version"`
}

type itemsState[I any] struct {
	Items *[]I `json:"items"`
}

func encodeDocument[I any](items []I) ([]byte, error) {
	if items == nil {
		items = []I{}
	}
	version := DocumentVersion
	return json.Marshal(document[I]{State: &itemsState[I]{Items: &items}, Version: &version})
}

// decodeDocument parses a persisted document. A missing or null state, items
// or version field is a shape error.
func decodeDocument[I any](data []byte) ([]I, error) {
	var doc document[I]
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	switch {
	case doc.State == nil:
		return nil, fmt.Errorf("%w: missing state", errShape)
	case doc.State.Items == nil:
		return nil, fmt.Errorf("%w: missing state.items", errShape)
	case doc.Version == nil:
		return nil, fmt.Errorf("%w: missing version", errShape)
	case *doc.Version != DocumentVersion:
		return nil, fmt.Errorf("%w: unsupported version %d", errShape, *doc.Version)
	}
	items := *doc.State.Items
	if items == nil {
		items = []I{}
	}
	return items, nil
}
