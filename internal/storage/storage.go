// Package storage is the persistence port behind the cart, wishlist and
// compare stores: a string-keyed blob store with get, set and remove.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("storage: key not found")

// Storage persists opaque documents by key. Implementations must be safe for
// concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Watcher is implemented by backends that can report external changes.
// Watch blocks until ctx is done, calling onChange with the changed key.
type Watcher interface {
	Watch(ctx context.Context, onChange func(key string)) error
}

// Pinger is implemented by backends with a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scoped prefixes every key with "<scope>:" so several owners can share one
// backend.
func Scoped(s Storage, scope string) Storage {
	return scoped{next: s, prefix: scope + ":"}
}

type scoped struct {
	next   Storage
	prefix string
}

func (s scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.next.Set(ctx, s.prefix+key, value)
}

func (s scoped) Remove(ctx context.Context, key string) error {
	return s.next.Remove(ctx, s.prefix+key)
}
