// Package memory is an in-process storage backend for tests and the CLI.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/storage"
)

// Storage keeps documents in a map. Values are copied on the way in and out.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
	// failSet, when set, makes Set fail. Tests use it to simulate write
	// failures.
	failSet error
}

// New creates an empty memory storage.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// FailWrites makes subsequent Set calls return err; nil restores writes.
func (s *Storage) FailWrites(err error) {
	s.mu.Lock()
	s.failSet = err
	s.mu.Unlock()
}

// Keys returns the stored keys in no particular order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
