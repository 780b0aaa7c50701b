// Package file stores each document as a JSON file in a directory and can
// watch the directory for edits made by other processes.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/utafrali/storefront/internal/storage"
)

const ext = ".json"

// Storage is a directory-backed storage.Storage. Writes go to a temp file
// and are renamed into place so readers never see a partial document.
type Storage struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	written map[string][]byte

	// settle is how long a file must be quiet before Watch reports it.
	settle time.Duration
}

// New opens (creating if needed) dir as a storage.
func New(dir string, logger *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{
		dir:     dir,
		logger:  logger,
		written: make(map[string][]byte),
		settle:  200 * time.Millisecond,
	}, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }

func (s *Storage) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+ext)
}

func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(name, ext))
	return key, err == nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	s.written[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	s.written[key] = nil
	return nil
}

// ownWrite reports whether the current content of key is what this process
// last wrote, so Watch can skip its own echoes.
func (s *Storage) ownWrite(key string) bool {
	data, err := os.ReadFile(s.path(key))
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.written[key]
	if !ok {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) {
		return last == nil
	}
	return err == nil && last != nil && bytes.Equal(data, last)
}

// Watch reports keys changed by other processes until ctx is done. Bursts of
// events for one file are coalesced.
func (s *Storage) Watch(ctx context.Context, onChange func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	pending := make(map[string]time.Time)
	tick := time.NewTicker(s.settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if key, ok := keyFromPath(ev.Name); ok {
				pending[key] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("storage watcher error", slog.String("error", err.Error()))

		case now := <-tick.C:
			for key, at := range pending {
				if now.Sub(at) < s.settle {
					continue
				}
				delete(pending, key)
				if s.ownWrite(key) {
					continue
				}
				s.logger.Debug("storage document changed externally", slog.String("key", key))
				onChange(key)
			}
		}
	}
}
