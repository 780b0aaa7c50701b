package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/store"
)

// watchEvent is printed for every externally changed document.
type watchEvent struct {
	Time  time.Time `json:"time"`
	Owner string    `json:"owner"`
	Store string    `json:"store"`
	Items any       `json:"items"`
}

func newWatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print stores as other processes change them",
		Long: `watch follows the file storage directory and re-hydrates a store every
time another process writes it, printing the new contents. Only the file
storage backend can be watched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			w, ok := e.storage.(storage.Watcher)
			if !ok {
				return fmt.Errorf("storage %q cannot be watched", e.opts.backend)
			}

			fmt.Fprintf(e.out, "watching %s\n", e.opts.dir)
			err := w.Watch(cmd.Context(), func(key string) {
				ev, err := rehydrate(cmd.Context(), e, key)
				if err != nil {
					e.logger.WarnContext(cmd.Context(), "failed to reload store",
						slog.String("key", key),
						slog.String("error", err.Error()),
					)
					return
				}
				if ev != nil {
					_ = e.print(ev)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// rehydrate loads the store behind a changed storage key. Keys that are not
// store documents yield nil.
func rehydrate(ctx context.Context, e *env, key string) (*watchEvent, error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 {
		return nil, nil
	}
	owner, name := key[:i], key[i+1:]
	scoped := storage.Scoped(e.storage, owner)
	ev := &watchEvent{Time: time.Now().UTC(), Owner: owner, Store: name}

	switch name {
	case store.CartKey:
		s := store.NewCartStore(scoped, nil, e.logger)
		if err := s.Hydrate(ctx); err != nil {
			return nil, err
		}
		ev.Items = s.Cart().Items
	case store.WishlistKey:
		s := store.NewWishlistStore(scoped, nil, e.logger)
		if err := s.Hydrate(ctx); err != nil {
			return nil, err
		}
		ev.Items = s.List().Items
	case store.CompareKey:
		s := store.NewCompareStore(scoped, nil, e.logger)
		if err := s.Hydrate(ctx); err != nil {
			return nil, err
		}
		ev.Items = s.List().Items
	default:
		return nil, nil
	}
	return ev, nil
}
