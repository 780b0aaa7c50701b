// Command storectl drives the cart, wishlist and compare stores against
// local file or sqlite storage, using a JSON catalog for product lookups.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/storage"
	filestorage "github.com/utafrali/storefront/internal/storage/file"
	"github.com/utafrali/storefront/internal/storage/sqlite"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
)

// options are the persistent flags shared by every command.
type options struct {
	backend  string
	dir      string
	dbPath   string
	catalog  string
	session  string
	user     string
	logLevel string
}

// env is what a command runs against. It is built lazily so commands that
// need no storage (filter, token) do not create any.
type env struct {
	opts    *options
	logger  *slog.Logger
	out     io.Writer
	storage storage.Storage
	closer  func() error

	cart     *service.CartService
	wishlist *service.ListService
	compare  *service.ListService
}

func (o *options) owner() string {
	if o.user != "" {
		return middleware.UserOwner(o.user)
	}
	return middleware.GuestOwner(o.session)
}

func (e *env) open(ctx context.Context) error {
	if e.storage != nil {
		return nil
	}

	switch e.opts.backend {
	case "file":
		s, err := filestorage.New(e.opts.dir, e.logger)
		if err != nil {
			return err
		}
		e.storage = s
	case "sqlite":
		s, err := sqlite.Open(ctx, e.opts.dbPath)
		if err != nil {
			return err
		}
		e.storage, e.closer = s, s.Close
	default:
		return fmt.Errorf("unknown storage %q (want file or sqlite)", e.opts.backend)
	}

	products := memory.NewProductRepository()
	if e.opts.catalog != "" {
		f, err := os.Open(e.opts.catalog)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		if products, err = memory.LoadProducts(f); err != nil {
			return err
		}
	}
	catalog := service.NewCatalogService(products, httpclient.DefaultCircuitBreakerConfig("storectl"), e.logger)

	deps := service.StoreDeps{
		Storage:  e.storage,
		Locks:    store.NewLocks(),
		Notifier: notify.Func(e.printNotification),
		Logger:   e.logger,
	}
	e.cart = service.NewCartService(deps, catalog, memory.NewCouponRepository())
	e.wishlist = service.NewWishlistService(deps, catalog)
	e.compare = service.NewCompareService(deps, catalog)
	return nil
}

func (e *env) close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

func (e *env) printNotification(_ context.Context, n domain.Notification) {
	if n.Description != "" {
		fmt.Fprintf(e.out, "[%s] %s: %s\n", n.Variant, n.Title, n.Description)
		return
	}
	fmt.Fprintf(e.out, "[%s] %s\n", n.Variant, n.Title)
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:   "storectl",
		Short: "Inspect and edit storefront carts, wishlists and compare lists",
		Long: `storectl runs the storefront stores against local storage.

Documents are kept per owner: --user selects a signed-in owner, otherwise
--session selects a guest session. Product lookups use the JSON catalog
given with --catalog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			e.out = cmd.OutOrStdout()
			e.logger = logger.NewWithWriter("storectl", opts.logLevel, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.backend, "storage", "file", "storage backend: file or sqlite")
	pf.StringVar(&opts.dir, "dir", ".storefront", "directory for file storage")
	pf.StringVar(&opts.dbPath, "db", ".storefront/storefront.db", "database path for sqlite storage")
	pf.StringVar(&opts.catalog, "catalog", "", "JSON file with the product catalog")
	pf.StringVar(&opts.session, "session", "local", "guest session id")
	pf.StringVar(&opts.user, "user", "", "signed-in user id (overrides --session)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newCartCmd(e),
		newListCmd(e, domain.WishlistPolicy.Name, func() *service.ListService { return e.wishlist }),
		newListCmd(e, domain.ComparePolicy.Name, func() *service.ListService { return e.compare }),
		newFilterCmd(e),
		newCatalogCmd(e),
		newWatchCmd(e),
		newTokenCmd(e),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
