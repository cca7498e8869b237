package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/humsha/educe/internal/server"
	"github.com/humsha/educe/pkg/cache"
	"github.com/humsha/educe/pkg/pipeline"
	"github.com/humsha/educe/pkg/store"
)

// serveFlags holds the command-line flags for the serve command.
type serveFlags struct {
	addr     string // listen address
	redisURL string // Redis cache backend (empty: file cache)
	mongoURI string // MongoDB tree store (empty: in-memory store)
	mongoDB  string // MongoDB database name
	noCache  bool   // disable caching entirely
	noStore  bool   // disable the tree store endpoints
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	flags := serveFlags{
		addr:    ":8080",
		mongoDB: appName,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Long: `Run the HTTP conversion API.

POST /api/convert accepts a dependency document and returns the converted
constituency tree. With a store configured, POST /api/trees persists
converted trees for later retrieval.

By default conversions are cached on disk and trees are stored in memory;
--redis and --mongo switch both to shared backends for multi-instance
deployments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", flags.addr, "listen address")
	cmd.Flags().StringVar(&flags.redisURL, "redis", "", "Redis URL for the artifact cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&flags.mongoURI, "mongo", "", "MongoDB URI for the tree store (e.g. mongodb://localhost:27017)")
	cmd.Flags().StringVar(&flags.mongoDB, "mongo-db", flags.mongoDB, "MongoDB database name")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.noStore, "no-store", false, "disable the tree store endpoints")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags *serveFlags) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cch, err := c.serveCache(flags)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	// A shared Redis backend may serve other tools; namespace our keys.
	var keyer cache.Keyer
	if flags.redisURL != "" {
		keyer = cache.NewScopedKeyer(nil, appName+":")
	}
	runner := pipeline.NewRunner(cch, keyer, c.Logger)
	defer runner.Close()

	st, err := c.serveStore(ctx, flags)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	if st != nil {
		defer st.Close(context.Background())
	}

	srv := &http.Server{
		Addr:              flags.addr,
		Handler:           server.NewServer(runner, st, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", flags.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveCache picks the cache backend: Redis when configured, the local
// file cache otherwise.
func (c *CLI) serveCache(flags *serveFlags) (cache.Cache, error) {
	if flags.noCache {
		return cache.NewNullCache(), nil
	}
	if flags.redisURL != "" {
		c.Logger.Info("using redis cache", "url", flags.redisURL)
		return cache.NewRedisCache(flags.redisURL)
	}
	return newCache(false)
}

// serveStore picks the tree store backend: MongoDB when configured, an
// in-memory store otherwise.
func (c *CLI) serveStore(ctx context.Context, flags *serveFlags) (store.Store, error) {
	if flags.noStore {
		return nil, nil
	}
	if flags.mongoURI != "" {
		c.Logger.Info("using mongodb store", "db", flags.mongoDB)
		st, err := store.NewMongoStore(ctx, flags.mongoURI, flags.mongoDB)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return store.NewMemoryStore(), nil
}
