package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocket-internet-berlin/mathemads-bonspy/internal/api"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/cache"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/pipeline"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/store"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		mongoDB   string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compile HTTP API",
		Long: `Run the compile HTTP API.

Endpoints:
  POST /v1/compile    compile a tree graph to a Bonsai program
  POST /v1/validate   check a tree graph against the structural contract
  GET  /healthz       liveness probe
  GET  /metrics       Prometheus metrics

With --redis the compile cache is shared across replicas; the default is
a local file cache. With --mongo every compilation is archived.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, mongoURI, mongoDB, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for a shared cache (host:port)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for archiving compilations")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "bonspy", "MongoDB database name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisAddr, mongoURI, mongoDB string, noCache bool) error {
	artifacts, err := c.serveCache(ctx, redisAddr, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer artifacts.Close()

	var archive *store.Archive
	if mongoURI != "" {
		archive, err = store.Connect(ctx, mongoURI, mongoDB, "archive")
		if err != nil {
			return fmt.Errorf("connect archive: %w", err)
		}
		defer archive.Close(context.Background())
	}

	runner := pipeline.NewRunner(artifacts, nil, c.Logger)
	server := api.NewServer(runner, archive, c.Logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	printInfo("Listening on %s", addr)
	c.Logger.Info("serving compile API", "addr", addr, "redis", redisAddr != "", "archive", archive != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// serveCache picks the cache backend for the API.
func (c *CLI) serveCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(ctx, redisAddr)
	}
	return newCache(false)
}
