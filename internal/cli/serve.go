package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/promptmap/promptmap/internal/server"
	"github.com/promptmap/promptmap/pkg/cache"
	"github.com/promptmap/promptmap/pkg/config"
	"github.com/promptmap/promptmap/pkg/generate"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the promptmap HTTP API",
		Long: `Serve exposes the pipeline over HTTP: POST /v1/mindmaps expands a prompt,
POST /v1/render draws a supplied document, GET /healthz reports liveness. The
cache backend (file, redis, none) comes from the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	store, err := newServerCache(ctx, cfg)
	if err != nil {
		return err
	}

	// The API stays useful without a model credential: the render endpoint
	// works and prompt requests fail with a descriptive error.
	var gen generate.Generator
	if cfg.Generate.APIKey != "" {
		gen, err = newGenerator(cfg, false)
		if err != nil {
			return err
		}
	} else {
		c.Logger.Warn("no API key configured, prompt endpoint disabled")
	}

	runner := c.newRunnerWithCache(store)
	defer runner.Close()

	return server.New(runner, gen, c.Logger).Serve(ctx, addr)
}

// newServerCache selects the cache backend for server deployments. Unlike
// the CLI path it supports Redis for multi-instance setups.
func newServerCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
	default:
		return cache.NewFileCache(cfg.CacheDir())
	}
}
