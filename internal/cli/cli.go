// Package cli implements the promptmap command-line interface.
//
// This package provides commands for generating mindmaps from free-text
// prompts, rendering existing mindmap documents, serving the HTTP API, and
// managing the artifact cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - generate: Expand a prompt into a mindmap image via a language model
//   - render: Render an existing mindmap JSON document
//   - serve: Run the HTTP API
//   - cache: Manage the pipeline cache
package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/promptmap/promptmap/pkg/buildinfo"
	"github.com/promptmap/promptmap/pkg/cache"
	"github.com/promptmap/promptmap/pkg/config"
	"github.com/promptmap/promptmap/pkg/generate"
	"github.com/promptmap/promptmap/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "promptmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the config file location (--config).
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Promptmap turns prompts into mindmap images",
		Long:         `Promptmap expands a free-text prompt into a mindmap via a language model and renders it as a tree diagram, or renders mindmap JSON documents directly.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default promptmap.toml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file plus environment overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// newRunnerWithCache wraps an already-constructed cache backend.
func (c *CLI) newRunnerWithCache(store cache.Cache) *pipeline.Runner {
	return pipeline.NewRunner(store, nil, c.Logger)
}

func newCache(cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cfg.CacheDir())
}

// newGenerator builds the model collaborator from config. The offline flag
// swaps in the deterministic static generator.
func newGenerator(cfg config.Config, offline bool) (generate.Generator, error) {
	if offline {
		return generate.NewStatic(), nil
	}
	var opts []generate.OpenAIOption
	if cfg.Generate.Model != "" {
		opts = append(opts, generate.WithModel(cfg.Generate.Model))
	}
	if cfg.Generate.BaseURL != "" {
		opts = append(opts, generate.WithBaseURL(cfg.Generate.APIKey, cfg.Generate.BaseURL))
	}
	return generate.NewOpenAI(cfg.Generate.APIKey, opts...)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	return strings.Split(s, ",")
}
