// Package config loads promptmap settings from a TOML file plus environment
// overrides. File values override built-in defaults; environment variables
// override the file.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/promptmap/promptmap/pkg/layout"
)

// DefaultFileName is looked up in the working directory when no explicit
// path is given.
const DefaultFileName = "promptmap.toml"

// Config holds all user-tunable settings.
type Config struct {
	Render   RenderConfig   `toml:"render"`
	Generate GenerateConfig `toml:"generate"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
}

// RenderConfig tunes canvas and layout geometry. Zero values fall back to the
// layout package defaults.
type RenderConfig struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	WrapWidth float64 `toml:"wrap_width"`
	MaxDepth  int     `toml:"max_depth"`
	FontSize  float64 `toml:"font_size"`
}

// GenerateConfig configures the model collaborator.
type GenerateConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	// APIKey is normally supplied via OPENAI_API_KEY rather than the file.
	APIKey string `toml:"api_key"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis" or "none". Empty means "file".
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: "file"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads configuration from path. An empty path tries DefaultFileName in
// the working directory; a missing file is not an error. A .env file, if
// present, is loaded before environment overrides are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultFileName
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// Missing .env is the common case and not an error.
	_ = godotenv.Load()

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers environment variables over the loaded config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Generate.APIKey = v
	}
	if v := os.Getenv("PROMPTMAP_MODEL"); v != "" {
		cfg.Generate.Model = v
	}
	if v := os.Getenv("PROMPTMAP_BASE_URL"); v != "" {
		cfg.Generate.BaseURL = v
	}
	if v := os.Getenv("PROMPTMAP_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("PROMPTMAP_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("PROMPTMAP_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("PROMPTMAP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PROMPTMAP_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.MaxDepth = n
		}
	}
}

// LayoutConfig converts the render section into a layout.Config, with zero
// values resolved by the layout defaults.
func (c Config) LayoutConfig() layout.Config {
	return layout.Config{
		Width:     c.Render.Width,
		Height:    c.Render.Height,
		WrapWidth: c.Render.WrapWidth,
		MaxDepth:  c.Render.MaxDepth,
		FontSize:  c.Render.FontSize,
	}
}

// CacheDir returns the configured cache directory, defaulting to a promptmap
// subdirectory of the user cache dir.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "promptmap")
}
