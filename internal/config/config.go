// Package config loads taxgame settings from TOML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// LocalFile is picked up from the working directory when present.
const LocalFile = "taxgame.toml"

// Config holds all taxgame configuration.
type Config struct {
	Site    SiteConfig    `toml:"site"`
	Build   BuildConfig   `toml:"build"`
	Serve   ServeConfig   `toml:"serve"`
	Runtime RuntimeConfig `toml:"runtime"`
	Log     LogConfig     `toml:"log"`
}

// SiteConfig locates the site's inputs and outputs.
type SiteConfig struct {
	BaseURL   string `toml:"base_url" env:"TAXGAME_BASE_URL"`
	DataDir   string `toml:"data_dir" env:"TAXGAME_DATA_DIR"`
	DistDir   string `toml:"dist_dir" env:"TAXGAME_DIST_DIR"`
	Template  string `toml:"template,omitempty" env:"TAXGAME_TEMPLATE"`
	ClientDir string `toml:"client_dir,omitempty" env:"TAXGAME_CLIENT_DIR"`
}

// BuildConfig tunes the page compositor.
type BuildConfig struct {
	Workers      int    `toml:"workers" env:"TAXGAME_WORKERS"`
	Manifest     bool   `toml:"manifest"`
	ManifestPath string `toml:"manifest_path,omitempty"`
}

// ServeConfig holds preview server settings.
type ServeConfig struct {
	Addr         string `toml:"addr" env:"TAXGAME_SERVE_ADDR"`
	PollInterval int    `toml:"poll_interval_secs"`
}

// RuntimeConfig holds settings for the play front end.
type RuntimeConfig struct {
	RecomputeTrends bool   `toml:"recompute_trends"`
	RetryMax        int    `toml:"retry_max"`
	Theme           string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"TAXGAME_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			BaseURL:   "https://tax.mgks.dev",
			DataDir:   "data",
			DistDir:   "dist",
			ClientDir: "client",
		},
		Build: BuildConfig{
			Manifest: true,
		},
		Serve: ServeConfig{
			Addr:         "127.0.0.1:8080",
			PollInterval: 2,
		},
		Runtime: RuntimeConfig{
			RecomputeTrends: true,
			RetryMax:        3,
			Theme:           "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taxgame")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "taxgame")
}

// Path returns the full path to the user config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Resolve picks the config file: an explicit path, then ./taxgame.toml,
// then the user config.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(LocalFile); err == nil {
		return LocalFile
	}
	return Path()
}

// Load reads the config file at path, returning defaults if it doesn't
// exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads the config file at path over the defaults, without
// environment overrides. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user or Resolve
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ParseEnv overlays TAXGAME_* environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
