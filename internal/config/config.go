// Package config loads the deep-link service configuration from YAML or
// TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/seancheick/Pharmaguide-sub006/internal/logging"
	"github.com/seancheick/Pharmaguide-sub006/internal/store"
)

// Config holds the full service configuration.
type Config struct {
	Links    LinksConfig    `yaml:"links" toml:"links"`
	Routes   string         `yaml:"routes" toml:"routes"` // CUE route file; empty uses the built-in table
	Store    store.Config   `yaml:"store" toml:"store"`
	Recovery RecoveryConfig `yaml:"recovery" toml:"recovery"`
	Guard    GuardConfig    `yaml:"guard" toml:"guard"`
	Log      logging.Config `yaml:"log" toml:"log"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
}

// LinksConfig describes the URL shapes the app answers to.
type LinksConfig struct {
	Scheme        string   `yaml:"scheme" toml:"scheme"`
	Alternates    []string `yaml:"alternates" toml:"alternates"`
	WebPrefix     string   `yaml:"web_prefix" toml:"web_prefix"`
	AuthRoute     string   `yaml:"auth_route" toml:"auth_route"`
	FallbackRoute string   `yaml:"fallback_route" toml:"fallback_route"`
}

// RecoveryConfig tunes snapshot persistence and validation.
type RecoveryConfig struct {
	MaxAge       time.Duration `yaml:"max_age" toml:"max_age"`
	Version      string        `yaml:"version" toml:"version"`
	SaveThrottle time.Duration `yaml:"save_throttle" toml:"save_throttle"`
	HistorySize  int           `yaml:"history_size" toml:"history_size"`
}

// GuardConfig bounds guard evaluation.
type GuardConfig struct {
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// ServerConfig configures the web link server.
type ServerConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// Default returns sane defaults.
func Default() *Config {
	return &Config{
		Links: LinksConfig{
			Scheme:        "pharmaguide://",
			Alternates:    []string{"https://pharmaguide.app", "https://www.pharmaguide.app"},
			WebPrefix:     "https://pharmaguide.app",
			AuthRoute:     "login",
			FallbackRoute: "home",
		},
		Store: store.Config{Backend: store.BackendMemory},
		Recovery: RecoveryConfig{
			MaxAge:       24 * time.Hour,
			Version:      "1",
			SaveThrottle: time.Second,
			HistorySize:  50,
		},
		Guard:  GuardConfig{Timeout: 5 * time.Second},
		Log:    logging.Config{Level: "info", Format: "console"},
		Server: ServerConfig{Listen: ":8080"},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults.
// Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension (use .yaml, .yml or .toml)", path)
	}

	if cfg.Routes != "" && !filepath.IsAbs(cfg.Routes) {
		cfg.Routes = filepath.Join(filepath.Dir(path), cfg.Routes)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Links.Scheme == "" {
		return fmt.Errorf("links.scheme is required")
	}
	if !strings.Contains(c.Links.Scheme, ":") {
		return fmt.Errorf("links.scheme %q must include \":\" (e.g. \"pharmaguide://\")", c.Links.Scheme)
	}
	for i, alt := range c.Links.Alternates {
		if !strings.HasPrefix(alt, "https://") && !strings.HasPrefix(alt, "http://") {
			return fmt.Errorf("links.alternates[%d]: %q must be an http(s) prefix", i, alt)
		}
	}
	if c.Recovery.MaxAge <= 0 {
		return fmt.Errorf("recovery.max_age must be > 0")
	}
	if c.Recovery.Version == "" {
		return fmt.Errorf("recovery.version is required")
	}
	if c.Recovery.SaveThrottle < 0 {
		return fmt.Errorf("recovery.save_throttle must be >= 0")
	}
	if c.Recovery.HistorySize <= 0 {
		return fmt.Errorf("recovery.history_size must be > 0")
	}
	if c.Guard.Timeout < 0 {
		return fmt.Errorf("guard.timeout must be >= 0")
	}
	switch c.Store.Backend {
	case "", store.BackendMemory, store.BackendSQLite, store.BackendBadger, store.BackendRedis:
	default:
		return fmt.Errorf("store.backend: unsupported backend %q", c.Store.Backend)
	}
	if c.Store.Backend == store.BackendSQLite && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the sqlite backend")
	}
	if c.Store.Backend == store.BackendRedis && c.Store.RedisAddr == "" {
		return fmt.Errorf("store.redis_addr is required for the redis backend")
	}
	return nil
}
