package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend string `yaml:"backend" toml:"backend"`

	// Path is the SQLite file or the Badger directory. An empty Badger
	// path opens an in-memory database.
	Path string `yaml:"path" toml:"path"`

	RedisAddr   string `yaml:"redis_addr" toml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db" toml:"redis_db"`
	RedisPrefix string `yaml:"redis_prefix" toml:"redis_prefix"`
}

// Open creates the backend described by cfg.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: sqlite backend requires a path")
		}
		return nonNil(OpenSQLite(cfg.Path))
	case BackendBadger:
		if cfg.Path == "" {
			return nonNil(OpenBadgerInMemory())
		}
		return nonNil(OpenBadger(cfg.Path))
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("store: redis backend requires redis_addr")
		}
		return nonNil(DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix, cfg.RedisDB))
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

// nonNil keeps a typed nil pointer from escaping as a non-nil KV.
func nonNil[T KV](kv T, err error) (KV, error) {
	if err != nil {
		return nil, err
	}
	return kv, nil
}
