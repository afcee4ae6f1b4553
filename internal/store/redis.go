package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis is a KV backed by a Redis server. Keys are namespaced with a
// prefix so several apps can share one database.
type Redis struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedis wraps an existing client. Close does not close the client.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, prefix string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, wrap("redis", "open", "", err)
	}
	return &Redis{client: client, prefix: prefix, owned: true}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("redis", "get", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return wrap("redis", "set", key, r.client.Set(ctx, r.prefix+key, value, 0).Err())
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	return wrap("redis", "remove", key, r.client.Del(ctx, r.prefix+key).Err())
}

func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
