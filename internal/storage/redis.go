package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys when no prefix is configured.
const DefaultRedisPrefix = "portfolio:"

// Redis stores values as plain redis strings under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
	owned  bool
}

// NewRedis connects to redisURL (redis://host:port/db) and verifies the connection.
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &Error{Op: "open", Message: "invalid redis URL", Cause: err}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &Error{Op: "open", Message: "failed to connect to redis", Cause: err}
	}
	r := NewRedisFromClient(client, prefix)
	r.owned = true
	return r, nil
}

// NewRedisFromClient wraps an existing client. Close leaves the client open.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Client exposes the underlying connection so the event bus can share it.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, &Error{Op: "get", Key: key, Cause: err}
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return &Error{Op: "remove", Key: key, Cause: err}
	}
	return nil
}

func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
