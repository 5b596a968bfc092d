// Package storage persists portfolio documents and saved palettes under
// string keys. Every backend stores opaque JSON bytes; callers own encoding.
package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Storage keys.
const (
	KeyPublished = "portfolio_dashboard_v1"
	KeyDraft     = "portfolio_draft_v1"
	KeyPalettes  = "portfolio_saved_palettes_v1"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Storage is a key/value store for JSON payloads.
type Storage interface {
	// Get returns the value under key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Watcher is implemented by backends that can report external changes.
// Watch blocks until ctx is done, calling onChange with the key that changed.
type Watcher interface {
	Watch(ctx context.Context, onChange func(key string)) error
}

// Options selects and configures a backend.
type Options struct {
	Driver    string
	Dir       string
	DSN       string
	RedisURL  string
	KeyPrefix string
	Logger    *zap.Logger
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Storage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   Storage
		err error
	)
	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		s = NewMemory()
	case DriverFile:
		s, err = NewFile(opts.Dir, logger)
	case DriverPostgres:
		s, err = NewPostgres(ctx, opts.DSN)
	case DriverSQLite:
		s, err = NewSQLite(ctx, opts.DSN)
	case DriverRedis:
		// Redis namespaces keys itself.
		r, err := NewRedis(ctx, opts.RedisURL, opts.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, &Error{Op: "open", Message: fmt.Sprintf("unknown storage driver %q", opts.Driver)}
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("storage opened", zap.String("driver", opts.Driver))
	if opts.KeyPrefix != "" {
		return WithPrefix(s, opts.KeyPrefix), nil
	}
	return s, nil
}

// prefixed namespaces every key of an inner backend.
type prefixed struct {
	inner  Storage
	prefix string
}

// WithPrefix returns a Storage that prepends prefix to every key.
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{inner: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Close() error {
	return p.inner.Close()
}

// Watch forwards changes of keys inside the prefix, with the prefix stripped.
func (p *prefixed) Watch(ctx context.Context, onChange func(key string)) error {
	w, ok := p.inner.(Watcher)
	if !ok {
		<-ctx.Done()
		return nil
	}
	return w.Watch(ctx, func(key string) {
		if strings.HasPrefix(key, p.prefix) {
			onChange(strings.TrimPrefix(key, p.prefix))
		}
	})
}
