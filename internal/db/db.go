// Package db provides PostgreSQL access for the portfolio key/value table.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS portfolio_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the key/value table if it does not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create portfolio_kv table: %w", err)
	}
	return nil
}

// GetValue returns the value stored under key. Missing keys return (nil, false, nil).
func (db *DB) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := db.pool.QueryRow(ctx,
		`SELECT value FROM portfolio_kv WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get value %s: %w", key, err)
	}
	return value, true, nil
}

// PutValue inserts or replaces the value stored under key
func (db *DB) PutValue(ctx context.Context, key string, value []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO portfolio_kv (key, value)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to put value %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (db *DB) DeleteValue(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM portfolio_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete value %s: %w", key, err)
	}
	return nil
}
