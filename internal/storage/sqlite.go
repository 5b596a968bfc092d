package storage

import (
	"context"
	"database/sql"
	"errors"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// SQLite stores values in a local database file, same table layout as Postgres.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, &Error{Op: "open", Message: "sqlite storage requires a database path"}
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &Error{Op: "open", Message: "failed to open database", Cause: err}
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS portfolio_kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		_ = conn.Close()
		return nil, &Error{Op: "open", Message: "failed to create table", Cause: err}
	}
	return &SQLite{db: conn}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM portfolio_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, &Error{Op: "get", Key: key, Cause: err}
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolio_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM portfolio_kv WHERE key = ?`, key); err != nil {
		return &Error{Op: "remove", Key: key, Cause: err}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
