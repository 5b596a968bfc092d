package storage

import (
	"context"

	"github.com/jonathan/portfolio-studio/internal/db"
)

// Postgres stores values in the portfolio_kv table.
type Postgres struct {
	db *db.DB
}

// NewPostgres connects to dsn and creates the table when missing.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, &Error{Op: "open", Message: "postgres storage requires a DSN"}
	}
	conn, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, &Error{Op: "open", Cause: err}
	}
	if err := conn.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, &Error{Op: "open", Cause: err}
	}
	return &Postgres{db: conn}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := p.db.GetValue(ctx, key)
	if err != nil {
		return nil, false, &Error{Op: "get", Key: key, Cause: err}
	}
	return v, ok, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if err := p.db.PutValue(ctx, key, value); err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	if err := p.db.DeleteValue(ctx, key); err != nil {
		return &Error{Op: "remove", Key: key, Cause: err}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
