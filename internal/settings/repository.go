package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository is a small named-value store backed by the options table. The
// settings document and the credential key both live here.
type Repository interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

// PostgresRepo assumes:
//
//	options(name text primary key, value text not null, updated_at timestamptz not null)
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) GetOption(ctx context.Context, name string) (string, bool, error) {
	const q = `SELECT value FROM options WHERE name = $1`
	var v string
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *PostgresRepo) SetOption(ctx context.Context, name, value string) error {
	const q = `
INSERT INTO options (name, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q, name, value, r.clock().UTC())
	return err
}
