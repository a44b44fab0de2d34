package lists

import (
	"context"
	"database/sql"
	"errors"

	"form-shield/pkg/utils"
)

type Repository interface {
	// UpsertWhitelist inserts the entry or reactivates an existing one with
	// the same email, returning the stored row.
	UpsertWhitelist(ctx context.Context, e WhitelistEntry) (WhitelistEntry, error)
	DeactivateWhitelist(ctx context.Context, id int64) error
	FindActiveWhitelist(ctx context.Context, email string) (bool, error)
	ListWhitelist(ctx context.Context, activeOnly bool) ([]WhitelistEntry, error)

	UpsertBlocklist(ctx context.Context, e BlocklistEntry) (BlocklistEntry, error)
	DeactivateBlocklist(ctx context.Context, id int64) error
	FindActiveBlocklist(ctx context.Context, t BlockType, value string) (bool, error)
	ListBlocklist(ctx context.Context, activeOnly bool) ([]BlocklistEntry, error)
}

// PostgresRepo assumes:
//
//	whitelist(id bigserial, email text unique, domain, reason, added_by, is_active, created_at)
//	blocklist(id bigserial, type, value, reason, added_by, is_active, created_at, unique(type, value))
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) UpsertWhitelist(ctx context.Context, e WhitelistEntry) (WhitelistEntry, error) {
	const q = `
INSERT INTO whitelist (email, domain, reason, added_by, is_active, created_at)
VALUES ($1, $2, $3, $4, TRUE, $5)
ON CONFLICT (email) DO UPDATE
	SET is_active = TRUE, reason = EXCLUDED.reason, added_by = EXCLUDED.added_by
RETURNING id, email, domain, COALESCE(reason, ''), added_by, is_active, created_at
`
	var out WhitelistEntry
	err := r.db.QueryRowContext(ctx, q, e.Email, e.Domain, utils.NullString(e.Reason), e.AddedBy, e.CreatedAt).Scan(
		&out.ID,
		&out.Email,
		&out.Domain,
		&out.Reason,
		&out.AddedBy,
		&out.IsActive,
		&out.CreatedAt,
	)
	return out, err
}

func (r *PostgresRepo) DeactivateWhitelist(ctx context.Context, id int64) error {
	return r.deactivate(ctx, `UPDATE whitelist SET is_active = FALSE WHERE id = $1`, id)
}

func (r *PostgresRepo) FindActiveWhitelist(ctx context.Context, email string) (bool, error) {
	const q = `SELECT 1 FROM whitelist WHERE email = $1 AND is_active LIMIT 1`
	return r.exists(ctx, q, email)
}

func (r *PostgresRepo) ListWhitelist(ctx context.Context, activeOnly bool) ([]WhitelistEntry, error) {
	const q = `
SELECT id, email, domain, COALESCE(reason, ''), added_by, is_active, created_at
FROM whitelist
WHERE is_active OR NOT $1
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WhitelistEntry
	for rows.Next() {
		var e WhitelistEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Domain, &e.Reason, &e.AddedBy, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpsertBlocklist(ctx context.Context, e BlocklistEntry) (BlocklistEntry, error) {
	const q = `
INSERT INTO blocklist (type, value, reason, added_by, is_active, created_at)
VALUES ($1, $2, $3, $4, TRUE, $5)
ON CONFLICT (type, value) DO UPDATE
	SET is_active = TRUE, reason = EXCLUDED.reason, added_by = EXCLUDED.added_by
RETURNING id, type, value, COALESCE(reason, ''), added_by, is_active, created_at
`
	var (
		out BlocklistEntry
		typ string
	)
	err := r.db.QueryRowContext(ctx, q, string(e.Type), e.Value, utils.NullString(e.Reason), e.AddedBy, e.CreatedAt).Scan(
		&out.ID,
		&typ,
		&out.Value,
		&out.Reason,
		&out.AddedBy,
		&out.IsActive,
		&out.CreatedAt,
	)
	out.Type = BlockType(typ)
	return out, err
}

func (r *PostgresRepo) DeactivateBlocklist(ctx context.Context, id int64) error {
	return r.deactivate(ctx, `UPDATE blocklist SET is_active = FALSE WHERE id = $1`, id)
}

func (r *PostgresRepo) FindActiveBlocklist(ctx context.Context, t BlockType, value string) (bool, error) {
	const q = `SELECT 1 FROM blocklist WHERE type = $1 AND value = $2 AND is_active LIMIT 1`
	return r.exists(ctx, q, string(t), value)
}

func (r *PostgresRepo) ListBlocklist(ctx context.Context, activeOnly bool) ([]BlocklistEntry, error) {
	const q = `
SELECT id, type, value, COALESCE(reason, ''), added_by, is_active, created_at
FROM blocklist
WHERE is_active OR NOT $1
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlocklistEntry
	for rows.Next() {
		var (
			e   BlocklistEntry
			typ string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Value, &e.Reason, &e.AddedBy, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = BlockType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PostgresRepo) deactivate(ctx context.Context, q string, id int64) error {
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

