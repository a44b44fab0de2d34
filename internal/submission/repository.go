package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"form-shield/pkg/utils"
)

// Repository is the persistence contract for submission records.
type Repository interface {
	Insert(ctx context.Context, r Record) (int64, error)
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Count(ctx context.Context, f Filter) (int, error)
	UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error
	Delete(ctx context.Context, id int64) error

	// CountByHashSince counts records with the given normalized content hash
	// created at or after since.
	CountByHashSince(ctx context.Context, hash string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	ListStats(ctx context.Context, from, to time.Time) ([]Stat, error)
}

// PostgresRepo stores records in the submissions table:
//
//	submissions(id bigserial, form_type, form_id, submission_data jsonb, content_hash,
//	            spam_score, provider_used, provider_response jsonb, status,
//	            ip_address, user_agent, created_at, updated_at)
type PostgresRepo struct {
	db   querier
	txdb *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db, txdb: db} }

// Atomic runs fn against a repository bound to one transaction. An error
// from fn rolls every change back.
func (r *PostgresRepo) Atomic(ctx context.Context, fn func(Repository) error) error {
	if r.txdb == nil {
		return fn(r)
	}
	return utils.WithTx(ctx, r.txdb, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&PostgresRepo{db: tx})
	})
}

const recordColumns = `id, form_type, form_id, submission_data, content_hash, spam_score,
provider_used, provider_response, status, ip_address, user_agent, created_at, updated_at`

func (r *PostgresRepo) Insert(ctx context.Context, rec Record) (int64, error) {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return 0, fmt.Errorf("submission: encode data: %w", err)
	}
	var resp any
	if len(rec.ProviderResponse) > 0 {
		resp = string(rec.ProviderResponse)
	}

	const q = `
INSERT INTO submissions (form_type, form_id, submission_data, content_hash, spam_score,
	provider_used, provider_response, status, ip_address, user_agent, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id
`
	var id int64
	err = r.db.QueryRowContext(ctx, q,
		rec.FormType,
		rec.FormID,
		string(data),
		rec.ContentHash,
		rec.SpamScore,
		utils.NullString(rec.ProviderUsed),
		resp,
		string(rec.Status),
		rec.IPAddress,
		rec.UserAgent,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Record, error) {
	q := `SELECT ` + recordColumns + ` FROM submissions WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Record, error) {
	f = f.normalized()
	where, args := buildWhere(f)

	q := fmt.Sprintf(`SELECT %s FROM submissions %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		recordColumns, where, f.OrderBy, f.Order, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("submission: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("submission: count: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	const q = `UPDATE submissions SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, q, string(status), at, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostgresRepo) CountByHashSince(ctx context.Context, hash string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM submissions WHERE content_hash = $1 AND created_at >= $2`
	var n int
	if err := r.db.QueryRowContext(ctx, q, hash, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) ListStats(ctx context.Context, from, to time.Time) ([]Stat, error) {
	const q = `
SELECT form_type, form_id, status, spam_score, created_at
FROM submissions
WHERE created_at BETWEEN $1 AND $2
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stat
	for rows.Next() {
		var s Stat
		var status string
		if err := rows.Scan(&s.FormType, &s.FormID, &status, &s.SpamScore, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.FormType != "" {
		add("form_type = $%d", f.FormType)
	}
	if f.FormID != "" {
		add("form_id = $%d", f.FormID)
	}
	if !f.DateFrom.IsZero() {
		add("created_at >= $%d", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("created_at <= $%d", f.DateTo)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("submission_data::text ILIKE $%d", "%"+s+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		data     []byte
		provider sql.NullString
		resp     []byte
		status   string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.FormType,
		&rec.FormID,
		&data,
		&rec.ContentHash,
		&rec.SpamScore,
		&provider,
		&resp,
		&status,
		&rec.IPAddress,
		&rec.UserAgent,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return Record{}, fmt.Errorf("submission: decode data: %w", err)
		}
	}
	rec.ProviderUsed = provider.String
	if len(resp) > 0 {
		rec.ProviderResponse = json.RawMessage(resp)
	}
	rec.Status = Status(status)
	return rec, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
