package apilog

import (
	"context"
	"database/sql"
	"time"

	"form-shield/pkg/utils"
)

type Repository interface {
	Insert(ctx context.Context, e Entry) error
	UsageByProvider(ctx context.Context, from time.Time) ([]ProviderUsage, error)
	CostSince(ctx context.Context, from time.Time) (float64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresRepo writes to the api_logs table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO api_logs (provider, model, request_data, response_data, tokens_used, input_tokens,
	output_tokens, cost, response_time, status, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	var resp any
	if len(e.ResponseData) > 0 {
		resp = string(e.ResponseData)
	}
	_, err := r.db.ExecContext(ctx, q,
		e.Provider,
		utils.NullString(e.Model),
		string(e.RequestData),
		resp,
		e.TokensUsed,
		e.InputTokens,
		e.OutputTokens,
		e.Cost,
		e.ResponseTime,
		string(e.Status),
		utils.NullString(e.ErrorMessage),
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) UsageByProvider(ctx context.Context, from time.Time) ([]ProviderUsage, error) {
	const q = `
SELECT
	provider,
	COUNT(*),
	COALESCE(SUM(tokens_used), 0),
	COALESCE(SUM(cost), 0),
	COALESCE(AVG(response_time), 0),
	COUNT(*) FILTER (WHERE status = 'success'),
	COUNT(*) FILTER (WHERE status = 'error')
FROM api_logs
WHERE created_at >= $1
GROUP BY provider
ORDER BY provider
`
	rows, err := r.db.QueryContext(ctx, q, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProviderUsage
	for rows.Next() {
		var u ProviderUsage
		if err := rows.Scan(
			&u.Provider,
			&u.TotalCalls,
			&u.TotalTokens,
			&u.TotalCost,
			&u.AvgResponseTime,
			&u.SuccessCount,
			&u.ErrorCount,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CostSince(ctx context.Context, from time.Time) (float64, error) {
	const q = `SELECT COALESCE(SUM(cost), 0) FROM api_logs WHERE created_at >= $1`
	var total float64
	if err := r.db.QueryRowContext(ctx, q, from).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
