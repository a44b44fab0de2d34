package audit

import (
	"context"
	"database/sql"

	"form-shield/pkg/utils"
)

// PostgresRepo appends to audit_events. The table has no UPDATE or DELETE path.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, actor_user_id, actor_role, ip_address, target_id, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	var meta any
	if e.Metadata != "" {
		meta = e.Metadata
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		utils.NullString(e.ActorUserID),
		utils.NullString(e.ActorRole),
		utils.NullString(e.IPAddress),
		utils.NullString(e.TargetID),
		e.Message,
		meta,
		e.CreatedAt,
	)
	return err
}
