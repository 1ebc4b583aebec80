package audit

import (
	"context"
	"database/sql"
)

type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository { return &PGRepository{db: db} }

func (r *PGRepository) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, action, actor_user, actor_role, ip_address, client_id, target_id, message, created_at
) VALUES (
  $1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''),$8,$9
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Action, e.ActorUser, e.ActorRole, e.IPAddress,
		e.ClientID, e.TargetID, e.Message, e.CreatedAt,
	)
	return err
}

func (r *PGRepository) List(ctx context.Context, clientID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
SELECT id, action, actor_user, actor_role, ip_address,
       COALESCE(client_id, ''), COALESCE(target_id, ''), message, created_at
FROM audit_events
WHERE $1 = '' OR client_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.Action, &e.ActorUser, &e.ActorRole, &e.IPAddress,
			&e.ClientID, &e.TargetID, &e.Message, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
