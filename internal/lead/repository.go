package lead

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNotFound        = errors.New("lead: not found")
	ErrInvalidArgument = errors.New("lead: invalid argument")
)

// Repository abstracts lead persistence.
type Repository interface {
	Insert(ctx context.Context, l Lead) (Lead, error)
	GetByID(ctx context.Context, id string) (Lead, error)
	Update(ctx context.Context, l Lead) (Lead, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, clientID string) ([]Lead, error)
}

type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository { return &PGRepository{db: db} }

const leadColumns = `
id, client_id, contact_id, title, status, priority, type, needs_follow_up,
source_interaction_id, created_at, updated_at`

func (r *PGRepository) Insert(ctx context.Context, l Lead) (Lead, error) {
	const q = `
INSERT INTO leads (
  id, client_id, contact_id, title, status, priority, type, needs_follow_up,
  source_interaction_id, created_at, updated_at
) VALUES (
  $1,NULLIF($2,''),NULLIF($3,''),$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11
)
RETURNING ` + leadColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		l.ID, l.ClientID, l.ContactID, l.Title, l.Status, l.Priority, l.Type,
		l.NeedsFollowUp, l.SourceInteractionID, l.CreatedAt, l.UpdatedAt,
	))
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepository) Update(ctx context.Context, l Lead) (Lead, error) {
	const q = `
UPDATE leads
SET title = $2, status = $3, priority = $4, type = $5, needs_follow_up = $6, updated_at = $7
WHERE id = $1
RETURNING ` + leadColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		l.ID, l.Title, l.Status, l.Priority, l.Type, l.NeedsFollowUp, l.UpdatedAt,
	))
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := tag.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) List(ctx context.Context, clientID string) ([]Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads`
	var args []any
	if clientID != "" {
		q += ` WHERE client_id = $1`
		args = append(args, clientID)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepository) scanOne(row rowScanner) (Lead, error) {
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return l, nil
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	var clientID, contactID, sourceID sql.NullString
	if err := row.Scan(
		&l.ID,
		&clientID,
		&contactID,
		&l.Title,
		&l.Status,
		&l.Priority,
		&l.Type,
		&l.NeedsFollowUp,
		&sourceID,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return Lead{}, err
	}
	l.ClientID = clientID.String
	l.ContactID = contactID.String
	l.SourceInteractionID = sourceID.String
	return l, nil
}
