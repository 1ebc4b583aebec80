package interaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("interaction: not found")
	ErrInvalidArgument = errors.New("interaction: invalid argument")
)

// CallResult carries the outcome of a completed dial attempt.
type CallResult struct {
	Status          Status
	DurationSeconds int
	DialCallStatus  string
	Answered        bool
	IsMissedCall    bool
}

// VoicemailResult carries a finished voicemail recording.
type VoicemailResult struct {
	RecordingURL    string
	DurationSeconds int
}

// ListFilter narrows dashboard listings. Zero values mean "no filter".
type ListFilter struct {
	ClientID  string
	Type      Type
	Direction Direction
	Limit     int
}

// Repository abstracts interaction persistence.
type Repository interface {
	Insert(ctx context.Context, in Interaction) (Interaction, error)
	GetByID(ctx context.Context, id string) (Interaction, error)
	FindBySID(ctx context.Context, sid string) (Interaction, error)
	UpdateCallResult(ctx context.Context, id string, res CallResult, now time.Time) (Interaction, error)
	UpdateVoicemail(ctx context.Context, id string, res VoicemailResult, now time.Time) error

	// UpdateStatusBySID applies a provider delivery-status callback. An
	// unknown SID is a no-op, not an error. Terminal statuses are left
	// untouched.
	UpdateStatusBySID(ctx context.Context, sid string, status Status, now time.Time) error

	List(ctx context.Context, f ListFilter) ([]Interaction, error)
	ListByClient(ctx context.Context, clientID string, from, to time.Time) ([]Interaction, error)
}

type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository { return &PGRepository{db: db} }

const interactionColumns = `
id, client_id, contact_id, type, direction, from_number, to_number, status,
twilio_sid, content, duration_seconds, dial_call_status, answered,
is_missed_call, is_auto_response, parent_interaction_id, recording_url,
created_at, updated_at`

func (r *PGRepository) Insert(ctx context.Context, in Interaction) (Interaction, error) {
	const q = `
INSERT INTO interactions (
  id, client_id, contact_id, type, direction, from_number, to_number, status,
  twilio_sid, content, duration_seconds, dial_call_status, answered,
  is_missed_call, is_auto_response, parent_interaction_id, recording_url,
  created_at, updated_at
) VALUES (
  $1,NULLIF($2,''),NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NULLIF($16,''),$17,$18,$19
)
RETURNING ` + interactionColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		in.ID, in.ClientID, in.ContactID, in.Type, in.Direction,
		in.FromNumber, in.ToNumber, in.Status, in.TwilioSID, in.Content,
		in.DurationSeconds, in.DialCallStatus, in.Answered,
		in.IsMissedCall, in.IsAutoResponse, in.ParentInteractionID,
		in.RecordingURL, in.CreatedAt, in.UpdatedAt,
	))
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Interaction, error) {
	const q = `
SELECT ` + interactionColumns + `
FROM interactions
WHERE id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepository) FindBySID(ctx context.Context, sid string) (Interaction, error) {
	const q = `
SELECT ` + interactionColumns + `
FROM interactions
WHERE twilio_sid = $1
ORDER BY created_at ASC
LIMIT 1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, sid))
}

func (r *PGRepository) UpdateCallResult(ctx context.Context, id string, res CallResult, now time.Time) (Interaction, error) {
	const q = `
UPDATE interactions
SET status = $2,
    duration_seconds = $3,
    dial_call_status = $4,
    answered = $5,
    is_missed_call = $6,
    updated_at = $7
WHERE id = $1
RETURNING ` + interactionColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		id, res.Status, res.DurationSeconds, res.DialCallStatus,
		res.Answered, res.IsMissedCall, now,
	))
}

func (r *PGRepository) UpdateVoicemail(ctx context.Context, id string, res VoicemailResult, now time.Time) error {
	const q = `
UPDATE interactions
SET type = $2,
    status = $3,
    recording_url = $4,
    duration_seconds = $5,
    is_missed_call = TRUE,
    updated_at = $6
WHERE id = $1
`
	tag, err := r.db.ExecContext(ctx, q, id, TypeVoicemail, StatusCompleted, res.RecordingURL, res.DurationSeconds, now)
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

func (r *PGRepository) UpdateStatusBySID(ctx context.Context, sid string, status Status, now time.Time) error {
	// Unknown SID matches zero rows; that is fine. The status guard keeps
	// a late "sent" callback from reverting "delivered".
	const q = `
UPDATE interactions
SET status = $2, updated_at = $3
WHERE twilio_sid = $1
  AND status NOT IN ('delivered','failed','undelivered','received')
`
	_, err := r.db.ExecContext(ctx, q, sid, status, now)
	return err
}

func (r *PGRepository) List(ctx context.Context, f ListFilter) ([]Interaction, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ClientID != "" {
		add("client_id = $%d", f.ClientID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Direction != "" {
		add("direction = $%d", f.Direction)
	}

	q := `SELECT ` + interactionColumns + ` FROM interactions`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *PGRepository) ListByClient(ctx context.Context, clientID string, from, to time.Time) ([]Interaction, error) {
	const q = `
SELECT ` + interactionColumns + `
FROM interactions
WHERE client_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, clientID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepository) scanOne(row rowScanner) (Interaction, error) {
	in, err := scanInteraction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interaction{}, ErrNotFound
		}
		return Interaction{}, err
	}
	return in, nil
}

func collect(rows *sql.Rows) ([]Interaction, error) {
	var out []Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanInteraction(row rowScanner) (Interaction, error) {
	var in Interaction
	var clientID, contactID, parentID, content, dialStatus, recordingURL sql.NullString
	var duration sql.NullInt64
	if err := row.Scan(
		&in.ID,
		&clientID,
		&contactID,
		&in.Type,
		&in.Direction,
		&in.FromNumber,
		&in.ToNumber,
		&in.Status,
		&in.TwilioSID,
		&content,
		&duration,
		&dialStatus,
		&in.Answered,
		&in.IsMissedCall,
		&in.IsAutoResponse,
		&parentID,
		&recordingURL,
		&in.CreatedAt,
		&in.UpdatedAt,
	); err != nil {
		return Interaction{}, err
	}
	in.ClientID = clientID.String
	in.ContactID = contactID.String
	in.ParentInteractionID = parentID.String
	in.Content = content.String
	in.DialCallStatus = dialStatus.String
	in.RecordingURL = recordingURL.String
	in.DurationSeconds = int(duration.Int64)
	return in, nil
}
