package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("tenant: not found")
	ErrInvalidArgument = errors.New("tenant: invalid argument")
)

// Repository abstracts client persistence so webhook handlers can be tested
// against an in-memory implementation.
type Repository interface {
	FindByTwilioNumber(ctx context.Context, number string) (Client, error)
	FindByID(ctx context.Context, id string) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) (Client, error)
	List(ctx context.Context) ([]Client, error)
}

// PGRepository stores clients in Postgres. Settings round-trips through a
// JSONB column.
type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository { return &PGRepository{db: db} }

const clientColumns = `id, name, twilio_number, business_phone, settings, created_at, updated_at`

func (r *PGRepository) FindByTwilioNumber(ctx context.Context, number string) (Client, error) {
	const q = `
SELECT ` + clientColumns + `
FROM clients
WHERE twilio_number = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, number))
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (Client, error) {
	const q = `
SELECT ` + clientColumns + `
FROM clients
WHERE id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepository) Create(ctx context.Context, c Client) (Client, error) {
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return Client{}, fmt.Errorf("tenant: marshal settings: %w", err)
	}
	const q = `
INSERT INTO clients (id, name, twilio_number, business_phone, settings, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + clientColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		c.ID, c.Name, c.TwilioNumber, c.BusinessPhone, settings, c.CreatedAt, c.UpdatedAt,
	))
}

func (r *PGRepository) Update(ctx context.Context, c Client) (Client, error) {
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return Client{}, fmt.Errorf("tenant: marshal settings: %w", err)
	}
	const q = `
UPDATE clients
SET name = $2, twilio_number = $3, business_phone = $4, settings = $5, updated_at = $6
WHERE id = $1
RETURNING ` + clientColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		c.ID, c.Name, c.TwilioNumber, c.BusinessPhone, settings, c.UpdatedAt,
	))
}

func (r *PGRepository) List(ctx context.Context) ([]Client, error) {
	const q = `
SELECT ` + clientColumns + `
FROM clients
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepository) scanOne(row rowScanner) (Client, error) {
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func scanClient(row rowScanner) (Client, error) {
	var c Client
	var settings []byte
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.TwilioNumber,
		&c.BusinessPhone,
		&settings,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Client{}, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &c.Settings); err != nil {
			return Client{}, fmt.Errorf("tenant: unmarshal settings: %w", err)
		}
	}
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return c, nil
}
