package contact

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/callaback/callaback-dashboard/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("contact: not found")
	ErrInvalidArgument = errors.New("contact: invalid argument")
)

// Repository abstracts contact persistence.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (Contact, error)
	FindByID(ctx context.Context, id string) (Contact, error)
	Create(ctx context.Context, c Contact) (Contact, error)
	Update(ctx context.Context, c Contact) (Contact, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Contact, error)

	// FindOrCreateByPhone resolves an inbound caller to a contact,
	// creating a placeholder row when the number is unknown.
	FindOrCreateByPhone(ctx context.Context, phone string, now time.Time) (Contact, error)
}

type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository { return &PGRepository{db: db} }

const contactColumns = `id, name, phone, email, company, created_at, updated_at`

func (r *PGRepository) FindByPhone(ctx context.Context, phone string) (Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE phone = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, phone))
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepository) Create(ctx context.Context, c Contact) (Contact, error) {
	const q = `
INSERT INTO contacts (id, name, phone, email, company, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + contactColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		c.ID, c.Name, c.Phone, c.Email, c.Company, c.CreatedAt, c.UpdatedAt,
	))
}

func (r *PGRepository) Update(ctx context.Context, c Contact) (Contact, error) {
	const q = `
UPDATE contacts
SET name = $2, phone = $3, email = $4, company = $5, updated_at = $6
WHERE id = $1
RETURNING ` + contactColumns + `
`
	return r.scanOne(r.db.QueryRowContext(ctx, q,
		c.ID, c.Name, c.Phone, c.Email, c.Company, c.UpdatedAt,
	))
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
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

func (r *PGRepository) List(ctx context.Context) ([]Contact, error) {
	const q = `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepository) FindOrCreateByPhone(ctx context.Context, phone string, now time.Time) (Contact, error) {
	if phone == "" {
		return Contact{}, ErrInvalidArgument
	}

	var out Contact
	// Select-then-insert inside one transaction keeps concurrent webhooks
	// for the same caller from racing each other into duplicate contacts.
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const sel = `SELECT ` + contactColumns + ` FROM contacts WHERE phone = $1 FOR UPDATE`
		c, err := scanContact(tx.QueryRowContext(ctx, sel, phone))
		if err == nil {
			out = c
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		const ins = `
INSERT INTO contacts (id, name, phone, email, company, created_at, updated_at)
VALUES ($1,$2,$3,'','',$4,$4)
ON CONFLICT (phone) DO UPDATE SET updated_at = EXCLUDED.updated_at
RETURNING ` + contactColumns + `
`
		c, err = scanContact(tx.QueryRowContext(ctx, ins, uuid.NewString(), phone, phone, now))
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return Contact{}, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepository) scanOne(row rowScanner) (Contact, error) {
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	return c, nil
}

func scanContact(row rowScanner) (Contact, error) {
	var c Contact
	var email, company sql.NullString
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&email,
		&company,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Contact{}, err
	}
	c.Email = email.String
	c.Company = company.String
	return c, nil
}
