package contact

import "time"

// Contact is a known person reachable by phone. Inbound events attach a
// contact when the counterparty number matches.
type Contact struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone" db:"phone"`
	Email   string `json:"email,omitempty" db:"email"`
	Company string `json:"company,omitempty" db:"company"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
