package audit

import "time"

// Event is an immutable, append-only record of a dashboard user action.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; never block the primary flow on
//   audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	// Action is the business category of the record.
	Action Action `json:"action" db:"action"`

	// ActorUser is the authenticated dashboard user causing the event.
	ActorUser string `json:"actor_user,omitempty" db:"actor_user"`
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the resolved client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// ClientID scopes the event to a tenant when the action targets one.
	ClientID string `json:"client_id,omitempty" db:"client_id"`

	// TargetID names the affected record (lead, contact, interaction).
	TargetID string `json:"target_id,omitempty" db:"target_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Action string

const (
	ActionLogin         Action = "login"
	ActionClientCreated Action = "client_created"
	ActionClientUpdated Action = "client_updated"
	ActionLeadUpdated   Action = "lead_updated"
	ActionSMSSent       Action = "sms_sent"
)
