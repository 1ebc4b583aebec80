package interaction

import "time"

// Interaction is one logged call, SMS, or voicemail event.
//
// Invariants:
// - Rows are written once per provider event and only mutated by later
//   status callbacks for the same event; never deleted by the event flow.
// - The inbound event row exists before any outbound send is attempted, so
//   a send can always be correlated back to its trigger.
// - Terminal statuses are never reverted.
type Interaction struct {
	ID       string `json:"id" db:"id"`
	ClientID string `json:"client_id" db:"client_id"`

	// ContactID links to a known contact when the counterparty number
	// matches one; optional.
	ContactID string `json:"contact_id,omitempty" db:"contact_id"`

	Type      Type      `json:"type" db:"type"`
	Direction Direction `json:"direction" db:"direction"`

	FromNumber string `json:"from_number" db:"from_number"`
	ToNumber   string `json:"to_number" db:"to_number"`

	Status Status `json:"status" db:"status"`

	// TwilioSID is the provider's event identifier (CallSid or MessageSid).
	TwilioSID string `json:"twilio_sid" db:"twilio_sid"`

	// Content is the message body for SMS rows.
	Content string `json:"content,omitempty" db:"content"`

	DurationSeconds int `json:"duration_seconds,omitempty" db:"duration_seconds"`

	// DialCallStatus and Answered record the raw dial outcome for calls.
	DialCallStatus string `json:"dial_call_status,omitempty" db:"dial_call_status"`
	Answered       bool   `json:"answered" db:"answered"`

	IsMissedCall   bool `json:"is_missed_call" db:"is_missed_call"`
	IsAutoResponse bool `json:"is_auto_response" db:"is_auto_response"`

	// ParentInteractionID links an automatic reply to the inbound event
	// that triggered it.
	ParentInteractionID string `json:"parent_interaction_id,omitempty" db:"parent_interaction_id"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Type string

const (
	TypeCall      Type = "call"
	TypeSMS       Type = "sms"
	TypeVoicemail Type = "voicemail"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Status values.
//
// Calls:    ringing -> completed | no-answer
// Outbound: queued -> sent -> delivered | failed | undelivered
// Inbound messages land as received and stay there.
type Status string

const (
	StatusRinging     Status = "ringing"
	StatusCompleted   Status = "completed"
	StatusNoAnswer    Status = "no-answer"
	StatusQueued      Status = "queued"
	StatusSent        Status = "sent"
	StatusDelivered   Status = "delivered"
	StatusFailed      Status = "failed"
	StatusUndelivered Status = "undelivered"
	StatusReceived    Status = "received"
)

// IsTerminal reports whether a status may never be replaced by a later
// provider callback.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusUndelivered, StatusReceived:
		return true
	default:
		return false
	}
}
