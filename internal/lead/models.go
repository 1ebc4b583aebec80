package lead

import "time"

// Lead is a prospective-customer record derived from interaction activity.
// Its lifecycle is driven by dashboard users; the event flow only creates
// leads, never mutates them.
type Lead struct {
	ID        string `json:"id" db:"id"`
	ClientID  string `json:"client_id,omitempty" db:"client_id"`
	ContactID string `json:"contact_id,omitempty" db:"contact_id"`

	Title string `json:"title" db:"title"`

	Status   Status   `json:"status" db:"status"`
	Priority Priority `json:"priority" db:"priority"`
	Type     Kind     `json:"type" db:"type"`

	// NeedsFollowUp flags leads derived from missed calls and unanswered
	// messages for the follow-up queue.
	NeedsFollowUp bool `json:"needs_follow_up" db:"needs_follow_up"`

	// SourceInteractionID links back to the event that produced the lead.
	SourceInteractionID string `json:"source_interaction_id,omitempty" db:"source_interaction_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type Kind string

const (
	KindLead        Kind = "lead"
	KindTask        Kind = "task"
	KindAppointment Kind = "appointment"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLead, KindTask, KindAppointment:
		return true
	default:
		return false
	}
}
