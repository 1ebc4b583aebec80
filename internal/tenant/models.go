package tenant

import "time"

// Client is a business account owning one Twilio routing number.
//
// Invariants:
// - TwilioNumber is unique across clients; inbound events resolve ownership by it.
// - Settings is a free-form configuration bundle; absent keys fall back to
//   generic defaults at the point of use, never at storage time.
type Client struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// TwilioNumber is the provisioned routing number in E.164.
	TwilioNumber string `json:"twilio_number" db:"twilio_number"`

	// BusinessPhone is where inbound calls get forwarded. A client without
	// one cannot receive calls and is treated as unconfigured.
	BusinessPhone string `json:"business_phone" db:"business_phone"`

	Settings Settings `json:"settings" db:"settings"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Settings is stored as a JSONB column. All fields are optional.
type Settings struct {
	// SMSTemplate is the missed-call auto-response body. The literal token
	// {business_name} is replaced with the client name before sending.
	SMSTemplate string `json:"sms_template,omitempty"`

	// ReviewLink and ReviewTemplate drive the operator REVIEW command.
	ReviewLink     string `json:"review_link,omitempty"`
	ReviewTemplate string `json:"review_template,omitempty"`

	// AfterHoursMessage is spoken to callers outside business hours.
	AfterHoursMessage string `json:"after_hours_message,omitempty"`

	// FollowUpDelayMinutes controls when a derived lead is due for follow-up.
	FollowUpDelayMinutes int `json:"follow_up_delay_minutes,omitempty"`
}
