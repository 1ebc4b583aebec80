package messaging

import "context"

// Sender is the provider-agnostic outbound SMS contract used by business
// logic.
//
// Rules:
// - No provider REST calls outside messaging adapters.
// - Keep request/response types provider-agnostic; the Twilio SID travels
//   as an opaque ProviderSID.
type Sender interface {
	Name() string
	SendSMS(ctx context.Context, req SendSMSRequest) (SendSMSResult, error)
}

// SendSMSRequest describes one outbound message.
type SendSMSRequest struct {
	// From must be a provisioned routing number (E.164).
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`

	// StatusCallback is the absolute URL the provider posts delivery
	// updates to. Optional.
	StatusCallback string `json:"status_callback,omitempty"`
}

// SendSMSResult is the provider's synchronous acknowledgment.
type SendSMSResult struct {
	// ProviderSID is the provider's unique identifier for the message.
	ProviderSID string `json:"provider_sid"`

	// Status is the provider-reported initial status (typically "queued").
	Status string `json:"status"`
}
