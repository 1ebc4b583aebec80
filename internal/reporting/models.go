package reporting

import "time"

// TimeRange bounds a summary query. From is inclusive, To exclusive.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ActivitySummaryRequest requests aggregated interaction metrics for one
// client. ClientID is required.
type ActivitySummaryRequest struct {
	ClientID string    `json:"client_id"`
	Range    TimeRange `json:"range"`
}

// ActivitySummary is the dashboard's per-client rollup: call outcomes,
// message traffic, and follow-up load over the requested range.
type ActivitySummary struct {
	ClientID string    `json:"client_id"`
	Range    TimeRange `json:"range"`

	TotalInteractions int `json:"total_interactions"`

	TotalCalls    int `json:"total_calls"`
	AnsweredCalls int `json:"answered_calls"`
	MissedCalls   int `json:"missed_calls"`
	Voicemails    int `json:"voicemails"`

	InboundMessages  int `json:"inbound_messages"`
	OutboundMessages int `json:"outbound_messages"`
	AutoResponses    int `json:"auto_responses"`

	DeliveredMessages int `json:"delivered_messages"`
	FailedMessages    int `json:"failed_messages"`

	TotalTalkSeconds   int `json:"total_talk_seconds"`
	AverageCallSeconds int `json:"average_call_seconds"`

	UniqueCallers int `json:"unique_callers"`

	OpenLeads          int `json:"open_leads"`
	LeadsNeedingFollow int `json:"leads_needing_follow_up"`
}
