package webhook

import (
	"net/http"
	"strconv"
	"strings"
)

// Twilio posts webhooks as application/x-www-form-urlencoded. These structs
// capture the subset of fields the event flow cares about; everything else
// is ignored at the adapter boundary.

type InboundCallForm struct {
	CallSid string
	From    string
	To      string
}

func ParseInboundCall(r *http.Request) (InboundCallForm, error) {
	if err := r.ParseForm(); err != nil {
		return InboundCallForm{}, err
	}
	return InboundCallForm{
		CallSid: strings.TrimSpace(r.PostFormValue("CallSid")),
		From:    strings.TrimSpace(r.PostFormValue("From")),
		To:      strings.TrimSpace(r.PostFormValue("To")),
	}, nil
}

type CallCompletedForm struct {
	CallSid         string
	DialCallStatus  string
	From            string
	To              string
	DurationSeconds int
}

func ParseCallCompleted(r *http.Request) (CallCompletedForm, error) {
	if err := r.ParseForm(); err != nil {
		return CallCompletedForm{}, err
	}
	duration, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("CallDuration")))
	return CallCompletedForm{
		CallSid:         strings.TrimSpace(r.PostFormValue("CallSid")),
		DialCallStatus:  strings.TrimSpace(r.PostFormValue("DialCallStatus")),
		From:            strings.TrimSpace(r.PostFormValue("From")),
		To:              strings.TrimSpace(r.PostFormValue("To")),
		DurationSeconds: duration,
	}, nil
}

type InboundSMSForm struct {
	MessageSid string
	From       string
	To         string
	Body       string
}

func ParseInboundSMS(r *http.Request) (InboundSMSForm, error) {
	if err := r.ParseForm(); err != nil {
		return InboundSMSForm{}, err
	}
	return InboundSMSForm{
		MessageSid: strings.TrimSpace(r.PostFormValue("MessageSid")),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		Body:       r.PostFormValue("Body"),
	}, nil
}

type SMSStatusForm struct {
	MessageSid    string
	MessageStatus string
}

func ParseSMSStatus(r *http.Request) (SMSStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return SMSStatusForm{}, err
	}
	return SMSStatusForm{
		MessageSid:    strings.TrimSpace(r.PostFormValue("MessageSid")),
		MessageStatus: strings.TrimSpace(r.PostFormValue("MessageStatus")),
	}, nil
}

type VoicemailForm struct {
	CallSid         string
	RecordingURL    string
	DurationSeconds int
}

func ParseVoicemail(r *http.Request) (VoicemailForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoicemailForm{}, err
	}
	duration, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("RecordingDuration")))
	return VoicemailForm{
		CallSid:         strings.TrimSpace(r.PostFormValue("CallSid")),
		RecordingURL:    strings.TrimSpace(r.PostFormValue("RecordingUrl")),
		DurationSeconds: duration,
	}, nil
}
