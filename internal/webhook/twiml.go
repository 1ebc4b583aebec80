package webhook

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Minimal TwiML response builder. It intentionally avoids any provider SDK
// dependency; only the verbs this service emits are modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Timeout int      `xml:"timeout,attr,omitempty"`
	Action  string   `xml:"action,attr,omitempty"`
	Number  string   `xml:"Number,omitempty"`
}

type twimlRecord struct {
	XMLName   xml.Name `xml:"Record"`
	Action    string   `xml:"action,attr,omitempty"`
	MaxLength int      `xml:"maxLength,attr,omitempty"`
	PlayBeep  bool     `xml:"playBeep,attr"`
}

// VoiceResponse describes what the caller should hear and where the call
// should go next.
type VoiceResponse struct {
	// Say is spoken before any other verb. Optional.
	Say string

	// DialNumber connects the caller to a PSTN number when set.
	DialNumber string
	// DialTimeoutSeconds bounds the ring time of the forwarded leg.
	DialTimeoutSeconds int
	// DialAction receives the dial outcome webhook.
	DialAction string

	// Record starts a voicemail recording after Say when set.
	Record bool
	// RecordAction receives the finished-recording webhook.
	RecordAction string
	// RecordMaxSeconds bounds the recording length.
	RecordMaxSeconds int

	// Hangup terminates the call after Say.
	Hangup bool
}

// RenderVoice maps a VoiceResponse to a TwiML document.
func RenderVoice(res VoiceResponse) (string, error) {
	var r twimlResponse

	if strings.TrimSpace(res.Say) != "" {
		r.Verbs = append(r.Verbs, twimlSay{Text: res.Say})
	}
	if res.DialNumber != "" {
		if res.Hangup || res.Record {
			return "", errors.New("webhook: dial excludes record and hangup")
		}
		r.Verbs = append(r.Verbs, twimlDial{
			Timeout: res.DialTimeoutSeconds,
			Action:  res.DialAction,
			Number:  res.DialNumber,
		})
	}
	if res.Record {
		r.Verbs = append(r.Verbs, twimlRecord{
			Action:    res.RecordAction,
			MaxLength: res.RecordMaxSeconds,
			PlayBeep:  true,
		})
	}
	if res.Hangup {
		r.Verbs = append(r.Verbs, twimlHangup{})
	}
	if len(r.Verbs) == 0 {
		return "", errors.New("webhook: empty voice response")
	}

	return encodeTwiML(r)
}

// EmptyResponse is the acknowledgment document for message webhooks.
func EmptyResponse() string {
	return xml.Header + "<Response></Response>"
}

func encodeTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
