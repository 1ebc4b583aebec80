package webhook

import (
	"strings"
	"testing"
)

func TestRenderVoice_SayDial(t *testing.T) {
	xml, err := RenderVoice(VoiceResponse{
		Say:                "Thank you for calling Acme. Connecting you now.",
		DialNumber:         "+15550002222",
		DialTimeoutSeconds: 20,
		DialAction:         "https://dash.example.com/webhooks/twilio/voice/completed?interaction_id=i1",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"<Say>Thank you for calling Acme. Connecting you now.</Say>",
		`timeout="20"`,
		"interaction_id=i1",
		"<Number>+15550002222</Number>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("expected %q in twiml:\n%s", want, xml)
		}
	}
}

func TestRenderVoice_SayHangup(t *testing.T) {
	xml, err := RenderVoice(VoiceResponse{Say: "Not available.", Hangup: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(xml, "<Hangup") {
		t.Fatalf("expected Hangup verb:\n%s", xml)
	}
}

func TestRenderVoice_SayRecord(t *testing.T) {
	xml, err := RenderVoice(VoiceResponse{
		Say:              "Please leave a message after the beep.",
		Record:           true,
		RecordAction:     "https://dash.example.com/webhooks/twilio/voice/voicemail?interaction_id=i1",
		RecordMaxSeconds: 120,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"<Record",
		`maxLength="120"`,
		`playBeep="true"`,
		"interaction_id=i1",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("expected %q in twiml:\n%s", want, xml)
		}
	}
}

func TestRenderVoice_RejectsDialWithHangup(t *testing.T) {
	if _, err := RenderVoice(VoiceResponse{DialNumber: "+1555", Hangup: true}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRenderVoice_RejectsEmpty(t *testing.T) {
	if _, err := RenderVoice(VoiceResponse{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEmptyResponse(t *testing.T) {
	if got := EmptyResponse(); !strings.Contains(got, "<Response></Response>") {
		t.Fatalf("unexpected empty response: %q", got)
	}
}
