package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendSMS_PostsFormAndParsesSID(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "tok" {
			t.Errorf("missing or wrong basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"From":           r.PostFormValue("From"),
			"To":             r.PostFormValue("To"),
			"Body":           r.PostFormValue("Body"),
			"StatusCallback": r.PostFormValue("StatusCallback"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	}))
	defer srv.Close()

	s := NewTwilioSenderForTest("AC123", "tok", srv.URL, srv.Client())
	res, err := s.SendSMS(context.Background(), SendSMSRequest{
		From:           "+15550001111",
		To:             "+15551234567",
		Body:           "Hi, this is Acme.",
		StatusCallback: "https://dash.example.com/webhooks/twilio/sms/status",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.ProviderSID != "SM999" || res.Status != "queued" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gotForm["From"] != "+15550001111" || gotForm["To"] != "+15551234567" {
		t.Fatalf("unexpected form: %+v", gotForm)
	}
	if gotForm["StatusCallback"] == "" {
		t.Fatalf("expected status callback to be forwarded")
	}
}

func TestSendSMS_SurfacesTwilioError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	s := NewTwilioSenderForTest("AC123", "tok", srv.URL, srv.Client())
	_, err := s.SendSMS(context.Background(), SendSMSRequest{From: "+1555", To: "bad", Body: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestSendSMS_ValidatesInput(t *testing.T) {
	s := NewTwilioSenderForTest("AC123", "tok", "http://unused", nil)
	if _, err := s.SendSMS(context.Background(), SendSMSRequest{From: "", To: "+1555", Body: "x"}); err == nil {
		t.Fatalf("expected error for missing from")
	}
}
