package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/callaback/callaback-dashboard/internal/contact"
	"github.com/callaback/callaback-dashboard/internal/interaction"
	"github.com/callaback/callaback-dashboard/internal/lead"
	"github.com/callaback/callaback-dashboard/internal/messaging"
	"github.com/callaback/callaback-dashboard/internal/tenant"

	"github.com/gin-gonic/gin"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []messaging.SendSMSRequest
	err   error
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) SendSMS(_ context.Context, req messaging.SendSMSRequest) (messaging.SendSMSResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return messaging.SendSMSResult{}, f.err
	}
	f.calls = append(f.calls, req)
	return messaging.SendSMSResult{ProviderSID: fmt.Sprintf("SM%03d", len(f.calls)), Status: "queued"}, nil
}

func (f *fakeSender) sent() []messaging.SendSMSRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]messaging.SendSMSRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

type memGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func newMemGuard() *memGuard { return &memGuard{claimed: make(map[string]bool)} }

func (g *memGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, key)
}

type rig struct {
	router       *gin.Engine
	interactions *interaction.MemoryRepository
	leads        *lead.MemoryRepository
	sender       *fakeSender

	mu    sync.Mutex
	clock time.Time
}

// tick advances the rig clock so rows inserted by one request get
// distinct, ordered timestamps.
func (r *rig) tick() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func newRig(t *testing.T, clients ...tenant.Client) *rig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tenantRepo := tenant.NewMemoryRepository()
	for _, c := range clients {
		if _, err := tenantRepo.Create(context.Background(), c); err != nil {
			t.Fatalf("seed client: %v", err)
		}
	}

	r := &rig{
		interactions: interaction.NewMemoryRepository(),
		leads:        lead.NewMemoryRepository(),
		sender:       &fakeSender{},
		clock:        time.Unix(1700000000, 0).UTC(),
	}

	h := &Handler{
		Tenants:      tenant.NewService(tenantRepo),
		Interactions: r.interactions,
		Contacts:     contact.NewMemoryRepository(),
		Leads:        lead.NewService(r.leads),
		Sender:       r.sender,
		Guard:        newMemGuard(),
		Callbacks: CallbackURLs{
			CallCompleted: "https://dash.example.com/webhooks/twilio/voice/completed",
			SMSStatus:     "https://dash.example.com/webhooks/twilio/sms/status",
			Voicemail:     "https://dash.example.com/webhooks/twilio/voice/voicemail",
		},
		Now: r.tick,
	}

	r.router = gin.New()
	r.router.POST("/webhooks/twilio/voice", h.HandleInboundCall)
	r.router.POST("/webhooks/twilio/voice/completed", h.HandleCallCompleted)
	r.router.POST("/webhooks/twilio/voice/voicemail", h.HandleVoicemailCompleted)
	r.router.POST("/webhooks/twilio/sms", h.HandleInboundSMS)
	r.router.POST("/webhooks/twilio/sms/status", h.HandleSMSStatus)
	return r
}

func (r *rig) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.router.ServeHTTP(w, req)
	return w
}

func acme() tenant.Client {
	return tenant.Client{
		ID:            "c1",
		Name:          "Acme",
		TwilioNumber:  "+15550001111",
		BusinessPhone: "+15550002222",
	}
}

func (r *rig) seedRingingCall(t *testing.T) interaction.Interaction {
	t.Helper()
	in, err := r.interactions.Insert(context.Background(), interaction.Interaction{
		ID:         "i1",
		ClientID:   "c1",
		Type:       interaction.TypeCall,
		Direction:  interaction.DirectionInbound,
		FromNumber: "+15551234567",
		ToNumber:   "+15550001111",
		Status:     interaction.StatusRinging,
		TwilioSID:  "CA100",
		CreatedAt:  r.clock,
		UpdatedAt:  r.clock,
	})
	if err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	return in
}

func TestInboundCall_ForwardsAndLogsRinging(t *testing.T) {
	r := newRig(t, acme())

	w := r.post(t, "/webhooks/twilio/voice", url.Values{
		"CallSid": {"CA100"},
		"From":    {"(555) 123-4567"},
		"To":      {"+15550001111"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Thank you for calling Acme") {
		t.Fatalf("expected greeting in twiml:\n%s", body)
	}
	if !strings.Contains(body, "<Number>+15550002222</Number>") {
		t.Fatalf("expected forward to business phone:\n%s", body)
	}

	rows := r.interactions.All()
	if len(rows) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(rows))
	}
	in := rows[0]
	if in.Status != interaction.StatusRinging || in.Type != interaction.TypeCall {
		t.Fatalf("unexpected interaction: %+v", in)
	}
	if in.FromNumber != "+15551234567" {
		t.Fatalf("expected normalized from, got %q", in.FromNumber)
	}
	if !strings.Contains(body, "interaction_id="+in.ID) {
		t.Fatalf("expected dial action to carry interaction id:\n%s", body)
	}
}

func TestInboundCall_NoClientHangsUpWithoutRows(t *testing.T) {
	r := newRig(t) // no clients configured

	w := r.post(t, "/webhooks/twilio/voice", url.Values{
		"CallSid": {"CA100"},
		"From":    {"+15551234567"},
		"To":      {"+15559990000"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not currently available") {
		t.Fatalf("expected not-available message:\n%s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "<Hangup") {
		t.Fatalf("expected hangup:\n%s", w.Body.String())
	}
	if len(r.interactions.All()) != 0 {
		t.Fatalf("expected no interactions")
	}
	if len(r.sender.sent()) != 0 {
		t.Fatalf("expected no sends")
	}
}

func TestInboundCall_DuplicateDeliveryReusesRow(t *testing.T) {
	r := newRig(t, acme())

	form := url.Values{
		"CallSid": {"CA100"},
		"From":    {"+15551234567"},
		"To":      {"+15550001111"},
	}
	r.post(t, "/webhooks/twilio/voice", form)
	r.post(t, "/webhooks/twilio/voice", form)

	if got := len(r.interactions.All()); got != 1 {
		t.Fatalf("expected 1 interaction after redelivery, got %d", got)
	}
}

func TestCallCompleted_MissedByStatusSendsAutoSMS(t *testing.T) {
	r := newRig(t, acme())
	in := r.seedRingingCall(t)

	w := r.post(t, "/webhooks/twilio/voice/completed?interaction_id="+in.ID, url.Values{
		"CallSid":        {"CA100"},
		"DialCallStatus": {"no-answer"},
		"From":           {"+15551234567"},
		"To":             {"+15550001111"},
		"CallDuration":   {"0"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Record") {
		t.Fatalf("expected voicemail offer in twiml:\n%s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "interaction_id="+in.ID) {
		t.Fatalf("expected record action to carry interaction id:\n%s", w.Body.String())
	}

	sent := r.sender.sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one auto-sms, got %d", len(sent))
	}
	if sent[0].From != "+15550001111" || sent[0].To != "+15551234567" {
		t.Fatalf("auto-sms endpoints wrong: %+v", sent[0])
	}
	if sent[0].StatusCallback == "" {
		t.Fatalf("expected status callback on auto-sms")
	}

	rows := r.interactions.All()
	if len(rows) != 2 {
		t.Fatalf("expected call + auto-sms rows, got %d", len(rows))
	}
	call, reply := rows[0], rows[1]
	if call.Status != interaction.StatusNoAnswer || !call.IsMissedCall {
		t.Fatalf("call row not classified missed: %+v", call)
	}
	if reply.Type != interaction.TypeSMS || reply.Direction != interaction.DirectionOutbound {
		t.Fatalf("unexpected reply row: %+v", reply)
	}
	if !reply.IsAutoResponse || reply.ParentInteractionID != call.ID {
		t.Fatalf("reply not linked to trigger: %+v", reply)
	}

	leads, _ := r.leads.List(context.Background(), "c1")
	if len(leads) != 1 || !leads[0].NeedsFollowUp {
		t.Fatalf("expected follow-up lead, got %+v", leads)
	}
}

func TestCallCompleted_ShortAnsweredCallIsMissed(t *testing.T) {
	r := newRig(t, acme())
	in := r.seedRingingCall(t)

	r.post(t, "/webhooks/twilio/voice/completed?interaction_id="+in.ID, url.Values{
		"CallSid":        {"CA100"},
		"DialCallStatus": {"completed"},
		"From":           {"+15551234567"},
		"To":             {"+15550001111"},
		"CallDuration":   {"4"},
	})

	got, _ := r.interactions.GetByID(context.Background(), in.ID)
	if !got.IsMissedCall {
		t.Fatalf("expected sub-threshold answered call to be missed: %+v", got)
	}
	if got.Status != interaction.StatusCompleted {
		t.Fatalf("answered call keeps completed status, got %q", got.Status)
	}
	if len(r.sender.sent()) != 1 {
		t.Fatalf("expected auto-sms for short call")
	}
}

func TestCallCompleted_AnsweredCallNoSMS(t *testing.T) {
	r := newRig(t, acme())
	in := r.seedRingingCall(t)

	r.post(t, "/webhooks/twilio/voice/completed?interaction_id="+in.ID, url.Values{
		"CallSid":        {"CA100"},
		"DialCallStatus": {"completed"},
		"From":           {"+15551234567"},
		"To":             {"+15550001111"},
		"CallDuration":   {"180"},
	})

	got, _ := r.interactions.GetByID(context.Background(), in.ID)
	if got.IsMissedCall || got.Status != interaction.StatusCompleted || !got.Answered {
		t.Fatalf("expected clean answered call: %+v", got)
	}
	if len(r.sender.sent()) != 0 {
		t.Fatalf("expected no sms for answered call")
	}
	if len(r.interactions.All()) != 1 {
		t.Fatalf("expected single row for answered call")
	}
}

func TestCallCompleted_TemplateSubstitution(t *testing.T) {
	c := acme()
	c.Settings.SMSTemplate = "Hi, this is {business_name}."
	r := newRig(t, c)
	in := r.seedRingingCall(t)

	r.post(t, "/webhooks/twilio/voice/completed?interaction_id="+in.ID, url.Values{
		"CallSid":        {"CA100"},
		"DialCallStatus": {"no-answer"},
		"From":           {"+15551234567"},
		"To":             {"+15550001111"},
		"CallDuration":   {"0"},
	})

	sent := r.sender.sent()
	if len(sent) != 1 {
		t.Fatalf("expected one sms")
	}
	if sent[0].Body != "Hi, this is Acme." {
		t.Fatalf("template substitution: got %q", sent[0].Body)
	}
}

func TestCallCompleted_UnknownInteractionAcksWithoutError(t *testing.T) {
	r := newRig(t, acme())

	w := r.post(t, "/webhooks/twilio/voice/completed?interaction_id=missing", url.Values{
		"CallSid":        {"CA100"},
		"DialCallStatus": {"no-answer"},
		"CallDuration":   {"0"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("provider webhook must stay 2xx, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Hangup") {
		t.Fatalf("expected hangup twiml:\n%s", w.Body.String())
	}
	if len(r.sender.sent()) != 0 {
		t.Fatalf("expected no sends")
	}
}

func TestInboundSMS_CustomerMessageCreatesTwoLinkedRows(t *testing.T) {
	r := newRig(t, acme())

	w := r.post(t, "/webhooks/twilio/sms", url.Values{
		"MessageSid": {"SM500"},
		"From":       {"+15551234567"},
		"To":         {"+15550001111"},
		"Body":       {"Hello, need service"},
	})

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Response") {
		t.Fatalf("expected empty twiml ack: %d %s", w.Code, w.Body.String())
	}

	rows := r.interactions.All()
	if len(rows) != 2 {
		t.Fatalf("expected inbound + reply rows, got %d", len(rows))
	}
	inbound, reply := rows[0], rows[1]
	if inbound.Direction != interaction.DirectionInbound || inbound.Content != "Hello, need service" {
		t.Fatalf("unexpected inbound row: %+v", inbound)
	}
	if inbound.Status != interaction.StatusReceived {
		t.Fatalf("inbound message status: %q", inbound.Status)
	}
	if !reply.IsAutoResponse || reply.ParentInteractionID != inbound.ID {
		t.Fatalf("reply not linked: %+v", reply)
	}
	if !strings.Contains(reply.Content, "Acme") {
		t.Fatalf("reply should mention business: %q", reply.Content)
	}
}

func TestInboundSMS_ReviewCommandSendsReviewOnly(t *testing.T) {
	c := acme()
	c.Settings.ReviewLink = "https://g.page/acme"
	r := newRig(t, c)

	r.post(t, "/webhooks/twilio/sms", url.Values{
		"MessageSid": {"SM501"},
		"From":       {"+15550002222"},
		"To":         {"+15550001111"},
		"Body":       {"REVIEW 5551234567"},
	})

	sent := r.sender.sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one review sms, got %d", len(sent))
	}
	if sent[0].To != "+15551234567" {
		t.Fatalf("review target: got %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Body, "https://g.page/acme") {
		t.Fatalf("review body should contain link: %q", sent[0].Body)
	}

	for _, row := range r.interactions.All() {
		if row.IsAutoResponse {
			t.Fatalf("review command must not create a generic auto-reply: %+v", row)
		}
	}
}

func TestInboundSMS_ReviewWithoutLinkSendsNothing(t *testing.T) {
	r := newRig(t, acme())

	r.post(t, "/webhooks/twilio/sms", url.Values{
		"MessageSid": {"SM502"},
		"From":       {"+15550002222"},
		"To":         {"+15550001111"},
		"Body":       {"REVIEW 5551234567"},
	})

	if len(r.sender.sent()) != 0 {
		t.Fatalf("expected no sends without review link")
	}
}

func TestInboundSMS_NoClientSilentAck(t *testing.T) {
	r := newRig(t)

	w := r.post(t, "/webhooks/twilio/sms", url.Values{
		"MessageSid": {"SM503"},
		"From":       {"+15551234567"},
		"To":         {"+15559990000"},
		"Body":       {"Hello"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if len(r.interactions.All()) != 0 || len(r.sender.sent()) != 0 {
		t.Fatalf("expected no side effects for unconfigured number")
	}
}

func TestInboundSMS_DuplicateDeliveryProcessedOnce(t *testing.T) {
	r := newRig(t, acme())

	form := url.Values{
		"MessageSid": {"SM504"},
		"From":       {"+15551234567"},
		"To":         {"+15550001111"},
		"Body":       {"Hello"},
	}
	r.post(t, "/webhooks/twilio/sms", form)
	r.post(t, "/webhooks/twilio/sms", form)

	if got := len(r.interactions.All()); got != 2 {
		t.Fatalf("expected 2 rows after redelivery (inbound + reply), got %d", got)
	}
	if got := len(r.sender.sent()); got != 1 {
		t.Fatalf("expected single reply send, got %d", got)
	}
}

func TestSMSStatus_UpdatesMatchingRow(t *testing.T) {
	r := newRig(t, acme())
	_, err := r.interactions.Insert(context.Background(), interaction.Interaction{
		ID:        "i9",
		ClientID:  "c1",
		Type:      interaction.TypeSMS,
		Direction: interaction.DirectionOutbound,
		Status:    interaction.StatusQueued,
		TwilioSID: "SM600",
		CreatedAt: r.clock,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := r.post(t, "/webhooks/twilio/sms/status", url.Values{
		"MessageSid":    {"SM600"},
		"MessageStatus": {"delivered"},
	})

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("unexpected ack: %d %s", w.Code, w.Body.String())
	}
	got, _ := r.interactions.GetByID(context.Background(), "i9")
	if got.Status != interaction.StatusDelivered {
		t.Fatalf("status not applied: %q", got.Status)
	}
}

func TestSMSStatus_UnknownSIDIsNoOp(t *testing.T) {
	r := newRig(t, acme())

	w := r.post(t, "/webhooks/twilio/sms/status", url.Values{
		"MessageSid":    {"SMmissing"},
		"MessageStatus": {"delivered"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if len(r.interactions.All()) != 0 {
		t.Fatalf("expected no rows mutated")
	}
}

func TestVoicemailCompleted_MarksInteraction(t *testing.T) {
	r := newRig(t, acme())
	in := r.seedRingingCall(t)

	w := r.post(t, "/webhooks/twilio/voice/voicemail?interaction_id="+in.ID, url.Values{
		"CallSid":           {"CA100"},
		"RecordingUrl":      {"https://api.twilio.com/recordings/RE1"},
		"RecordingDuration": {"22"},
	})

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Thank you") {
		t.Fatalf("unexpected ack: %d %s", w.Code, w.Body.String())
	}
	got, _ := r.interactions.GetByID(context.Background(), in.ID)
	if got.Type != interaction.TypeVoicemail || got.RecordingURL == "" || !got.IsMissedCall {
		t.Fatalf("voicemail not recorded: %+v", got)
	}
	if got.DurationSeconds != 22 {
		t.Fatalf("voicemail duration: %d", got.DurationSeconds)
	}
}

func TestSendFailureStillAcksAndKeepsTrigger(t *testing.T) {
	r := newRig(t, acme())
	r.sender.err = fmt.Errorf("twilio rejected send")
	in := r.seedRingingCall(t)

	w := r.post(t, "/webhooks/twilio/voice/completed?interaction_id="+in.ID, url.Values{
		"CallSid":        {"CA100"},
		"DialCallStatus": {"no-answer"},
		"CallDuration":   {"0"},
	})

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Record") {
		t.Fatalf("send failure must not break the voicemail offer: %d %s", w.Code, w.Body.String())
	}

	rows := r.interactions.All()
	if len(rows) != 1 {
		t.Fatalf("no reply row expected on send failure, got %d rows", len(rows))
	}
	if !rows[0].IsMissedCall {
		t.Fatalf("trigger row must keep its classification: %+v", rows[0])
	}

	leads, _ := r.leads.List(context.Background(), "c1")
	if len(leads) != 1 || !leads[0].NeedsFollowUp {
		t.Fatalf("expected follow-up lead despite send failure, got %+v", leads)
	}
}
