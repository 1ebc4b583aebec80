package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/callaback/callaback-dashboard/internal/contact"
	"github.com/callaback/callaback-dashboard/internal/interaction"
	"github.com/callaback/callaback-dashboard/internal/lead"
	"github.com/callaback/callaback-dashboard/internal/messaging"
	"github.com/callaback/callaback-dashboard/internal/tenant"
	"github.com/callaback/callaback-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CallbackURLs are the absolute URLs Twilio posts follow-up events to.
type CallbackURLs struct {
	// CallCompleted receives the Dial action callback; the triggering
	// interaction id is appended as a query parameter.
	CallCompleted string
	// SMSStatus receives message delivery-status callbacks.
	SMSStatus string
	// Voicemail receives the finished-recording callback; the triggering
	// interaction id is appended as a query parameter.
	Voicemail string
}

// Handler is the event classifier and responder: it resolves tenant
// ownership of each provider webhook, classifies the event, triggers
// automatic replies, and records everything as interactions.
//
// Failure semantics: every handler answers Twilio with a well-formed
// acknowledgment on all paths. Internal failures are logged and converted
// into "do nothing further" acknowledgments; non-2xx responses would make
// the provider retry aggressively or break the call flow.
type Handler struct {
	Tenants      *tenant.Service
	Interactions interaction.Repository
	Contacts     contact.Repository
	Leads        *lead.Service
	Sender       messaging.Sender
	Guard        EventGuard
	Callbacks    CallbackURLs

	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

const dialTimeoutSeconds = 20
const voicemailMaxSeconds = 120

// HandleInboundCall answers the voice webhook: it greets the caller and
// forwards the call to the owning client's business phone, logging the
// attempt as a ringing interaction first.
func (h *Handler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseInboundCall(c.Request)
	if err != nil || form.CallSid == "" || form.From == "" || form.To == "" {
		log.Warn("inbound call webhook malformed", "err", err)
		h.writeVoice(c, VoiceResponse{Say: "Thank you for calling. Please hold."})
		return
	}

	client, err := h.Tenants.Resolve(c.Request.Context(), form.To)
	if err != nil || client.BusinessPhone == "" {
		if err != nil && !errors.Is(err, tenant.ErrNotFound) {
			log.Error("client lookup failed", "to", form.To, "err", err)
		} else {
			// Unconfigured number; expected, not an error.
			log.Info("no client for number", "to", form.To)
		}
		h.writeVoice(c, VoiceResponse{
			Say:    "Thank you for calling. This number is not currently available.",
			Hangup: true,
		})
		return
	}

	in, err := h.recordInboundCall(c.Request.Context(), log, client, form)
	if err != nil {
		log.Error("inbound call logging failed", "call_sid", form.CallSid, "err", err)
		h.writeVoice(c, VoiceResponse{
			Say:    "We're having technical difficulties. Please try again later.",
			Hangup: true,
		})
		return
	}

	h.writeVoice(c, VoiceResponse{
		Say:                "Thank you for calling " + client.Name + ". Connecting you now.",
		DialNumber:         client.BusinessPhone,
		DialTimeoutSeconds: dialTimeoutSeconds,
		DialAction:         h.Callbacks.CallCompleted + "?interaction_id=" + url.QueryEscape(in.ID),
	})
}

// recordInboundCall inserts the ringing interaction, reusing the existing
// row when the provider redelivers the same CallSid.
func (h *Handler) recordInboundCall(ctx context.Context, log *slog.Logger, client tenant.Client, form InboundCallForm) (interaction.Interaction, error) {
	first, err := h.Guard.Claim(ctx, "call:"+form.CallSid)
	if err != nil {
		// Dedup is best-effort; availability wins over strictness.
		log.Warn("event claim failed, proceeding without dedup", "call_sid", form.CallSid, "err", err)
		first = true
	}
	if !first {
		if existing, err := h.Interactions.FindBySID(ctx, form.CallSid); err == nil {
			log.Info("duplicate call webhook", "call_sid", form.CallSid, "interaction_id", existing.ID)
			return existing, nil
		}
		// Claimed but no row: a previous delivery failed mid-flight.
	}

	now := h.now()
	from := tenant.NormalizeNumber(form.From)

	contactID := ""
	if ct, err := h.Contacts.FindOrCreateByPhone(ctx, from, now); err != nil {
		log.Warn("contact resolution failed", "from", from, "err", err)
	} else {
		contactID = ct.ID
	}

	in, err := h.Interactions.Insert(ctx, interaction.Interaction{
		ID:         uuid.NewString(),
		ClientID:   client.ID,
		ContactID:  contactID,
		Type:       interaction.TypeCall,
		Direction:  interaction.DirectionInbound,
		FromNumber: from,
		ToNumber:   tenant.NormalizeNumber(form.To),
		Status:     interaction.StatusRinging,
		TwilioSID:  form.CallSid,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		h.Guard.Release(ctx, "call:"+form.CallSid)
		return interaction.Interaction{}, err
	}
	return in, nil
}

// HandleCallCompleted receives the dial outcome, classifies the call, and
// runs the missed-call auto-SMS flow when warranted. The response is TwiML:
// a missed caller is offered voicemail, an answered call just ends.
func (h *Handler) HandleCallCompleted(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	form, err := ParseCallCompleted(c.Request)
	if err != nil {
		log.Warn("call completed webhook malformed", "err", err)
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	interactionID := c.Query("interaction_id")
	var in interaction.Interaction
	if interactionID != "" {
		in, err = h.Interactions.GetByID(ctx, interactionID)
	} else {
		err = interaction.ErrNotFound
	}
	if err != nil {
		if !errors.Is(err, interaction.ErrNotFound) {
			log.Error("interaction lookup failed", "interaction_id", interactionID, "err", err)
		}
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	answered, missed := ClassifyDialOutcome(form.DialCallStatus, form.DurationSeconds)
	status := interaction.StatusCompleted
	if !answered {
		status = interaction.StatusNoAnswer
	}

	updated, err := h.Interactions.UpdateCallResult(ctx, in.ID, interaction.CallResult{
		Status:          status,
		DurationSeconds: form.DurationSeconds,
		DialCallStatus:  form.DialCallStatus,
		Answered:        answered,
		IsMissedCall:    missed,
	}, h.now())
	if err != nil {
		log.Error("call result update failed", "interaction_id", in.ID, "err", err)
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	if !missed {
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	h.respondToMissedCall(ctx, log, updated, form)
	h.writeVoice(c, VoiceResponse{
		Say:              "We're sorry we missed your call. Please leave a message after the beep.",
		Record:           true,
		RecordAction:     h.Callbacks.Voicemail + "?interaction_id=" + url.QueryEscape(updated.ID),
		RecordMaxSeconds: voicemailMaxSeconds,
	})
}

// respondToMissedCall derives a follow-up lead for the caller, then sends the
// client's missed-call template and logs the reply as a linked outbound
// interaction. The lead exists even when the send fails; failures never
// propagate to the webhook acknowledgment.
func (h *Handler) respondToMissedCall(ctx context.Context, log *slog.Logger, in interaction.Interaction, form CallCompletedForm) {
	first, err := h.Guard.Claim(ctx, "autosms:"+form.CallSid)
	if err != nil {
		log.Warn("event claim failed, proceeding without dedup", "call_sid", form.CallSid, "err", err)
	} else if !first {
		log.Info("auto-sms already sent for call", "call_sid", form.CallSid)
		return
	}

	if _, err := h.Leads.DeriveFromInteraction(ctx, in); err != nil {
		log.Warn("lead derivation failed", "interaction_id", in.ID, "err", err)
	}

	client, err := h.Tenants.Get(ctx, in.ClientID)
	if err != nil {
		log.Error("client lookup failed for auto-sms", "client_id", in.ClientID, "err", err)
		return
	}

	body := MissedCallBody(client)
	res, err := h.Sender.SendSMS(ctx, messaging.SendSMSRequest{
		From:           in.ToNumber,
		To:             in.FromNumber,
		Body:           body,
		StatusCallback: h.Callbacks.SMSStatus,
	})
	if err != nil {
		log.Error("missed-call sms send failed", "interaction_id", in.ID, "err", err)
		return
	}
	log.Info("missed-call sms sent", "sid", res.ProviderSID, "to", in.FromNumber)

	now := h.now()
	if _, err := h.Interactions.Insert(ctx, interaction.Interaction{
		ID:                  uuid.NewString(),
		ClientID:            client.ID,
		ContactID:           in.ContactID,
		Type:                interaction.TypeSMS,
		Direction:           interaction.DirectionOutbound,
		FromNumber:          in.ToNumber,
		ToNumber:            in.FromNumber,
		Status:              interaction.StatusQueued,
		TwilioSID:           res.ProviderSID,
		Content:             body,
		IsAutoResponse:      true,
		ParentInteractionID: in.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}); err != nil {
		log.Error("auto-sms interaction insert failed", "sid", res.ProviderSID, "err", err)
	}
}

// HandleInboundSMS classifies an inbound message: operator REVIEW commands
// trigger a review request; everything else is logged as a customer contact
// and acknowledged automatically.
func (h *Handler) HandleInboundSMS(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	form, err := ParseInboundSMS(c.Request)
	if err != nil || form.MessageSid == "" || form.From == "" || form.To == "" {
		log.Warn("inbound sms webhook malformed", "err", err)
		h.writeEmpty(c)
		return
	}

	client, err := h.Tenants.Resolve(ctx, form.To)
	if err != nil {
		if !errors.Is(err, tenant.ErrNotFound) {
			log.Error("client lookup failed", "to", form.To, "err", err)
		} else {
			log.Info("no client for number", "to", form.To)
		}
		h.writeEmpty(c)
		return
	}

	if customerNumber, ok := ParseReviewCommand(form.Body); ok {
		h.sendReviewRequest(ctx, log, client, form, customerNumber)
		h.writeEmpty(c)
		return
	}

	h.handleCustomerSMS(ctx, log, client, form)
	h.writeEmpty(c)
}

// sendReviewRequest handles the operator command "REVIEW <number>": the
// tenant's review template goes to the named customer, not back to the
// sender.
func (h *Handler) sendReviewRequest(ctx context.Context, log *slog.Logger, client tenant.Client, form InboundSMSForm, customerNumber string) {
	if client.Settings.ReviewLink == "" {
		log.Warn("review command without review link configured", "client_id", client.ID)
		return
	}

	body := ReviewBody(client)
	res, err := h.Sender.SendSMS(ctx, messaging.SendSMSRequest{
		From:           client.TwilioNumber,
		To:             customerNumber,
		Body:           body,
		StatusCallback: h.Callbacks.SMSStatus,
	})
	if err != nil {
		log.Error("review sms send failed", "to", customerNumber, "err", err)
		return
	}
	log.Info("review request sent", "sid", res.ProviderSID, "to", customerNumber)

	now := h.now()
	if _, err := h.Interactions.Insert(ctx, interaction.Interaction{
		ID:         uuid.NewString(),
		ClientID:   client.ID,
		Type:       interaction.TypeSMS,
		Direction:  interaction.DirectionOutbound,
		FromNumber: client.TwilioNumber,
		ToNumber:   customerNumber,
		Status:     interaction.StatusQueued,
		TwilioSID:  res.ProviderSID,
		Content:    body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		log.Error("review interaction insert failed", "sid", res.ProviderSID, "err", err)
	}
}

// handleCustomerSMS logs an ordinary inbound message and replies with the
// generic acknowledgment. The inbound row is written before the reply is
// attempted so the reply can always be correlated to its trigger.
func (h *Handler) handleCustomerSMS(ctx context.Context, log *slog.Logger, client tenant.Client, form InboundSMSForm) {
	first, err := h.Guard.Claim(ctx, "sms:"+form.MessageSid)
	if err != nil {
		log.Warn("event claim failed, proceeding without dedup", "message_sid", form.MessageSid, "err", err)
	} else if !first {
		log.Info("duplicate sms webhook", "message_sid", form.MessageSid)
		return
	}

	now := h.now()
	from := tenant.NormalizeNumber(form.From)

	contactID := ""
	if ct, err := h.Contacts.FindOrCreateByPhone(ctx, from, now); err != nil {
		log.Warn("contact resolution failed", "from", from, "err", err)
	} else {
		contactID = ct.ID
	}

	in, err := h.Interactions.Insert(ctx, interaction.Interaction{
		ID:         uuid.NewString(),
		ClientID:   client.ID,
		ContactID:  contactID,
		Type:       interaction.TypeSMS,
		Direction:  interaction.DirectionInbound,
		FromNumber: from,
		ToNumber:   tenant.NormalizeNumber(form.To),
		Status:     interaction.StatusReceived,
		TwilioSID:  form.MessageSid,
		Content:    form.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		log.Error("inbound sms insert failed", "message_sid", form.MessageSid, "err", err)
		h.Guard.Release(ctx, "sms:"+form.MessageSid)
		return
	}

	body := AutoReplyBody(client)
	res, err := h.Sender.SendSMS(ctx, messaging.SendSMSRequest{
		From:           in.ToNumber,
		To:             in.FromNumber,
		Body:           body,
		StatusCallback: h.Callbacks.SMSStatus,
	})
	if err != nil {
		log.Error("auto-reply send failed", "interaction_id", in.ID, "err", err)
		return
	}
	log.Info("auto-reply sent", "sid", res.ProviderSID, "to", in.FromNumber)

	now = h.now()
	if _, err := h.Interactions.Insert(ctx, interaction.Interaction{
		ID:                  uuid.NewString(),
		ClientID:            client.ID,
		ContactID:           contactID,
		Type:                interaction.TypeSMS,
		Direction:           interaction.DirectionOutbound,
		FromNumber:          in.ToNumber,
		ToNumber:            in.FromNumber,
		Status:              interaction.StatusQueued,
		TwilioSID:           res.ProviderSID,
		Content:             body,
		IsAutoResponse:      true,
		ParentInteractionID: in.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}); err != nil {
		log.Error("auto-reply interaction insert failed", "sid", res.ProviderSID, "err", err)
	}
}

// HandleSMSStatus applies a provider delivery-status callback. An unknown
// SID mutates nothing; that is not an error.
func (h *Handler) HandleSMSStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseSMSStatus(c.Request)
	if err != nil || form.MessageSid == "" || form.MessageStatus == "" {
		log.Warn("sms status webhook malformed", "err", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	if err := h.Interactions.UpdateStatusBySID(
		c.Request.Context(),
		form.MessageSid,
		interaction.Status(form.MessageStatus),
		h.now(),
	); err != nil {
		log.Error("sms status update failed", "message_sid", form.MessageSid, "err", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleVoicemailCompleted records a finished voicemail recording against
// its originating call interaction and thanks the caller.
func (h *Handler) HandleVoicemailCompleted(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoicemail(c.Request)
	if err != nil {
		log.Warn("voicemail webhook malformed", "err", err)
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	interactionID := c.Query("interaction_id")
	if interactionID == "" {
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	if err := h.Interactions.UpdateVoicemail(c.Request.Context(), interactionID, interaction.VoicemailResult{
		RecordingURL:    form.RecordingURL,
		DurationSeconds: form.DurationSeconds,
	}, h.now()); err != nil {
		if !errors.Is(err, interaction.ErrNotFound) {
			log.Error("voicemail update failed", "interaction_id", interactionID, "err", err)
		}
		h.writeVoice(c, VoiceResponse{Hangup: true})
		return
	}

	h.writeVoice(c, VoiceResponse{Say: "Thank you. We'll get back to you shortly.", Hangup: true})
}

func (h *Handler) writeVoice(c *gin.Context, res VoiceResponse) {
	twiml, err := RenderVoice(res)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		twiml = EmptyResponse()
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h *Handler) writeEmpty(c *gin.Context) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, EmptyResponse())
}
