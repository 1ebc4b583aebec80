package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/callaback/callaback-dashboard/internal/audit"
	"github.com/callaback/callaback-dashboard/internal/auth"
	"github.com/callaback/callaback-dashboard/internal/contact"
	"github.com/callaback/callaback-dashboard/internal/interaction"
	"github.com/callaback/callaback-dashboard/internal/lead"
	"github.com/callaback/callaback-dashboard/internal/messaging"
	"github.com/callaback/callaback-dashboard/internal/rbac"
	"github.com/callaback/callaback-dashboard/internal/reporting"
	"github.com/callaback/callaback-dashboard/internal/tenant"
	"github.com/callaback/callaback-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Credentials are the env-seeded dashboard login. Single-operator
// deployment model; anything richer belongs in a users table.
type Credentials struct {
	Username string
	Password string
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth        *auth.Manager
	Credentials Credentials

	Clients      *tenant.Service
	Contacts     contact.Repository
	Leads        *lead.Service
	Interactions interaction.Repository
	Summary      *reporting.Service
	Audit        *audit.Service

	Sender messaging.Sender

	// DefaultFrom is used by the send endpoint when neither the request
	// nor the named client provides a from number.
	DefaultFrom string

	// SMSStatusCallback is attached to operator sends so delivery updates
	// flow back into the interaction log.
	SMSStatusCallback string

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// audited records a dashboard action; failures are logged, never surfaced.
func (h Handlers) audited(c *gin.Context, action audit.Action, clientID, targetID, message string) {
	if h.Audit == nil {
		return
	}
	username, _ := auth.Username(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	if err := h.Audit.Log(c.Request.Context(), action, username, role, c.ClientIP(), clientID, targetID, message); err != nil {
		logger.FromGin(c).Warn("audit append failed", "action", action, "err", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tenant.ErrNotFound),
		errors.Is(err, contact.ErrNotFound),
		errors.Is(err, lead.ErrNotFound),
		errors.Is(err, interaction.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenant.ErrInvalidArgument),
		errors.Is(err, contact.ErrInvalidArgument),
		errors.Is(err, lead.ErrInvalidArgument),
		errors.Is(err, interaction.ErrInvalidArgument),
		errors.Is(err, reporting.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(code, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

/* ===================== AUTH ===================== */

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the env-seeded credentials and issues a JWT pair.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Credentials.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.Credentials.Password)) == 1
	if !userOK || !passOK {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, err := h.Auth.IssuePair(h.now(), req.Username, rbac.RoleAdmin)
	if err != nil {
		abortWith(c, err)
		return
	}
	if h.Audit != nil {
		if err := h.Audit.Log(c.Request.Context(), audit.ActionLogin, req.Username, rbac.RoleAdmin, c.ClientIP(), "", "", "signed in"); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, h.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), claims.Username, rbac.RoleAdmin)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) Me(c *gin.Context) {
	username, _ := auth.Username(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"username": username, "role": role})
}

/* ===================== CLIENTS ===================== */

func (h Handlers) ListClients(c *gin.Context) {
	out, err := h.Clients.List(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": out})
}

func (h Handlers) GetClient(c *gin.Context) {
	out, err := h.Clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type clientRequest struct {
	Name          string          `json:"name"`
	TwilioNumber  string          `json:"twilio_number"`
	BusinessPhone string          `json:"business_phone"`
	Settings      tenant.Settings `json:"settings"`
}

func (h Handlers) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Clients.Create(c.Request.Context(), tenant.Client{
		Name:          req.Name,
		TwilioNumber:  req.TwilioNumber,
		BusinessPhone: req.BusinessPhone,
		Settings:      req.Settings,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	h.audited(c, audit.ActionClientCreated, out.ID, "", "created client "+out.Name)
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) UpdateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Clients.Update(c.Request.Context(), tenant.Client{
		ID:            c.Param("id"),
		Name:          req.Name,
		TwilioNumber:  req.TwilioNumber,
		BusinessPhone: req.BusinessPhone,
		Settings:      req.Settings,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	h.audited(c, audit.ActionClientUpdated, out.ID, "", "updated client "+out.Name)
	c.JSON(http.StatusOK, out)
}

// ClientSummary aggregates a client's activity. Defaults to the last 30
// days when the range is not given.
func (h Handlers) ClientSummary(c *gin.Context) {
	now := h.now()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -30), To: now}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		rng.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		rng.To = t
	}

	out, err := h.Summary.ActivitySummary(c.Request.Context(), reporting.ActivitySummaryRequest{
		ClientID: c.Param("id"),
		Range:    rng,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

/* ===================== INTERACTIONS ===================== */

func (h Handlers) ListInteractions(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	out, err := h.Interactions.List(c.Request.Context(), interaction.ListFilter{
		ClientID:  c.Query("client_id"),
		Type:      interaction.Type(c.Query("type")),
		Direction: interaction.Direction(c.Query("direction")),
		Limit:     limit,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interactions": out})
}

/* ===================== CONTACTS ===================== */

func (h Handlers) ListContacts(c *gin.Context) {
	out, err := h.Contacts.List(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": out})
}

type contactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

func (h Handlers) CreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.Phone == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name and phone required"})
		return
	}
	now := h.now()
	out, err := h.Contacts.Create(c.Request.Context(), contact.Contact{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Phone:     tenant.NormalizeNumber(req.Phone),
		Email:     req.Email,
		Company:   req.Company,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) UpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	existing, err := h.Contacts.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Phone != "" {
		existing.Phone = tenant.NormalizeNumber(req.Phone)
	}
	if req.Email != "" {
		existing.Email = req.Email
	}
	if req.Company != "" {
		existing.Company = req.Company
	}
	existing.UpdatedAt = h.now()
	out, err := h.Contacts.Update(c.Request.Context(), existing)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteContact(c *gin.Context) {
	if err := h.Contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ===================== LEADS ===================== */

func (h Handlers) ListLeads(c *gin.Context) {
	out, err := h.Leads.List(c.Request.Context(), c.Query("client_id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": out})
}

type createLeadRequest struct {
	ClientID  string        `json:"client_id"`
	ContactID string        `json:"contact_id"`
	Title     string        `json:"title"`
	Status    lead.Status   `json:"status"`
	Priority  lead.Priority `json:"priority"`
	Type      lead.Kind     `json:"type"`
}

func (h Handlers) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Leads.Create(c.Request.Context(), lead.Lead{
		ClientID:  req.ClientID,
		ContactID: req.ContactID,
		Title:     req.Title,
		Status:    req.Status,
		Priority:  req.Priority,
		Type:      req.Type,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type updateLeadRequest struct {
	Title         *string        `json:"title"`
	Status        *lead.Status   `json:"status"`
	Priority      *lead.Priority `json:"priority"`
	NeedsFollowUp *bool          `json:"needs_follow_up"`
}

// UpdateLead applies a partial update; absent fields keep their values.
func (h Handlers) UpdateLead(c *gin.Context) {
	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	existing, err := h.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}
	if req.NeedsFollowUp != nil {
		existing.NeedsFollowUp = *req.NeedsFollowUp
	}
	out, err := h.Leads.Update(c.Request.Context(), existing)
	if err != nil {
		abortWith(c, err)
		return
	}
	h.audited(c, audit.ActionLeadUpdated, out.ClientID, out.ID, "updated lead "+out.Title)
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteLead(c *gin.Context) {
	if err := h.Leads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ===================== SMS ===================== */

type sendSMSRequest struct {
	ClientID string `json:"client_id"`
	To       string `json:"to"`
	Body     string `json:"body"`
	From     string `json:"from"`
}

// SendSMS is the operator's manual send. Unlike webhook sends, failures
// surface to the caller.
func (h Handlers) SendSMS(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.To == "" || req.Body == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to and body required"})
		return
	}

	from := tenant.NormalizeNumber(req.From)
	var client tenant.Client
	if req.ClientID != "" {
		var err error
		client, err = h.Clients.Get(ctx, req.ClientID)
		if err != nil {
			abortWith(c, err)
			return
		}
		if from == "" {
			from = client.TwilioNumber
		}
	}
	if from == "" {
		from = h.DefaultFrom
	}
	if from == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no from number available"})
		return
	}

	to := tenant.NormalizeNumber(req.To)
	res, err := h.Sender.SendSMS(ctx, messaging.SendSMSRequest{
		From:           from,
		To:             to,
		Body:           req.Body,
		StatusCallback: h.SMSStatusCallback,
	})
	if err != nil {
		log.Error("manual sms send failed", "to", to, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "sms send failed"})
		return
	}

	now := h.now()
	in, err := h.Interactions.Insert(ctx, interaction.Interaction{
		ID:         uuid.NewString(),
		ClientID:   client.ID,
		Type:       interaction.TypeSMS,
		Direction:  interaction.DirectionOutbound,
		FromNumber: from,
		ToNumber:   to,
		Status:     interaction.StatusQueued,
		TwilioSID:  res.ProviderSID,
		Content:    req.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		// The message is already on its way; report it even if logging failed.
		log.Error("manual sms interaction insert failed", "sid", res.ProviderSID, "err", err)
		c.JSON(http.StatusOK, gin.H{"sid": res.ProviderSID, "status": res.Status})
		return
	}
	h.audited(c, audit.ActionSMSSent, client.ID, in.ID, "manual sms to "+to)
	c.JSON(http.StatusCreated, in)
}

/* ===================== AUDIT ===================== */

func (h Handlers) RecentAudit(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	out, err := h.Audit.Recent(c.Request.Context(), c.Query("client_id"), limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}
