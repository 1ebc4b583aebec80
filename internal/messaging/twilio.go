package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/callaback/callaback-dashboard/internal/config"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender sends SMS through the Twilio Messages REST API.
// The API is a single form-encoded POST, so a plain http.Client is enough;
// no SDK dependency.
type TwilioSender struct {
	accountSID string
	authToken  string

	// baseURL and httpClient are injectable for tests.
	baseURL    string
	httpClient *http.Client
}

func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    defaultTwilioBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTwilioSenderForTest builds a sender pointed at a stub server.
func NewTwilioSenderForTest(accountSID, authToken, baseURL string, hc *http.Client) *TwilioSender {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &TwilioSender{accountSID: accountSID, authToken: authToken, baseURL: baseURL, httpClient: hc}
}

func (s *TwilioSender) Name() string { return "twilio" }

// twilioMessageResponse is the subset of the Messages API response we use.
type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *TwilioSender) SendSMS(ctx context.Context, req SendSMSRequest) (SendSMSResult, error) {
	if req.From == "" || req.To == "" || strings.TrimSpace(req.Body) == "" {
		return SendSMSResult{}, errors.New("messaging: from, to and body are required")
	}

	form := url.Values{}
	form.Set("From", req.From)
	form.Set("To", req.To)
	form.Set("Body", req.Body)
	if req.StatusCallback != "" {
		form.Set("StatusCallback", req.StatusCallback)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendSMSResult{}, err
	}
	httpReq.SetBasicAuth(s.accountSID, s.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return SendSMSResult{}, fmt.Errorf("messaging: twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SendSMSResult{}, fmt.Errorf("messaging: read twilio response: %w", err)
	}

	var out twilioMessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return SendSMSResult{}, fmt.Errorf("messaging: decode twilio response (http %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return SendSMSResult{}, fmt.Errorf("messaging: twilio rejected send (http %d, code %d): %s", resp.StatusCode, out.Code, msg)
	}
	if out.SID == "" {
		return SendSMSResult{}, errors.New("messaging: twilio response missing sid")
	}

	return SendSMSResult{ProviderSID: out.SID, Status: out.Status}, nil
}
