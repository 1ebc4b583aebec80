package webhook

import (
	"strings"

	"github.com/callaback/callaback-dashboard/internal/tenant"
)

// missedCallThresholdSeconds: a dial that connects for less than this long
// is treated as missed even when the provider reports it answered. A
// near-instant answer/hangup is not a successful human interaction.
const missedCallThresholdSeconds = 10

const (
	placeholderBusinessName = "{business_name}"
	placeholderReviewLink   = "{review_link}"

	defaultMissedCallTemplate = "Hi, this is {business_name}. We missed your call! Please reply with your issue."
	defaultReviewTemplate     = "Thanks for choosing {business_name}! Please leave a review: {review_link}"
	defaultAutoReplyTemplate  = "Thanks for your message! Someone from {business_name} will get back to you shortly."

	reviewCommandKeyword = "REVIEW"
)

// ClassifyDialOutcome decides whether a completed dial attempt counts as an
// answered call or a missed one.
func ClassifyDialOutcome(dialCallStatus string, durationSeconds int) (answered, missed bool) {
	answered = dialCallStatus == "completed" || dialCallStatus == "answered"
	missed = !answered || durationSeconds < missedCallThresholdSeconds
	return answered, missed
}

// RenderTemplate substitutes client values into a message template. All
// occurrences of each placeholder are replaced.
func RenderTemplate(tpl string, c tenant.Client) string {
	out := strings.ReplaceAll(tpl, placeholderBusinessName, c.Name)
	out = strings.ReplaceAll(out, placeholderReviewLink, c.Settings.ReviewLink)
	return out
}

// MissedCallBody builds the auto-response for a missed call.
func MissedCallBody(c tenant.Client) string {
	tpl := c.Settings.SMSTemplate
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultMissedCallTemplate
	}
	return RenderTemplate(tpl, c)
}

// ReviewBody builds the review-request message.
func ReviewBody(c tenant.Client) string {
	tpl := c.Settings.ReviewTemplate
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultReviewTemplate
	}
	return RenderTemplate(tpl, c)
}

// AutoReplyBody builds the generic acknowledgment for an inbound message.
func AutoReplyBody(c tenant.Client) string {
	return RenderTemplate(defaultAutoReplyTemplate, c)
}

// ParseReviewCommand recognizes the operator command form
// "REVIEW <customer-number>". The keyword match is case-insensitive and
// must be the whole first token; the second token is returned normalized
// to E.164.
func ParseReviewCommand(body string) (customerNumber string, ok bool) {
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return "", false
	}
	if !strings.EqualFold(fields[0], reviewCommandKeyword) {
		return "", false
	}
	num := tenant.NormalizeCustomerNumber(fields[1])
	if num == "+" {
		return "", false
	}
	return num, true
}
