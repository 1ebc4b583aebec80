package tenant

import "strings"

// NormalizeNumber canonicalizes a dialed or texted phone number to an
// E.164-like form so it can be matched against clients.twilio_number.
//
// Rules (North America biased, matching how numbers are provisioned):
// - strip every non-digit
// - 10 digits            -> +1XXXXXXXXXX
// - 11 digits leading 1  -> +1XXXXXXXXXX
// - already +-prefixed   -> input unchanged
// - anything else        -> + followed by the digits
func NormalizeNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	digits := keepDigits(raw)
	if len(digits) == 10 {
		return "+1" + digits
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		return "+" + digits
	}
	if strings.HasPrefix(raw, "+") {
		return raw
	}
	if digits == "" {
		return raw
	}
	return "+" + digits
}

// NormalizeCustomerNumber canonicalizes an operator-supplied customer number
// from a command token. Unlike NormalizeNumber it never preserves the raw
// input: the token is digits-only by contract.
func NormalizeCustomerNumber(token string) string {
	digits := keepDigits(token)
	if len(digits) == 10 {
		return "+1" + digits
	}
	return "+" + digits
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
