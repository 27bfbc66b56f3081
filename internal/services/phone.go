package services

import (
	"strings"
)

// DefaultCountryCode is used when no override is configured.
const DefaultCountryCode = "62"

// PhoneNormalizer turns user or WhatsApp supplied numbers into a phone key.
type PhoneNormalizer struct {
	countryCode string
}

func NewPhoneNormalizer(countryCode string) *PhoneNormalizer {
	countryCode = digitsOnly(countryCode)
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &PhoneNormalizer{countryCode: countryCode}
}

// Normalize is pure and idempotent: every output either is empty or starts
// with the country code, so neither rewrite rule fires twice.
func (n *PhoneNormalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	// Only a JID (user[:device]@server) carries parts that are not the number.
	if at := strings.IndexByte(s, '@'); at != -1 {
		s = stripDevicePart(s[:at])
	}

	d := digitsOnly(s)
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, "0") {
		d = n.countryCode + d[1:]
	}
	if len(d) <= 10 && !strings.HasPrefix(d, n.countryCode) {
		d = n.countryCode + d
	}
	return d
}

// Valid reports whether a normalized key looks like a dialable number.
func (n *PhoneNormalizer) Valid(key string) bool {
	if len(key) < 9 || len(key) > 15 {
		return false
	}
	return key == digitsOnly(key)
}

// normalizePhone normalizes with the default country code.
func normalizePhone(raw string) string {
	return NewPhoneNormalizer(DefaultCountryCode).Normalize(raw)
}

// stripDevicePart drops the ":<device>" suffix of a JID user part.
func stripDevicePart(s string) string {
	if i := strings.IndexByte(s, ':'); i != -1 {
		return s[:i]
	}
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
