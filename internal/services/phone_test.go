package services

import (
	"testing"

	waTypes "go.mau.fi/whatsmeow/types"
)

func TestStripDevicePart(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"62812345:12", "62812345"},
		{"62812345", "62812345"},
		{"", ""},
	}

	for _, c := range cases {
		got := stripDevicePart(c.in)
		if got != c.out {
			t.Fatalf("stripDevicePart(%q)=%q; want %q", c.in, got, c.out)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"62812345@s.whatsapp.net", "62812345"},
		{"62812345:12@s.whatsapp.net", "62812345"},
		{"+62 812-345", "62812345"},
		{"  62812345  ", "62812345"},
		{"", ""},
		{"08123456789", "628123456789"},
		{"+62 812-3456-789", "628123456789"},
		{"628123456789", "628123456789"},
		{"8123456789", "628123456789"},
		{"(0812) 3456 789", "628123456789"},
		{"abc", ""},
		{"tel:+62812345678", "62812345678"},
		{"62 812:345:678", "62812345678"},
		{"+62812345678", "62812345678"},
		{"628123456789:7@s.whatsapp.net", "628123456789"},
	}

	for _, c := range cases {
		got := normalizePhone(c.in)
		if got != c.out {
			t.Fatalf("normalizePhone(%q)=%q; want %q", c.in, got, c.out)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewPhoneNormalizer("62")
	inputs := []string{"08123456789", "+628123456789", "8123456789", "0", "00812", "6281234567890123", "1"}
	for _, in := range inputs {
		once := n.Normalize(in)
		if twice := n.Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeCustomCountryCode(t *testing.T) {
	n := NewPhoneNormalizer("+60")
	if got := n.Normalize("0123456789"); got != "60123456789" {
		t.Fatalf("Normalize=%q; want 60123456789", got)
	}
	if got := NewPhoneNormalizer("").Normalize("0812345678"); got != "62812345678" {
		t.Fatalf("empty country code should default to 62, got %q", got)
	}
}

func TestPhoneValid(t *testing.T) {
	n := NewPhoneNormalizer(DefaultCountryCode)
	cases := []struct {
		in   string
		want bool
	}{
		{"628123456789", true},
		{"62812345", false},
		{"", false},
		{"1234567890123456", false},
		{"62812a456789", false},
	}
	for _, c := range cases {
		if got := n.Valid(c.in); got != c.want {
			t.Fatalf("Valid(%q)=%v; want %v", c.in, got, c.want)
		}
	}
}

func TestJIDFromNormalizedPhone(t *testing.T) {
	p := normalizePhone("62812345@s.whatsapp.net")
	if p != "62812345" {
		t.Fatalf("normalizePhone -> %q; want 62812345", p)
	}
	jid := waTypes.NewJID(p, waTypes.DefaultUserServer)
	if jid.String() != "62812345@s.whatsapp.net" {
		t.Fatalf("jid.String()=%q; want %q", jid.String(), "62812345@s.whatsapp.net")
	}
}
