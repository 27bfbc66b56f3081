package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "OTP_EXPIRY_MINUTES", "OTP_MAX_ATTEMPTS", "DEFAULT_COUNTRY_CODE", "ALLOW_TEST_MODES", "CORS_ALLOWED_ORIGINS", "JWT_ACCESS_TTL_MINUTES"} {
		t.Setenv(k, "")
	}

	c := FromEnv()
	if c.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr=%q; want :8080", c.HTTPAddr)
	}
	if c.OTPExpiryMinutes != 10 || c.OTPMaxAttempts != 5 {
		t.Fatalf("otp defaults = %d/%d; want 10/5", c.OTPExpiryMinutes, c.OTPMaxAttempts)
	}
	if c.DefaultCountryCode != "62" {
		t.Fatalf("DefaultCountryCode=%q; want 62", c.DefaultCountryCode)
	}
	if c.AllowTestModes {
		t.Fatal("test modes must be off by default")
	}
	if c.AccessTTL != time.Hour {
		t.Fatalf("AccessTTL=%v; want 1h", c.AccessTTL)
	}
	if len(c.CORSOrigins) != 1 || c.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins=%v; want [*]", c.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OTP_EXPIRY_MINUTES", "5")
	t.Setenv("ALLOW_TEST_MODES", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OTP_MAX_ATTEMPTS", "not-a-number")

	c := FromEnv()
	if c.OTPExpiryMinutes != 5 {
		t.Fatalf("OTPExpiryMinutes=%d; want 5", c.OTPExpiryMinutes)
	}
	if !c.AllowTestModes {
		t.Fatal("AllowTestModes should be true")
	}
	if c.OTPMaxAttempts != 5 {
		t.Fatalf("invalid int should fall back to default, got %d", c.OTPMaxAttempts)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins=%v", c.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		APIKey:           "key",
		JWTSecret:        "0123456789abcdef",
		OTPExpiryMinutes: 10,
		OTPMaxAttempts:   5,
		DemoOTPCode:      "123456",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"zero expiry", func(c *Config) { c.OTPExpiryMinutes = 0 }},
		{"bad demo code", func(c *Config) { c.DemoOTPCode = "12" }},
	}
	for _, tc := range cases {
		c := base
		tc.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
