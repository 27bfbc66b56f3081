package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	WhatsAppEnabled   bool
	WhatsAppStorePath string
	APIKey            string
	HTTPAddr          string

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	OTPExpiryMinutes   int
	OTPMaxAttempts     int
	DefaultCountryCode string
	DemoOTPCode        string
	TestBypassCode     string
	AllowTestModes     bool

	TrialDays      int
	InactivityDays int

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SendLimitPerHour int
	DispatchTimeout  time.Duration

	CORSOrigins []string
	LogLevel    string
	LogFormat   string
}

func NewConfig() *Config {
	// Load .env if present
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		WhatsAppEnabled:   envBool("WHATSAPP_ENABLED", true),
		WhatsAppStorePath: envString("WHATSAPP_STORE_PATH", "whatsmeow.db"),
		APIKey:            strings.TrimSpace(os.Getenv("API_KEY")),
		HTTPAddr:          envString("HTTP_ADDR", ":8080"),

		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:  envString("JWT_ISSUER", "wa-otp-auth"),
		AccessTTL:  time.Duration(envInt("JWT_ACCESS_TTL_MINUTES", 60)) * time.Minute,
		RefreshTTL: time.Duration(envInt("JWT_REFRESH_TTL_HOURS", 24*30)) * time.Hour,

		OTPExpiryMinutes:   envInt("OTP_EXPIRY_MINUTES", 10),
		OTPMaxAttempts:     envInt("OTP_MAX_ATTEMPTS", 5),
		DefaultCountryCode: envString("DEFAULT_COUNTRY_CODE", "62"),
		DemoOTPCode:        envString("DEMO_OTP_CODE", "123456"),
		TestBypassCode:     envString("TEST_BYPASS_CODE", "000000"),
		AllowTestModes:     envBool("ALLOW_TEST_MODES", false),

		TrialDays:      envInt("TRIAL_DAYS", 30),
		InactivityDays: envInt("INACTIVITY_DAYS", 14),

		RedisAddr:        strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          envInt("REDIS_DB", 0),
		SendLimitPerHour: envInt("SEND_LIMIT_PER_HOUR", 5),
		DispatchTimeout:  time.Duration(envInt("DISPATCH_TIMEOUT_SECONDS", 15)) * time.Second,

		CORSOrigins: parseCSV(envString("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogFormat:   envString("LOG_FORMAT", "json"),
	}
}

func (c *Config) GetDatabaseURL() string        { return c.DatabaseURL }
func (c *Config) GetWhatsAppEnabled() bool      { return c.WhatsAppEnabled }
func (c *Config) GetWhatsAppStorePath() string  { return c.WhatsAppStorePath }
func (c *Config) GetAPIKey() string             { return c.APIKey }
func (c *Config) GetHTTPAddr() string           { return c.HTTPAddr }
func (c *Config) GetJWTSecret() string          { return c.JWTSecret }
func (c *Config) GetJWTIssuer() string          { return c.JWTIssuer }
func (c *Config) GetAccessTTL() time.Duration   { return c.AccessTTL }
func (c *Config) GetRefreshTTL() time.Duration  { return c.RefreshTTL }
func (c *Config) GetOTPExpiryMinutes() int      { return c.OTPExpiryMinutes }
func (c *Config) GetOTPMaxAttempts() int        { return c.OTPMaxAttempts }
func (c *Config) GetDefaultCountryCode() string { return c.DefaultCountryCode }
func (c *Config) GetDemoOTPCode() string        { return c.DemoOTPCode }
func (c *Config) GetTestBypassCode() string     { return c.TestBypassCode }
func (c *Config) GetAllowTestModes() bool       { return c.AllowTestModes }
func (c *Config) GetTrialDays() int             { return c.TrialDays }
func (c *Config) GetInactivityDays() int        { return c.InactivityDays }
func (c *Config) GetRedisAddr() string          { return c.RedisAddr }
func (c *Config) GetRedisPassword() string      { return c.RedisPassword }
func (c *Config) GetRedisDB() int               { return c.RedisDB }
func (c *Config) GetSendLimitPerHour() int      { return c.SendLimitPerHour }
func (c *Config) GetDispatchTimeout() time.Duration {
	return c.DispatchTimeout
}
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetLogLevel() string      { return c.LogLevel }
func (c *Config) GetLogFormat() string     { return c.LogFormat }

// Validate checks the settings a live deployment cannot run without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.OTPExpiryMinutes <= 0 {
		return fmt.Errorf("OTP_EXPIRY_MINUTES must be positive")
	}
	if c.OTPMaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}
	if len(c.DemoOTPCode) != 6 {
		return fmt.Errorf("DEMO_OTP_CODE must be 6 digits")
	}
	return nil
}

var _ domain.ConfigService = (*Config)(nil)

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
