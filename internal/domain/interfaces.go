package domain

import (
	"context"
	"database/sql"
	"time"
)

// WhatsAppService handles WhatsApp messaging operations
type WhatsAppService interface {
	SendMessage(ctx context.Context, phone, message string) (string, error)
	IsConnected() bool
}

// DispatchService delivers a message body to a phone with soft-failure semantics.
type DispatchService interface {
	Send(ctx context.Context, phone, body string, mode Mode) DispatchResult
	Connected() bool
}

// DatabaseService handles database operations
type DatabaseService interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// OTPStore persists OTP records.
type OTPStore interface {
	InsertOTP(ctx context.Context, rec *OTPRecord) error
	// LatestUnverifiedOTP returns the newest record with verified = false, or ErrNotFound.
	LatestUnverifiedOTP(ctx context.Context, phone string) (*OTPRecord, error)
	IncrementOTPAttempts(ctx context.Context, id string) (int, error)
	MarkOTPVerified(ctx context.Context, id string) error
}

// AccountStore persists accounts keyed by phone.
type AccountStore interface {
	FindAccountByPhone(ctx context.Context, phone string) (*Account, error)
	CreateAccount(ctx context.Context, acc *Account) error
	UpdateAccountLogin(ctx context.Context, acc *Account) error
}

// Store is the full relational collaborator.
type Store interface {
	OTPStore
	AccountStore
}

// TokenIssuer mints a signed access/refresh pair for a user.
type TokenIssuer interface {
	IssuePair(userID, phone string) (access, refresh string, expiresAt time.Time, err error)
}

// SendLimiter caps outbound deliveries per phone.
type SendLimiter interface {
	Allow(ctx context.Context, phone string) (bool, error)
}

// AuthService exposes the Send and Verify entry points.
type AuthService interface {
	SendOTP(ctx context.Context, req SendOTPRequest) (*SendOTPResponse, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResponse, error)
	Redeliver(ctx context.Context, phone string) (bool, error)
}

// ConfigService handles application configuration
type ConfigService interface {
	GetDatabaseURL() string
	GetWhatsAppEnabled() bool
	GetWhatsAppStorePath() string
	GetAPIKey() string
	GetHTTPAddr() string
	GetJWTSecret() string
	GetJWTIssuer() string
	GetAccessTTL() time.Duration
	GetRefreshTTL() time.Duration
	GetOTPExpiryMinutes() int
	GetOTPMaxAttempts() int
	GetDefaultCountryCode() string
	GetDemoOTPCode() string
	GetTestBypassCode() string
	GetAllowTestModes() bool
	GetTrialDays() int
	GetInactivityDays() int
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSendLimitPerHour() int
	GetDispatchTimeout() time.Duration
	GetCORSOrigins() []string
	GetLogLevel() string
	GetLogFormat() string
}
