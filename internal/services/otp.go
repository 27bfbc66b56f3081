package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// OTPLedger generates, persists and checks one-time codes per phone key.
type OTPLedger struct {
	store       domain.OTPStore
	ttl         time.Duration
	reuseWindow time.Duration
	maxAttempts int
	demoCode    string
	log         zerolog.Logger
	nowF        func() time.Time
}

// NewOTPLedger creates a ledger whose codes live for ttl and whose reuse
// window equals ttl.
func NewOTPLedger(store domain.OTPStore, ttl time.Duration, maxAttempts int, demoCode string, log zerolog.Logger) *OTPLedger {
	return &OTPLedger{
		store:       store,
		ttl:         ttl,
		reuseWindow: ttl,
		maxAttempts: maxAttempts,
		demoCode:    demoCode,
		log:         log.With().Str("component", "otp_ledger").Logger(),
		nowF:        time.Now,
	}
}

// MaxAttempts is the number of wrong codes a record tolerates.
func (l *OTPLedger) MaxAttempts() int { return l.maxAttempts }

// TTL is the lifetime of a fresh code.
func (l *OTPLedger) TTL() time.Duration { return l.ttl }

// GenerateOrReuse returns the outstanding code for phone when one was created
// inside the reuse window, otherwise persists a fresh one.
func (l *OTPLedger) GenerateOrReuse(ctx context.Context, phone string, demo bool) (*domain.OTPIssue, error) {
	now := l.nowF()

	existing, err := l.store.LatestUnverifiedOTP(ctx, phone)
	switch {
	case err == nil:
		if l.usable(existing, now) && now.Sub(existing.CreatedAt) < l.reuseWindow {
			age := int(now.Sub(existing.CreatedAt).Minutes())
			l.log.Debug().Str("phone", phone).Int("age_minutes", age).Msg("reusing outstanding code")
			return &domain.OTPIssue{
				Code:       existing.Code,
				Phone:      phone,
				CreatedAt:  existing.CreatedAt,
				ExpiresAt:  existing.ExpiresAt,
				Reused:     true,
				AgeMinutes: age,
			}, nil
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("lookup outstanding otp: %w", err)
	}

	code := l.demoCode
	if !demo || code == "" {
		code, err = generateRandomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate OTP code: %w", err)
		}
	}

	rec := &domain.OTPRecord{
		ID:        uuid.NewString(),
		Phone:     phone,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}
	if err := l.store.InsertOTP(ctx, rec); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	return &domain.OTPIssue{
		Code:      rec.Code,
		Phone:     phone,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Verify matches code against the newest unverified record of phone. When
// the code matched but could not be marked verified it returns the record
// together with an ErrDownstream error.
func (l *OTPLedger) Verify(ctx context.Context, phone, code string) (*domain.OTPRecord, error) {
	rec, err := l.store.LatestUnverifiedOTP(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoValidCode
		}
		return nil, fmt.Errorf("lookup otp: %w", err)
	}

	if !rec.LiveAt(l.nowF()) {
		return nil, domain.ErrCodeExpired
	}
	if l.exhausted(rec) {
		return nil, domain.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		attempts, err := l.store.IncrementOTPAttempts(ctx, rec.ID)
		if err != nil {
			l.log.Warn().Err(err).Str("otp_id", rec.ID).Msg("failed to record attempt")
			attempts = rec.Attempts + 1
		}
		remaining := l.maxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, &domain.AttemptsError{Remaining: remaining}
	}

	if err := l.store.MarkOTPVerified(ctx, rec.ID); err != nil {
		return rec, fmt.Errorf("%w: mark otp verified: %v", domain.ErrDownstream, err)
	}
	rec.Verified = true
	return rec, nil
}

// Live returns the record a Verify would currently match against.
func (l *OTPLedger) Live(ctx context.Context, phone string) (*domain.OTPRecord, error) {
	rec, err := l.store.LatestUnverifiedOTP(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !l.usable(rec, l.nowF()) {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// usable reports whether rec can still be matched or resent at now.
func (l *OTPLedger) usable(rec *domain.OTPRecord, now time.Time) bool {
	return rec.LiveAt(now) && !l.exhausted(rec)
}

func (l *OTPLedger) exhausted(rec *domain.OTPRecord) bool {
	return l.maxAttempts > 0 && rec.Attempts >= l.maxAttempts
}

// generateRandomCode draws uniformly from 100000..999999
func generateRandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
