package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/rs/zerolog"
)

// AuthSettings holds the switches that gate the test bypass paths.
type AuthSettings struct {
	AllowTestModes bool
	TestBypassCode string
}

// AuthService composes the OTP components into the Send and Verify flows.
// It keeps no per-request state.
type AuthService struct {
	phones   *PhoneNormalizer
	ledger   *OTPLedger
	dispatch domain.DispatchService
	identity *IdentityResolver
	plans    *PlanAssignor
	sessions *SessionIssuer
	limiter  domain.SendLimiter
	settings AuthSettings
	log      zerolog.Logger
}

var _ domain.AuthService = (*AuthService)(nil)

// NewAuthService wires the flow. limiter may be nil.
func NewAuthService(
	phones *PhoneNormalizer,
	ledger *OTPLedger,
	dispatch domain.DispatchService,
	identity *IdentityResolver,
	plans *PlanAssignor,
	sessions *SessionIssuer,
	limiter domain.SendLimiter,
	settings AuthSettings,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		phones:   phones,
		ledger:   ledger,
		dispatch: dispatch,
		identity: identity,
		plans:    plans,
		sessions: sessions,
		limiter:  limiter,
		settings: settings,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// SendOTP issues or reuses a code for the phone and tries to deliver it.
// Delivery failures never fail the call.
func (s *AuthService) SendOTP(ctx context.Context, req domain.SendOTPRequest) (*domain.SendOTPResponse, error) {
	phone := s.phones.Normalize(req.Phone)
	if !s.phones.Valid(phone) {
		return nil, fmt.Errorf("%w: invalid phone number", domain.ErrValidation)
	}
	mode := s.mode(domain.Mode{Test: req.TestMode, Demo: req.DemoMode})
	intent := domain.IntentFromSignupMode(req.SignupMode)

	if err := s.checkIntent(ctx, phone, intent); err != nil {
		return nil, err
	}

	issue, err := s.ledger.GenerateOrReuse(ctx, phone, mode.Demo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownstream, err)
	}

	resp := &domain.SendOTPResponse{
		Success:         true,
		UsedExistingOTP: issue.Reused,
		OTPAgeMinutes:   issue.AgeMinutes,
		Debug: domain.SendOTPDebug{
			NormalizedPhone: phone,
			ExpiresAt:       issue.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}
	if mode.Test || mode.Demo {
		resp.Debug.TestCode = issue.Code
	}

	if s.limited(ctx, phone, mode) {
		resp.Debug.RateLimited = true
		resp.Message = "Too many codes requested for this number; use the code already sent to WhatsApp"
		return resp, nil
	}

	result := s.dispatch.Send(ctx, phone, otpMessage(issue), mode)
	resp.Delivered = result.OK && !result.Skipped
	resp.Debug.DispatchSkipped = result.Skipped
	resp.Debug.GatewayResponse = result.Raw
	if !result.OK {
		s.log.Warn().Str("phone", phone).Str("raw", result.Raw).Msg("otp issued but not delivered")
	}

	switch {
	case issue.Reused:
		resp.Message = fmt.Sprintf("A code sent %d minute(s) ago is still valid and was sent again", issue.AgeMinutes)
	default:
		resp.Message = "Verification code sent to WhatsApp"
	}
	return resp, nil
}

// VerifyOTP checks the code and turns it into a session. Once the code is
// known to be correct every downstream failure degrades the session rather
// than failing the call.
func (s *AuthService) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.VerifyOTPResponse, error) {
	phone := s.phones.Normalize(req.Phone)
	if !s.phones.Valid(phone) {
		return nil, fmt.Errorf("%w: invalid phone number", domain.ErrValidation)
	}
	if req.SkipVerification && !s.settings.AllowTestModes {
		return nil, domain.ErrBypassDisabled
	}
	mode := s.mode(domain.Mode{Test: req.TestMode, SkipVerification: req.SkipVerification})
	if !mode.SkipVerification && !validCode(req.Code) {
		return nil, fmt.Errorf("%w: code must be 6 digits", domain.ErrValidation)
	}
	intent := domain.IntentFromSignupMode(req.SignupMode)

	if err := s.checkIntent(ctx, phone, intent); err != nil {
		return nil, err
	}

	bypass := mode.SkipVerification || (mode.Test && s.settings.TestBypassCode != "" && req.Code == s.settings.TestBypassCode)
	if bypass {
		s.log.Warn().Str("phone", phone).Msg("verification bypassed by test mode")
	} else if rec, err := s.ledger.Verify(ctx, phone, req.Code); err != nil {
		if rec == nil || !errors.Is(err, domain.ErrDownstream) {
			return nil, err
		}
		s.log.Error().Err(err).Str("phone", phone).Msg("code matched but could not be consumed")
		return s.emergencyResponse(phone), nil
	}

	return s.completeLogin(ctx, phone, intent)
}

// Redeliver sends the live code for phone again. It reports false when no
// live code exists and ErrDownstream when delivery failed.
func (s *AuthService) Redeliver(ctx context.Context, phone string) (bool, error) {
	phone = s.phones.Normalize(phone)
	rec, err := s.ledger.Live(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	issue := &domain.OTPIssue{Code: rec.Code, Phone: phone, CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt, Reused: true}
	if result := s.dispatch.Send(ctx, phone, otpMessage(issue), domain.Mode{}); !result.OK {
		return true, fmt.Errorf("%w: %s", domain.ErrDownstream, result.Raw)
	}
	return true, nil
}

func (s *AuthService) completeLogin(ctx context.Context, phone string, intent domain.Intent) (resp *domain.VerifyOTPResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("phone", phone).Msg("login pipeline panicked after code verification")
			resp, err = s.emergencyResponse(phone), nil
		}
	}()

	res, err := s.identity.Resolve(ctx, phone, intent)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.log.Error().Err(err).Str("phone", phone).Msg("identity resolution failed after code verification")
		return s.emergencyResponse(phone), nil
	}

	firstLogin := res.IsNewUser || res.Account.LastLoginAt == nil
	plan, err := s.plans.Assign(ctx, res.Account, res.IsNewUser)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", res.Account.UserID).Msg("plan assignment failed after code verification")
		return s.emergencyResponse(phone), nil
	}

	issued := s.sessions.Issue(res.Account.UserID, phone)
	return &domain.VerifyOTPResponse{
		Success:      true,
		Session:      issued.Session,
		SessionLevel: issued.Level.String(),
		User:         domain.UserView{ID: res.Account.UserID, Phone: phone},
		IsFirstLogin: firstLogin,
		PlanInfo:     plan,
	}, nil
}

func (s *AuthService) emergencyResponse(phone string) *domain.VerifyOTPResponse {
	issued := s.sessions.Emergency(phone)
	return &domain.VerifyOTPResponse{
		Success:      true,
		Session:      issued.Session,
		SessionLevel: issued.Level.String(),
		User:         domain.UserView{ID: issued.Session.Subject, Phone: phone},
		PlanInfo:     domain.PlanInfo{Plan: domain.PlanFree},
	}
}

// checkIntent surfaces identity conflicts and lets store failures through.
func (s *AuthService) checkIntent(ctx context.Context, phone string, intent domain.Intent) error {
	err := s.identity.Check(ctx, phone, intent)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrDownstream) {
		s.log.Warn().Err(err).Str("phone", phone).Msg("identity precheck skipped")
		return nil
	}
	return err
}

func (s *AuthService) limited(ctx context.Context, phone string, mode domain.Mode) bool {
	if s.limiter == nil || mode.Test || mode.Demo {
		return false
	}
	ok, err := s.limiter.Allow(ctx, phone)
	if err != nil {
		s.log.Warn().Err(err).Msg("send limiter unavailable")
		return false
	}
	return !ok
}

// mode clears the bypass flags unless test modes are enabled.
func (s *AuthService) mode(m domain.Mode) domain.Mode {
	if !s.settings.AllowTestModes && m.Bypass() {
		s.log.Warn().Msg("ignoring test flags: test modes are disabled")
		return domain.Mode{}
	}
	return m
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	return digitsOnly(code) == code
}

func otpMessage(issue *domain.OTPIssue) string {
	minutes := int(time.Until(issue.ExpiresAt).Minutes()) + 1
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("🔐 Kode OTP Anda: *%s*\n\n⏰ Berlaku selama %d menit\n\n⚠️ Jangan bagikan kode ini kepada siapapun!", issue.Code, minutes)
}
