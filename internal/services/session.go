package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	fallbackPrefix  = "fb"
	emergencyPrefix = "em"
	degradedTTL     = time.Hour
)

// SessionIssuer mints sessions and degrades to locally built tokens when
// the primary issuer fails. It never returns an error.
type SessionIssuer struct {
	primary domain.TokenIssuer
	log     zerolog.Logger
	nowF    func() time.Time
}

func NewSessionIssuer(primary domain.TokenIssuer, log zerolog.Logger) *SessionIssuer {
	return &SessionIssuer{
		primary: primary,
		log:     log.With().Str("component", "session_issuer").Logger(),
		nowF:    time.Now,
	}
}

// Issue tries the primary issuer, then a fallback pair bound to userID.
func (s *SessionIssuer) Issue(userID, phone string) domain.IssuedSession {
	if s.primary != nil {
		access, refresh, exp, err := s.primary.IssuePair(userID, phone)
		if err == nil {
			return domain.IssuedSession{
				Session: domain.Session{
					AccessToken:  access,
					RefreshToken: refresh,
					Subject:      userID,
					Phone:        phone,
					ExpiresAt:    exp,
				},
				Level: domain.DegradationPrimary,
			}
		}
		s.log.Error().Err(err).Str("user_id", userID).Msg("primary session issue failed, using fallback")
	}

	sess := s.local(fallbackPrefix, userID, phone)
	sess.Fallback = true
	return domain.IssuedSession{Session: sess, Level: domain.DegradationFallback}
}

// Emergency builds a session around a transient subject for when the
// account itself could not be resolved or updated.
func (s *SessionIssuer) Emergency(phone string) domain.IssuedSession {
	transient := uuid.NewString()
	s.log.Error().Str("transient_id", transient).Str("phone", phone).Msg("issuing emergency session")

	sess := s.local(emergencyPrefix, transient, phone)
	sess.Emergency = true
	return domain.IssuedSession{Session: sess, Level: domain.DegradationEmergency}
}

type localTokenBody struct {
	Kind    string `json:"kind"`
	Subject string `json:"sub"`
	Phone   string `json:"phone"`
	Issued  int64  `json:"iat"`
	Expires int64  `json:"exp"`
	Nonce   string `json:"nonce"`
}

// local builds an unsigned, self-describing token pair. These are markers
// for reconciliation and are rejected by TokenManager.Validate.
func (s *SessionIssuer) local(prefix, subject, phone string) domain.Session {
	now := s.nowF()
	exp := now.Add(degradedTTL)
	return domain.Session{
		AccessToken:  encodeLocalToken(prefix, "access", subject, phone, now, exp),
		RefreshToken: encodeLocalToken(prefix, "refresh", subject, phone, now, exp),
		Subject:      subject,
		Phone:        phone,
		ExpiresAt:    exp,
	}
}

func encodeLocalToken(prefix, kind, subject, phone string, iat, exp time.Time) string {
	body := localTokenBody{
		Kind:    prefix + "_" + kind,
		Subject: subject,
		Phone:   phone,
		Issued:  iat.Unix(),
		Expires: exp.Unix(),
		Nonce:   randomNonce(),
	}
	// Marshalling a struct of strings and ints cannot fail.
	b, _ := json.Marshal(body)
	return prefix + "." + base64.RawURLEncoding.EncodeToString(b)
}

// DecodeLocalToken reads back the body of a fallback or emergency token.
func DecodeLocalToken(token string) (subject, phone, kind string, ok bool) {
	for _, p := range []string{fallbackPrefix, emergencyPrefix} {
		if len(token) > len(p)+1 && token[:len(p)+1] == p+"." {
			raw, err := base64.RawURLEncoding.DecodeString(token[len(p)+1:])
			if err != nil {
				return "", "", "", false
			}
			var body localTokenBody
			if err := json.Unmarshal(raw, &body); err != nil {
				return "", "", "", false
			}
			return body.Subject, body.Phone, body.Kind, true
		}
	}
	return "", "", "", false
}

func randomNonce() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
