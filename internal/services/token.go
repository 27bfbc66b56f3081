package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims represents the JWT claims
type Claims struct {
	Phone     string    `json:"phone"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues signed JWTs for authenticated users.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowF       func() time.Time
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowF:       time.Now,
	}
}

// IssuePair mints an access and a refresh token for userID.
func (t *TokenManager) IssuePair(userID, phone string) (string, string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", "", time.Time{}, errors.New("token secret not configured")
	}
	if userID == "" {
		return "", "", time.Time{}, errors.New("empty subject")
	}
	access, accessExp, err := t.generate(userID, phone, AccessToken, t.accessTTL)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, _, err := t.generate(userID, phone, RefreshToken, t.refreshTTL)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return access, refresh, accessExp, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (t *TokenManager) Refresh(refreshToken string) (string, time.Time, error) {
	claims, err := t.Validate(refreshToken, RefreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return t.generate(claims.Subject, claims.Phone, AccessToken, t.accessTTL)
}

// Validate parses tokenString and checks its signature and type.
func (t *TokenManager) Validate(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.nowF))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != expected {
		return nil, errors.New("invalid token type")
	}
	return claims, nil
}

func (t *TokenManager) generate(userID, phone string, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := t.nowF()
	exp := now.Add(ttl)
	claims := Claims{
		Phone:     phone,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}
