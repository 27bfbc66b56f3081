package domain

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrNoValidCode     = errors.New("no valid OTP found, please request a new code")
	ErrCodeExpired     = errors.New("OTP has expired, please request a new code")
	ErrInvalidCode     = errors.New("invalid OTP code")
	ErrTooManyAttempts = errors.New("too many invalid attempts, please request a new code")
	ErrAlreadyExists   = errors.New("phone number already registered")
	ErrNotFound        = errors.New("record not found")
	ErrDownstream      = errors.New("downstream failure")
	ErrBypassDisabled  = errors.New("test modes are disabled")
)

// AttemptsError wraps ErrInvalidCode with the number of tries left.
type AttemptsError struct {
	Remaining int
}

func (e *AttemptsError) Error() string { return ErrInvalidCode.Error() }

func (e *AttemptsError) Unwrap() error { return ErrInvalidCode }
