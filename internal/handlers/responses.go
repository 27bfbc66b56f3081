package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Success           bool   `json:"success"`
	Error             string `json:"error"`
	Redirect          string `json:"redirect,omitempty"`
	AttemptsRemaining *int   `json:"attemptsRemaining,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("respondJSON: encode payload failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondDomainError maps the auth error taxonomy onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var attempts *domain.AttemptsError
	switch {
	case errors.As(err, &attempts):
		status = http.StatusBadRequest
		remaining := attempts.Remaining
		body.AttemptsRemaining = &remaining
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNoValidCode),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrTooManyAttempts):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBypassDisabled):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		body.Error = "phone number is not registered"
		body.Redirect = "signup"
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
		body.Redirect = "login"
	default:
		log.Error().Err(err).Msg("request failed")
		body.Error = "internal error"
	}
	respondJSON(w, status, body)
}
