package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
)

type OTPHandler struct {
	auth     domain.AuthService
	dispatch domain.DispatchService
	cfg      domain.ConfigService
}

func NewOTPHandler(auth domain.AuthService, dispatch domain.DispatchService, cfg domain.ConfigService) *OTPHandler {
	return &OTPHandler{
		auth:     auth,
		dispatch: dispatch,
		cfg:      cfg,
	}
}

// Register attaches the OTP routes to the mux.
func (h *OTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/send-otp", h.SendOTP)
	mux.HandleFunc("/api/auth/verify-otp", h.VerifyOTP)
	mux.HandleFunc("/api/otp/status", h.GetOTPStatus)
}

// SendOTP handles POST /api/auth/send-otp
func (h *OTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Phone == "" {
		respondError(w, http.StatusBadRequest, "phone number is required")
		return
	}

	resp, err := h.auth.SendOTP(r.Context(), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Phone == "" || (req.Code == "" && !req.SkipVerification) {
		respondError(w, http.StatusBadRequest, "phone and code are required")
		return
	}

	resp, err := h.auth.VerifyOTP(r.Context(), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetOTPStatus handles GET /api/otp/status (for operators)
func (h *OTPHandler) GetOTPStatus(w http.ResponseWriter, r *http.Request) {
	if !validateAPIKey(h.cfg, r) {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "active",
		"whatsapp_connected": h.dispatch.Connected(),
		"expiry_minutes":     h.cfg.GetOTPExpiryMinutes(),
		"max_attempts":       h.cfg.GetOTPMaxAttempts(),
		"test_modes_allowed": h.cfg.GetAllowTestModes(),
	})
}

// validateAPIKey validates the API key from header or query parameter.
// An empty configured key rejects everything.
func validateAPIKey(cfg domain.ConfigService, r *http.Request) bool {
	expected := cfg.GetAPIKey()
	if expected == "" {
		return false
	}

	key := r.Header.Get("X-API-Key")
	if key == "" {
		key = r.URL.Query().Get("api_key")
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(expected)) == 1
}
