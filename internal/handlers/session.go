package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/services"
)

// SessionHandler serves token refresh and introspection for primary sessions.
type SessionHandler struct {
	tokens *services.TokenManager
}

func NewSessionHandler(tokens *services.TokenManager) *SessionHandler {
	return &SessionHandler{tokens: tokens}
}

func (h *SessionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/api/auth/me", h.handleMe)
}

func (h *SessionHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		respondError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	if degradedToken(w, req.RefreshToken) {
		return
	}

	access, exp, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"access_token": access,
		"expires_at":   exp.UTC().Format(time.RFC3339),
	})
}

func (h *SessionHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if degradedToken(w, token) {
		return
	}

	claims, err := h.tokens.Validate(token, services.AccessToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid access token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    domain.UserView{ID: claims.Subject, Phone: claims.Phone},
	})
}

// degradedToken rejects fallback and emergency tokens with a hint that the
// client must log in again once the backend has recovered.
func degradedToken(w http.ResponseWriter, token string) bool {
	subject, _, kind, ok := services.DecodeLocalToken(token)
	if !ok {
		return false
	}
	respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
		"success":   false,
		"error":     "degraded session must be reconciled by logging in again",
		"kind":      kind,
		"subject":   subject,
		"reconcile": true,
	})
	return true
}
