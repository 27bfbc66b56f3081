package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/services"
)

// MessageHandler relays arbitrary text to a phone for trusted callers.
type MessageHandler struct {
	dispatch domain.DispatchService
	phones   *services.PhoneNormalizer
	config   domain.ConfigService
}

func NewMessageHandler(dispatch domain.DispatchService, phones *services.PhoneNormalizer, config domain.ConfigService) *MessageHandler {
	return &MessageHandler{
		dispatch: dispatch,
		phones:   phones,
		config:   config,
	}
}

func (h *MessageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/send-message", h.SendMessage)
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !validateAPIKey(h.config, r) {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	phone := h.phones.Normalize(req.Phone)
	req.Message = strings.TrimSpace(req.Message)
	if !h.phones.Valid(phone) {
		respondError(w, http.StatusBadRequest, "valid phone is required")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result := h.dispatch.Send(r.Context(), phone, req.Message, domain.Mode{})
	if !result.OK {
		respondJSON(w, http.StatusBadGateway, domain.SendMessageResponse{Status: "failed", Phone: phone, Raw: result.Raw})
		return
	}

	respondJSON(w, http.StatusOK, domain.SendMessageResponse{Status: "sent", Phone: phone, Raw: result.Raw})
}
