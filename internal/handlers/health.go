package handlers

import (
	"net/http"
	"time"
)

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt}
}

func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
