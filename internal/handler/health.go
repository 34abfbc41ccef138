package handler

import (
	"net/http"

	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/utils"
)

// HealthHandler reports liveness only.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports whether the remote API is reachable.
func (h *Handler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Questions.Ping(r.Context()); err != nil {
		logger.Log.Warn("readiness check failed", "error", err)
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
