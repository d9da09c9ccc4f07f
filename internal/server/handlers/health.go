package handlers

import (
	"net/http"
)

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /api/v1/health
// Не раскрывает состояние хранилища - только живость процесса
func (h *Handler) Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Version: version,
		}
		h.sendJSON(w, resp, http.StatusOK)
	}
}
