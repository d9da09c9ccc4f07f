package handlers

import (
	"net/http"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/pkg/api"
)

// GetSettings обрабатывает GET /api/v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context(), h.sessionToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendJSON(w, toAPISettings(settings), http.StatusOK)
}

// UpdateSettings обрабатывает PUT /api/v1/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req api.SettingsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	settings := &models.Settings{
		AutoLockMinutes:       req.AutoLockMinutes,
		ClipboardClearSeconds: req.ClipboardClearSeconds,
		RequireReauthForCopy:  req.RequireReauthForCopy,
	}

	saved, err := h.svc.UpdateSettings(r.Context(), h.sessionToken(r), h.csrfToken(r), settings)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendJSON(w, toAPISettings(saved), http.StatusOK)
}

func toAPISettings(settings *models.Settings) api.SettingsResponse {
	return api.SettingsResponse{
		AutoLockMinutes:       settings.AutoLockMinutes,
		ClipboardClearSeconds: settings.ClipboardClearSeconds,
		RequireReauthForCopy:  settings.RequireReauthForCopy,
	}
}
