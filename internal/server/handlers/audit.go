package handlers

import (
	"net/http"
	"time"

	"github.com/iudanet/localvault/pkg/api"
)

// ListAudit обрабатывает GET /api/v1/audit
// Журнал аудита, новые события первыми
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListAudit(r.Context(), h.sessionToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := api.AuditResponse{Events: make([]api.AuditEvent, 0, len(events))}
	for _, event := range events {
		meta := event.Meta
		if meta == nil {
			meta = map[string]any{}
		}

		resp.Events = append(resp.Events, api.AuditEvent{
			ID:        event.ID,
			Timestamp: event.Timestamp.Format(time.RFC3339),
			Type:      string(event.Type),
			Outcome:   string(event.Outcome),
			Meta:      meta,
		})
	}

	h.sendJSON(w, resp, http.StatusOK)
}
