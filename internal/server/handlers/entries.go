package handlers

import (
	"net/http"
	"time"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/validation"
	"github.com/iudanet/localvault/pkg/api"
)

// ListEntries обрабатывает GET /api/v1/entries
// Возвращает записи без секретных полей, новые первыми
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListEntries(r.Context(), h.sessionToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := api.EntriesResponse{Entries: make([]api.EntrySummary, 0, len(summaries))}
	for _, s := range summaries {
		resp.Entries = append(resp.Entries, api.EntrySummary{
			ID:        s.ID,
			Title:     s.Title,
			Username:  s.Username,
			URL:       s.URL,
			Favorite:  s.Favorite,
			UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
		})
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// GetEntry обрабатывает GET /api/v1/entries/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.GetEntry(r.Context(), h.sessionToken(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIEntry(entry), http.StatusOK)
}

// CreateEntry обрабатывает POST /api/v1/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req api.EntryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.svc.CreateEntry(r.Context(), h.sessionToken(r), h.csrfToken(r), entryInput(&req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIEntry(entry), http.StatusCreated)
}

// UpdateEntry обрабатывает PUT /api/v1/entries/{id}
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req api.EntryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.svc.UpdateEntry(r.Context(), h.sessionToken(r), h.csrfToken(r), r.PathValue("id"), entryInput(&req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendJSON(w, toAPIEntry(entry), http.StatusOK)
}

// DeleteEntry обрабатывает DELETE /api/v1/entries/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEntry(r.Context(), h.sessionToken(r), h.csrfToken(r), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func entryInput(req *api.EntryRequest) *validation.EntryInput {
	return &validation.EntryInput{
		Title:    req.Title,
		URL:      req.URL,
		Username: req.Username,
		Password: req.Password,
		Notes:    req.Notes,
		Tags:     req.Tags,
		Favorite: req.Favorite,
	}
}

func toAPIEntry(entry *models.Entry) api.Entry {
	return api.Entry{
		ID:        entry.ID,
		Title:     entry.Title,
		URL:       entry.URL,
		Username:  entry.Username,
		Password:  entry.Password,
		Notes:     entry.Notes,
		Tags:      entry.Tags,
		Favorite:  entry.Favorite,
		UpdatedAt: entry.UpdatedAt.Format(time.RFC3339),
	}
}
