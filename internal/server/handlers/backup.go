package handlers

import (
	"context"
	"net/http"

	"github.com/iudanet/localvault/internal/vault"
	"github.com/iudanet/localvault/pkg/api"
)

// importFunc - сигнатура preview и apply в сервисе
type importFunc func(ctx context.Context, token, csrf string, raw []byte, password string) (*vault.MergePreview, error)

// ExportBackup обрабатывает POST /api/v1/backup/export
// Отдает зашифрованный конверт; plaintext записей сервер не возвращает
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	envelope, err := h.svc.ExportBackup(r.Context(), h.sessionToken(r), h.csrfToken(r), req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="localvault-backup.json"`)
	h.sendJSON(w, envelope, http.StatusOK)
}

// PreviewImport обрабатывает POST /api/v1/backup/import/preview
// Сухой прогон слияния, базу не меняет
func (h *Handler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	h.runImport(w, r, h.svc.PreviewImport)
}

// ApplyImport обрабатывает POST /api/v1/backup/import/apply
func (h *Handler) ApplyImport(w http.ResponseWriter, r *http.Request) {
	h.runImport(w, r, h.svc.ApplyImport)
}

// runImport - общий каркас preview и apply
func (h *Handler) runImport(w http.ResponseWriter, r *http.Request, run importFunc) {
	var req api.ImportRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	preview, err := run(r.Context(), h.sessionToken(r), h.csrfToken(r), req.Bundle, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sendJSON(w, toMergeReport(preview), http.StatusOK)
}

func toMergeReport(preview *vault.MergePreview) api.MergeReport {
	return api.MergeReport{
		Add:    preview.Add,
		Update: preview.Update,
		Skip:   preview.Skip,
		Failed: preview.Failed,
	}
}
