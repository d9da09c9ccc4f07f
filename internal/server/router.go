// Package server собирает HTTP-маршруты и middleware поверх handlers.
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/localvault/internal/server/handlers"
	"github.com/iudanet/localvault/internal/server/middleware"
)

// NewRouter строит дерево маршрутов API v1 с общими middleware.
// Авторизация не вынесена в middleware: каждый handler сам проверяет
// сессию через сервис, у которого единственный источник правды о ней.
func NewRouter(logger *slog.Logger, h *handlers.Handler, version string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health(version))

	mux.HandleFunc("GET /api/v1/vault/status", h.Status)
	mux.HandleFunc("POST /api/v1/vault/setup", h.Setup)
	mux.HandleFunc("POST /api/v1/vault/unlock", h.Unlock)
	mux.HandleFunc("POST /api/v1/vault/lock", h.Lock)
	mux.HandleFunc("POST /api/v1/vault/verify", h.Verify)

	mux.HandleFunc("GET /api/v1/entries", h.ListEntries)
	mux.HandleFunc("POST /api/v1/entries", h.CreateEntry)
	mux.HandleFunc("GET /api/v1/entries/{id}", h.GetEntry)
	mux.HandleFunc("PUT /api/v1/entries/{id}", h.UpdateEntry)
	mux.HandleFunc("DELETE /api/v1/entries/{id}", h.DeleteEntry)

	mux.HandleFunc("GET /api/v1/settings", h.GetSettings)
	mux.HandleFunc("PUT /api/v1/settings", h.UpdateSettings)

	mux.HandleFunc("GET /api/v1/audit", h.ListAudit)

	mux.HandleFunc("POST /api/v1/backup/export", h.ExportBackup)
	mux.HandleFunc("POST /api/v1/backup/import/preview", h.PreviewImport)
	mux.HandleFunc("POST /api/v1/backup/import/apply", h.ApplyImport)

	var handler http.Handler = mux
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
