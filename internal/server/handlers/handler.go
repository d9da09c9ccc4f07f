package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/localvault/internal/validation"
	"github.com/iudanet/localvault/internal/vault"
	"github.com/iudanet/localvault/pkg/api"
)

// Имена cookie и заголовка CSRF
const (
	SessionCookie = "session_token"
	CSRFCookie    = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// Публичные коды ошибок API
const (
	codeUnauthorized      = "UNAUTHORIZED"
	codeRateLimited       = "RATE_LIMITED"
	codeCSRFInvalid       = "CSRF_INVALID"
	codeNotFound          = "NOT_FOUND"
	codeVaultExists       = "VAULT_EXISTS"
	codeVaultNotSetup     = "VAULT_NOT_INITIALIZED"
	codeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	codeValidation        = "VALIDATION_ERROR"
	codeEntryUnavailable  = "ENTRY_UNAVAILABLE"
	codeInternal          = "INTERNAL_ERROR"
)

// Handler обрабатывает все запросы API хранилища
type Handler struct {
	logger *slog.Logger
	svc    *vault.Service
}

// New создает handler поверх сервиса хранилища
func New(logger *slog.Logger, svc *vault.Service) *Handler {
	return &Handler{
		logger: logger,
		svc:    svc,
	}
}

// sessionToken извлекает session token из cookie
func (h *Handler) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// csrfToken извлекает CSRF token из заголовка
func (h *Handler) csrfToken(r *http.Request) string {
	return r.Header.Get(CSRFHeader)
}

// decodeJSON парсит request body в dst
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", validation.ErrInvalid)
	}
	return nil
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *Handler) sendError(w http.ResponseWriter, code, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error: api.ErrorBody{
			Code:    code,
			Message: message,
		},
	}
	h.sendJSON(w, resp, statusCode)
}

// writeError отображает ошибку сервиса на публичный код API.
// Все причины отказа в аутентификации схлопываются в один UNAUTHORIZED;
// троттлинг - единственная причина, видимая клиенту явно.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var throttled *vault.ThrottledError

	switch {
	case errors.As(err, &throttled):
		resp := api.ErrorResponse{
			Error: api.ErrorBody{
				Code:              codeRateLimited,
				Message:           "too many failed attempts",
				RetryAfterSeconds: throttled.RetryAfterSeconds(),
			},
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%d", throttled.RetryAfterSeconds()))
		h.sendJSON(w, resp, http.StatusTooManyRequests)

	case errors.Is(err, vault.ErrCSRFMismatch):
		h.sendError(w, codeCSRFInvalid, "csrf token missing or invalid", http.StatusForbidden)

	case errors.Is(err, vault.ErrUnauthorized):
		h.sendError(w, codeUnauthorized, "unauthorized", http.StatusUnauthorized)

	case errors.Is(err, vault.ErrUninitialized):
		h.sendError(w, codeVaultNotSetup, "vault is not initialized", http.StatusConflict)

	case errors.Is(err, vault.ErrAlreadyInitialized):
		h.sendError(w, codeVaultExists, "vault is already initialized", http.StatusConflict)

	case errors.Is(err, vault.ErrNotFound):
		h.sendError(w, codeNotFound, "not found", http.StatusNotFound)

	case errors.Is(err, vault.ErrUnsupportedFormat):
		h.sendError(w, codeUnsupportedFormat, "unsupported backup format", http.StatusBadRequest)

	case errors.Is(err, vault.ErrTamperDetected):
		h.sendError(w, codeEntryUnavailable, "entry unavailable", http.StatusInternalServerError)

	case errors.Is(err, validation.ErrInvalid):
		h.sendError(w, codeValidation, err.Error(), http.StatusUnprocessableEntity)

	default:
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		h.sendError(w, codeInternal, "internal server error", http.StatusInternalServerError)
	}
}
