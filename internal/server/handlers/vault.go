package handlers

import (
	"net/http"

	"github.com/iudanet/localvault/pkg/api"
)

// Status обрабатывает GET /api/v1/vault/status
// Единственный эндпоинт, доступный в любом состоянии хранилища
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Status(r.Context(), h.sessionToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := api.StatusResponse{
		Status: string(info.Status),
		Hint:   info.Hint,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Setup обрабатывает POST /api/v1/vault/setup
// Инициализация хранилища; сессию не открывает
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SetupRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.Setup(ctx, req.Passphrase, req.Hint); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "vault initialized")

	resp := api.StatusResponse{Status: "LOCKED", Hint: req.Hint}
	h.sendJSON(w, resp, http.StatusCreated)
}

// Unlock обрабатывает POST /api/v1/vault/unlock
// При успехе ставит session cookie (HttpOnly) и csrf cookie (читаемую)
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.UnlockRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tokens, err := h.svc.Unlock(ctx, req.Passphrase)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setSessionCookies(w, tokens.Token, tokens.CSRFToken)

	resp := api.StatusResponse{Status: "UNLOCKED"}
	h.sendJSON(w, resp, http.StatusOK)
}

// Lock обрабатывает POST /api/v1/vault/lock
// Уничтожает все сессии и гасит cookie. Успешен из любого состояния:
// запирание уже запертого хранилища - no-op, не ошибка.
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Lock(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Verify обрабатывает POST /api/v1/vault/verify
// Повторная проверка passphrase внутри живой сессии
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.VerifyRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.VerifyForCopy(ctx, h.sessionToken(r), req.Passphrase); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setSessionCookies выставляет пару cookie сессии.
// session_token недоступен скриптам; csrf_token клиент читает,
// чтобы возвращать его заголовком X-CSRF-Token.
func setSessionCookies(w http.ResponseWriter, token, csrf string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    csrf,
		Path:     "/",
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	})
}
