package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/localvault/internal/crypto"
	"github.com/iudanet/localvault/internal/server"
	"github.com/iudanet/localvault/internal/server/handlers"
	"github.com/iudanet/localvault/internal/storage/boltdb"
	"github.com/iudanet/localvault/internal/vault"
	"github.com/iudanet/localvault/pkg/api"
)

const testPassphrase = "correct horse battery"

// testClient держит HTTP-клиент с cookie jar и CSRF token текущей сессии.
type testClient struct {
	t    *testing.T
	srv  *httptest.Server
	http *http.Client
	csrf string
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := vault.NewService(store, logger, 15*time.Minute, 5*time.Minute,
		vault.WithKDFParams(crypto.Params{MemoryCost: 8 * 1024, TimeCost: 1, Parallelism: 1}),
	)

	handler := handlers.New(logger, svc)
	srv := httptest.NewServer(server.NewRouter(logger, handler, "test"))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		srv.Close()
		svc.Close()
		_ = store.Close()
	})

	return &testClient{
		t:    t,
		srv:  srv,
		http: &http.Client{Jar: jar},
	}
}

func (c *testClient) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set(handlers.CSRFHeader, c.csrf)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NoError(t, resp.Body.Close())
	return out
}

// refreshCSRF вычитывает csrf_token из jar после unlock
func (c *testClient) refreshCSRF() {
	c.t.Helper()

	u, err := url.Parse(c.srv.URL)
	require.NoError(c.t, err)

	c.csrf = ""
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == handlers.CSRFCookie {
			c.csrf = cookie.Value
		}
	}
	require.NotEmpty(c.t, c.csrf)
}

func (c *testClient) setupAndUnlock() {
	c.t.Helper()

	resp := c.do(http.MethodPost, "/api/v1/vault/setup", api.SetupRequest{Passphrase: testPassphrase})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	require.NoError(c.t, resp.Body.Close())

	resp = c.do(http.MethodPost, "/api/v1/vault/unlock", api.UnlockRequest{Passphrase: testPassphrase})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	require.NoError(c.t, resp.Body.Close())

	c.refreshCSRF()
}

func sampleEntry(title string) api.EntryRequest {
	return api.EntryRequest{
		Title:    title,
		URL:      "https://example.com",
		Username: "alice",
		Password: "p@ssw0rd",
		Tags:     []string{"work"},
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[handlers.HealthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
}

func TestSecurityHeaders(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodGet, "/api/v1/vault/status", nil)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestVaultLifecycle(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodGet, "/api/v1/vault/status", nil)
	status := decodeBody[api.StatusResponse](t, resp)
	assert.Equal(t, "UNINITIALIZED", status.Status)

	resp = c.do(http.MethodPost, "/api/v1/vault/setup", api.SetupRequest{
		Passphrase: testPassphrase,
		Hint:       "usual phrase",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// Повторный setup отклоняется
	resp = c.do(http.MethodPost, "/api/v1/vault/setup", api.SetupRequest{Passphrase: testPassphrase})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "VAULT_EXISTS", errBody.Error.Code)

	// LOCKED с подсказкой
	resp = c.do(http.MethodGet, "/api/v1/vault/status", nil)
	status = decodeBody[api.StatusResponse](t, resp)
	assert.Equal(t, "LOCKED", status.Status)
	assert.Equal(t, "usual phrase", status.Hint)

	resp = c.do(http.MethodPost, "/api/v1/vault/unlock", api.UnlockRequest{Passphrase: testPassphrase})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
	c.refreshCSRF()

	resp = c.do(http.MethodGet, "/api/v1/vault/status", nil)
	status = decodeBody[api.StatusResponse](t, resp)
	assert.Equal(t, "UNLOCKED", status.Status)
	assert.Empty(t, status.Hint)

	resp = c.do(http.MethodPost, "/api/v1/vault/lock", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodGet, "/api/v1/vault/status", nil)
	status = decodeBody[api.StatusResponse](t, resp)
	assert.Equal(t, "LOCKED", status.Status)
}

func TestLockAlwaysSucceeds(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodPost, "/api/v1/vault/setup", api.SetupRequest{Passphrase: testPassphrase})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// Блокировка без сессии (и без CSRF) - no-op успех
	resp = c.do(http.MethodPost, "/api/v1/vault/lock", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// И повторная блокировка после разблокировки тоже
	resp = c.do(http.MethodPost, "/api/v1/vault/unlock", api.UnlockRequest{Passphrase: testPassphrase})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodPost, "/api/v1/vault/lock", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodPost, "/api/v1/vault/lock", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestUnlockFailureAndThrottle(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodPost, "/api/v1/vault/setup", api.SetupRequest{Passphrase: testPassphrase})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// Неверная passphrase - единый UNAUTHORIZED без деталей
	resp = c.do(http.MethodPost, "/api/v1/vault/unlock", api.UnlockRequest{Passphrase: "totally wrong phrase"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "UNAUTHORIZED", errBody.Error.Code)

	// Немедленный повтор упирается в троттлер
	resp = c.do(http.MethodPost, "/api/v1/vault/unlock", api.UnlockRequest{Passphrase: testPassphrase})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	errBody = decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "RATE_LIMITED", errBody.Error.Code)
	assert.GreaterOrEqual(t, errBody.Error.RetryAfterSeconds, 1)
}

func TestEntriesEndToEnd(t *testing.T) {
	c := newTestClient(t)
	c.setupAndUnlock()

	resp := c.do(http.MethodPost, "/api/v1/entries", sampleEntry("GitHub"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.Entry](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "GitHub", created.Title)

	resp = c.do(http.MethodGet, "/api/v1/entries/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[api.Entry](t, resp)
	assert.Equal(t, "p@ssw0rd", got.Password)

	// Список не содержит паролей
	resp = c.do(http.MethodGet, "/api/v1/entries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[api.EntriesResponse](t, resp)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "alice", list.Entries[0].Username)

	update := sampleEntry("GitHub")
	update.Password = "rotated"
	resp = c.do(http.MethodPut, "/api/v1/entries/"+created.ID, update)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[api.Entry](t, resp)
	assert.Equal(t, "rotated", updated.Password)

	resp = c.do(http.MethodDelete, "/api/v1/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodGet, "/api/v1/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "NOT_FOUND", errBody.Error.Code)
}

func TestCSRFEnforcement(t *testing.T) {
	c := newTestClient(t)
	c.setupAndUnlock()

	// Без заголовка X-CSRF-Token запись не создается
	c.csrf = ""
	resp := c.do(http.MethodPost, "/api/v1/entries", sampleEntry("GitHub"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "CSRF_INVALID", errBody.Error.Code)

	// Чтение работает и без CSRF
	resp = c.do(http.MethodGet, "/api/v1/entries", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestValidationError(t *testing.T) {
	c := newTestClient(t)
	c.setupAndUnlock()

	entry := sampleEntry("")
	resp := c.do(http.MethodPost, "/api/v1/entries", entry)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION_ERROR", errBody.Error.Code)
}

func TestUnauthorizedWithoutSession(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodPost, "/api/v1/vault/setup", api.SetupRequest{Passphrase: testPassphrase})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	paths := []string{"/api/v1/entries", "/api/v1/settings", "/api/v1/audit"}
	for _, path := range paths {
		resp := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		errBody := decodeBody[api.ErrorResponse](t, resp)
		assert.Equal(t, "UNAUTHORIZED", errBody.Error.Code)
	}
}

func TestSettingsEndToEnd(t *testing.T) {
	c := newTestClient(t)
	c.setupAndUnlock()

	resp := c.do(http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings := decodeBody[api.SettingsResponse](t, resp)
	assert.Equal(t, 5, settings.AutoLockMinutes)

	resp = c.do(http.MethodPut, "/api/v1/settings", api.SettingsRequest{
		AutoLockMinutes:       30,
		ClipboardClearSeconds: 20,
		RequireReauthForCopy:  false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[api.SettingsResponse](t, resp)
	assert.Equal(t, 30, updated.AutoLockMinutes)
	assert.False(t, updated.RequireReauthForCopy)

	// Значения вне границ отклоняются
	resp = c.do(http.MethodPut, "/api/v1/settings", api.SettingsRequest{
		AutoLockMinutes:       500,
		ClipboardClearSeconds: 20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestBackupEndToEnd(t *testing.T) {
	c := newTestClient(t)
	c.setupAndUnlock()

	resp := c.do(http.MethodPost, "/api/v1/entries", sampleEntry("GitHub"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.Entry](t, resp)

	resp = c.do(http.MethodPost, "/api/v1/backup/export", api.ExportRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	bundle, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodDelete, "/api/v1/entries/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodPost, "/api/v1/backup/import/preview", api.ImportRequest{Bundle: bundle})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decodeBody[api.MergeReport](t, resp)
	assert.Equal(t, []string{created.ID}, preview.Add)

	resp = c.do(http.MethodPost, "/api/v1/backup/import/apply", api.ImportRequest{Bundle: bundle})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	applied := decodeBody[api.MergeReport](t, resp)
	assert.Equal(t, []string{created.ID}, applied.Add)

	resp = c.do(http.MethodGet, "/api/v1/entries/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored := decodeBody[api.Entry](t, resp)
	assert.Equal(t, "GitHub", restored.Title)

	// Мусор вместо конверта
	resp = c.do(http.MethodPost, "/api/v1/backup/import/preview", api.ImportRequest{Bundle: json.RawMessage(`"garbage"`)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "UNSUPPORTED_FORMAT", errBody.Error.Code)
}

func TestAuditEndToEnd(t *testing.T) {
	c := newTestClient(t)
	c.setupAndUnlock()

	resp := c.do(http.MethodPost, "/api/v1/entries", sampleEntry("GitHub"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = c.do(http.MethodGet, "/api/v1/audit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	audit := decodeBody[api.AuditResponse](t, resp)
	require.NotEmpty(t, audit.Events)

	// Новые первыми, meta всегда объект
	assert.Equal(t, "ENTRY_CREATE", audit.Events[0].Type)
	assert.Equal(t, "SUCCESS", audit.Events[0].Outcome)
	for _, event := range audit.Events {
		assert.NotNil(t, event.Meta)
	}
}
