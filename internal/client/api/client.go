// Package api реализует HTTP клиент API хранилища.
// Сессия живет в cookie jar процесса; CSRF token клиент запоминает
// при разблокировке и возвращает заголовком на state-changing запросах.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/iudanet/localvault/pkg/api"
)

const (
	csrfCookie = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

// APIError представляет ошибку, возвращенную сервером.
type APIError struct {
	Code              string
	Message           string
	StatusCode        int
	RetryAfterSeconds int
}

func (e *APIError) Error() string {
	if e.RetryAfterSeconds > 0 {
		return fmt.Sprintf("%s: %s (retry after %ds)", e.Code, e.Message, e.RetryAfterSeconds)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	base       *url.URL
}

// NewClient создает новый API клиент
func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		base:    base,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Status возвращает состояние хранилища
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/vault/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return &resp, nil
}

// Setup инициализирует хранилище
func (c *Client) Setup(ctx context.Context, passphrase, hint string) error {
	req := api.SetupRequest{Passphrase: passphrase, Hint: hint}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/vault/setup", req, nil); err != nil {
		return fmt.Errorf("setup request failed: %w", err)
	}
	return nil
}

// Unlock открывает сессию. Session cookie оседает в jar,
// csrf token запоминается для последующих запросов.
func (c *Client) Unlock(ctx context.Context, passphrase string) error {
	req := api.UnlockRequest{Passphrase: passphrase}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/vault/unlock", req, nil); err != nil {
		return fmt.Errorf("unlock request failed: %w", err)
	}
	return nil
}

// Lock блокирует хранилище
func (c *Client) Lock(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/vault/lock", nil, nil); err != nil {
		return fmt.Errorf("lock request failed: %w", err)
	}
	return nil
}

// ListEntries возвращает записи без секретных полей
func (c *Client) ListEntries(ctx context.Context) (*api.EntriesResponse, error) {
	var resp api.EntriesResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/entries", nil, &resp); err != nil {
		return nil, fmt.Errorf("list entries request failed: %w", err)
	}
	return &resp, nil
}

// GetEntry возвращает полную запись
func (c *Client) GetEntry(ctx context.Context, id string) (*api.Entry, error) {
	var resp api.Entry
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/entries/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("get entry request failed: %w", err)
	}
	return &resp, nil
}

// CreateEntry создает запись
func (c *Client) CreateEntry(ctx context.Context, req api.EntryRequest) (*api.Entry, error) {
	var resp api.Entry
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/entries", req, &resp); err != nil {
		return nil, fmt.Errorf("create entry request failed: %w", err)
	}
	return &resp, nil
}

// DeleteEntry удаляет запись
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/entries/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete entry request failed: %w", err)
	}
	return nil
}

// ListAudit возвращает журнал аудита
func (c *Client) ListAudit(ctx context.Context) (*api.AuditResponse, error) {
	var resp api.AuditResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/audit", nil, &resp); err != nil {
		return nil, fmt.Errorf("audit request failed: %w", err)
	}
	return &resp, nil
}

// Export скачивает зашифрованный конверт резервной копии
func (c *Client) Export(ctx context.Context, password string) (json.RawMessage, error) {
	var resp json.RawMessage
	req := api.ExportRequest{Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/backup/export", req, &resp); err != nil {
		return nil, fmt.Errorf("export request failed: %w", err)
	}
	return resp, nil
}

// ImportPreview выполняет сухой прогон импорта
func (c *Client) ImportPreview(ctx context.Context, bundle json.RawMessage, password string) (*api.MergeReport, error) {
	var resp api.MergeReport
	req := api.ImportRequest{Bundle: bundle, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/backup/import/preview", req, &resp); err != nil {
		return nil, fmt.Errorf("import preview request failed: %w", err)
	}
	return &resp, nil
}

// ImportApply применяет импорт
func (c *Client) ImportApply(ctx context.Context, bundle json.RawMessage, password string) (*api.MergeReport, error) {
	var resp api.MergeReport
	req := api.ImportRequest{Bundle: bundle, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/backup/import/apply", req, &resp); err != nil {
		return nil, fmt.Errorf("import apply request failed: %w", err)
	}
	return &resp, nil
}

// csrfToken ищет csrf cookie в jar
func (c *Client) csrfToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf := c.csrfToken(); csrf != "" {
		req.Header.Set(csrfHeader, csrf)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return &APIError{
				Code:              errResp.Error.Code,
				Message:           errResp.Error.Message,
				StatusCode:        resp.StatusCode,
				RetryAfterSeconds: errResp.Error.RetryAfterSeconds,
			}
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
