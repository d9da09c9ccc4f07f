// Package api содержит wire-типы HTTP API хранилища.
// Секретные поля никогда не появляются в ответах list и status.
package api

// SetupRequest представляет запрос на инициализацию хранилища
type SetupRequest struct {
	Passphrase string `json:"passphrase"`     // master passphrase, 12-128 символов
	Hint       string `json:"hint,omitempty"` // опциональная подсказка, до 64 символов
}

// UnlockRequest представляет запрос на разблокировку
type UnlockRequest struct {
	Passphrase string `json:"passphrase"`
}

// VerifyRequest представляет запрос повторной проверки passphrase
// (подтверждение перед копированием секрета)
type VerifyRequest struct {
	Passphrase string `json:"passphrase"`
}

// StatusResponse представляет состояние хранилища
type StatusResponse struct {
	Status string `json:"status"`         // UNINITIALIZED | LOCKED | UNLOCKED
	Hint   string `json:"hint,omitempty"` // подсказка, только в состоянии LOCKED
}

// SettingsRequest представляет запрос на обновление настроек
type SettingsRequest struct {
	AutoLockMinutes       int  `json:"autoLockMinutes"`       // 1-120
	ClipboardClearSeconds int  `json:"clipboardClearSeconds"` // 5-120
	RequireReauthForCopy  bool `json:"requireReauthForCopy"`
}

// SettingsResponse представляет текущие настройки
type SettingsResponse struct {
	AutoLockMinutes       int  `json:"autoLockMinutes"`
	ClipboardClearSeconds int  `json:"clipboardClearSeconds"`
	RequireReauthForCopy  bool `json:"requireReauthForCopy"`
}

// AuditEvent представляет одно событие журнала аудита
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"ts"` // RFC3339
	Type      string         `json:"type"`
	Outcome   string         `json:"outcome"` // SUCCESS | FAILURE
	Meta      map[string]any `json:"meta"`    // санитизированные метаданные, всегда объект
}

// AuditResponse представляет журнал аудита, новые события первыми
type AuditResponse struct {
	Events []AuditEvent `json:"events"`
}

// ErrorBody представляет тело ошибки
type ErrorBody struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"` // только для RATE_LIMITED
}

// ErrorResponse представляет ответ с ошибкой.
// Код намеренно грубый: все причины отказа в аутентификации выражаются
// одним UNAUTHORIZED, чтобы не давать оракул перебора.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
