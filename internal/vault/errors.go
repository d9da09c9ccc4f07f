package vault

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки уровня сервиса. На HTTP-границе они схлопываются в публичные
// коды так, чтобы неавторизованный клиент не мог различить причины отказа.
var (
	ErrAlreadyInitialized = errors.New("vault already initialized")
	ErrUninitialized      = errors.New("vault not initialized")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrCSRFMismatch       = errors.New("csrf token mismatch")
	ErrNotFound           = errors.New("not found")
	ErrUnsupportedFormat  = errors.New("unsupported backup format")
	ErrTamperDetected     = errors.New("entry unavailable")
)

// ThrottledError возвращается, когда попытка разблокировки заблокирована
// персистентным троттлером. Единственная причина отказа, которую клиент
// видит явно: без retryAfterSeconds UX деградирует до угадывания.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds округляет задержку вверх до целых секунд для ответа клиенту.
func (e *ThrottledError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
