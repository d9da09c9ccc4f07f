package models

import (
	"time"

	"github.com/iudanet/localvault/internal/crypto"
)

// VaultStatus представляет состояние хранилища.
type VaultStatus string

const (
	// StatusUninitialized - хранилище еще не создано (нет VaultMetadata)
	StatusUninitialized VaultStatus = "UNINITIALIZED"
	// StatusLocked - хранилище создано, активной сессии нет
	StatusLocked VaultStatus = "LOCKED"
	// StatusUnlocked - есть активная сессия с ключом шифрования
	StatusUnlocked VaultStatus = "UNLOCKED"
)

// VaultMetadata содержит параметры деривации ключа (singleton-запись).
// Создается один раз при инициализации хранилища.
// Никогда не содержит master passphrase или производный ключ -
// только соль, стоимостные параметры KDF и verifier.
type VaultMetadata struct {
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Hint      string        `json:"hint"`     // Hint опциональная подсказка пользователя (plaintext, до 64 символов)
	Salt      []byte        `json:"salt"`     // Salt случайная соль Argon2id (16 bytes)
	Verifier  []byte        `json:"verifier"` // Verifier HKDF-коммитмент master key, независимый от ключа шифрования
	Params    crypto.Params `json:"params"`   // Params стоимостные параметры KDF, неизменны после создания
}

// ThrottleState представляет персистентное состояние троттлинга unlock-попыток.
// Переживает перезапуск процесса: счетчик атакующего не сбрасывается рестартом.
type ThrottleState struct {
	BlockedUntil        *time.Time `json:"blocked_until"`        // BlockedUntil момент, до которого unlock запрещен (nil = не заблокирован)
	UpdatedAt           time.Time  `json:"updated_at"`
	ConsecutiveFailures int        `json:"consecutive_failures"` // ConsecutiveFailures количество подряд неудачных попыток
}

// Settings представляет пользовательские настройки (singleton-запись).
type Settings struct {
	UpdatedAt             time.Time `json:"updated_at"`
	AutoLockMinutes       int       `json:"auto_lock_minutes"`       // AutoLockMinutes автоблокировка, 1-120 минут
	ClipboardClearSeconds int       `json:"clipboard_clear_seconds"` // ClipboardClearSeconds очистка буфера обмена, 5-120 секунд
	RequireReauthForCopy  bool      `json:"require_reauth_for_copy"` // RequireReauthForCopy требовать повторный ввод passphrase перед копированием
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() *Settings {
	return &Settings{
		AutoLockMinutes:       5,
		ClipboardClearSeconds: 15,
		RequireReauthForCopy:  true,
	}
}
