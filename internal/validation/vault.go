package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalid - базовая ошибка валидации. Все функции пакета оборачивают ее,
// чтобы транспортный слой мог отличить ошибку валидации от внутренней.
var ErrInvalid = errors.New("validation failed")

// TagPattern определяет допустимый формат тега:
// латинские буквы, цифры, пробел, дефис и нижнее подчеркивание.
var TagPattern = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)

const (
	// MinPassphraseLen минимальная длина master passphrase
	MinPassphraseLen = 12
	// MaxPassphraseLen максимальная длина master passphrase
	MaxPassphraseLen = 128
	// MaxHintLen максимальная длина подсказки
	MaxHintLen = 64

	maxTitleLen    = 128
	maxUsernameLen = 128
	maxPasswordLen = 256
	maxNotesLen    = 2000
	maxTagLen      = 24
	maxTags        = 10
)

// ValidatePassphrase проверяет требования к master passphrase.
// Длина: 12-128 символов.
func ValidatePassphrase(passphrase string) error {
	if len(passphrase) < MinPassphraseLen {
		return fmt.Errorf("%w: passphrase must be at least %d characters long", ErrInvalid, MinPassphraseLen)
	}
	if len(passphrase) > MaxPassphraseLen {
		return fmt.Errorf("%w: passphrase must not exceed %d characters", ErrInvalid, MaxPassphraseLen)
	}
	return nil
}

// ValidateHint проверяет опциональную подсказку passphrase.
func ValidateHint(hint string) error {
	if len(hint) > MaxHintLen {
		return fmt.Errorf("%w: hint must not exceed %d characters", ErrInvalid, MaxHintLen)
	}
	return nil
}

// EntryInput содержит поля записи, приходящие от вызывающей стороны.
type EntryInput struct {
	Title    string
	URL      string
	Username string
	Password string
	Notes    string
	Tags     []string
	Favorite bool
}

// ValidateEntry проверяет все поля записи перед шифрованием.
func ValidateEntry(in *EntryInput) error {
	if in.Title == "" || len(in.Title) > maxTitleLen {
		return fmt.Errorf("%w: title must be 1-%d characters", ErrInvalid, maxTitleLen)
	}
	if in.Username == "" || len(in.Username) > maxUsernameLen {
		return fmt.Errorf("%w: username must be 1-%d characters", ErrInvalid, maxUsernameLen)
	}
	if in.Password == "" || len(in.Password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be 1-%d characters", ErrInvalid, maxPasswordLen)
	}
	if len(in.Notes) > maxNotesLen {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalid, maxNotesLen)
	}

	if err := validateURL(in.URL); err != nil {
		return err
	}

	if len(in.Tags) > maxTags {
		return fmt.Errorf("%w: at most %d tags allowed", ErrInvalid, maxTags)
	}
	for _, tag := range in.Tags {
		if tag == "" || len(tag) > maxTagLen {
			return fmt.Errorf("%w: tag must be 1-%d characters", ErrInvalid, maxTagLen)
		}
		if !TagPattern.MatchString(tag) {
			return fmt.Errorf("%w: tags may only contain letters, numbers, spaces, '-' or '_'", ErrInvalid)
		}
	}

	return nil
}

// validateURL проверяет, что опциональный URL - это http(s) с хостом.
func validateURL(raw string) error {
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid url", ErrInvalid)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: url must be http(s)", ErrInvalid)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: url must include host", ErrInvalid)
	}

	return nil
}

// ValidateSettings проверяет границы пользовательских настроек.
func ValidateSettings(autoLockMinutes, clipboardClearSeconds int) error {
	if autoLockMinutes < 1 || autoLockMinutes > 120 {
		return fmt.Errorf("%w: auto_lock_minutes must be 1-120", ErrInvalid)
	}
	if clipboardClearSeconds < 5 || clipboardClearSeconds > 120 {
		return fmt.Errorf("%w: clipboard_clear_seconds must be 5-120", ErrInvalid)
	}
	return nil
}
