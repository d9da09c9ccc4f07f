package models

import "time"

// Entry представляет расшифрованную запись хранилища.
// Все чувствительные поля сериализуются в один canonical JSON blob
// и шифруются целиком; в БД plaintext-полей нет.
type Entry struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`       // ID уникальный идентификатор записи (UUID)
	Title     string    `json:"title"`    // Title название записи (например, "GitHub")
	URL       string    `json:"url"`      // URL опциональный адрес сайта или сервиса
	Username  string    `json:"username"` // Username логин или email
	Password  string    `json:"password"` // Password пароль
	Notes     string    `json:"notes"`    // Notes опциональные заметки
	Tags      []string  `json:"tags"`     // Tags теги для поиска и группировки
	Favorite  bool      `json:"favorite"` // Favorite флаг избранного
}

// EntrySummary представляет запись без секретных полей для списков.
type EntrySummary struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	URL       string    `json:"url,omitempty"`
	Favorite  bool      `json:"favorite"`
}

// Summary возвращает представление записи без секретных полей.
func (e *Entry) Summary() *EntrySummary {
	return &EntrySummary{
		ID:        e.ID,
		Title:     e.Title,
		Username:  e.Username,
		URL:       e.URL,
		Favorite:  e.Favorite,
		UpdatedAt: e.UpdatedAt,
	}
}

// EntryRecord представляет зашифрованную строку записи в хранилище.
// Nonce уникален для каждого шифрования и никогда не переиспользуется
// под одним ключом (генерируется криптографически случайно на каждый Seal).
type EntryRecord struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ID         string    `json:"id"`
	Nonce      []byte    `json:"nonce"`      // Nonce 12 bytes, свежий на каждое шифрование
	Ciphertext []byte    `json:"ciphertext"` // Ciphertext AEAD-выход (включая auth tag)
}
