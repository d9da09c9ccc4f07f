package api

// EntryRequest представляет запрос на создание или обновление записи
type EntryRequest struct {
	Title    string   `json:"title"`              // 1-128 символов
	URL      string   `json:"url,omitempty"`      // опциональный http(s) URL
	Username string   `json:"username"`           // 1-128 символов
	Password string   `json:"password"`           // 1-256 символов
	Notes    string   `json:"notes,omitempty"`    // до 2000 символов
	Tags     []string `json:"tags,omitempty"`     // до 10 тегов
	Favorite bool     `json:"favorite,omitempty"`
}

// Entry представляет полную расшифрованную запись
type Entry struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Notes     string   `json:"notes,omitempty"`
	Tags      []string `json:"tags"`
	Favorite  bool     `json:"favorite"`
	UpdatedAt string   `json:"updatedAt"` // RFC3339
}

// EntrySummary представляет запись без секретных полей для списков
type EntrySummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Username  string `json:"username"`
	URL       string `json:"url,omitempty"`
	Favorite  bool   `json:"favorite"`
	UpdatedAt string `json:"updatedAt"` // RFC3339
}

// EntriesResponse представляет список записей, новые первыми
type EntriesResponse struct {
	Entries []EntrySummary `json:"entries"`
}
