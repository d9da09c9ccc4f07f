package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/localvault/internal/crypto"
	"github.com/iudanet/localvault/internal/models"
)

// sealEntry сериализует запись в JSON и шифрует под ключом сессии.
// Каждый вызов получает свежий nonce, даже если plaintext не изменился.
func sealEntry(key []byte, entry *models.Entry) (*models.EntryRecord, error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	nonce, ciphertext, err := crypto.Encrypt(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt entry: %w", err)
	}

	return &models.EntryRecord{
		ID:         entry.ID,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		UpdatedAt:  entry.UpdatedAt,
	}, nil
}

// openEntry расшифровывает запись. Любая ошибка аутентификации шифртекста
// (подмена байтов, чужой ключ, битый nonce) выражается одним ErrTamperDetected:
// детали не раскрываются ни в ошибке, ни в логах.
func openEntry(key []byte, record *models.EntryRecord) (*models.Entry, error) {
	plaintext, err := crypto.Decrypt(key, record.Nonce, record.Ciphertext)
	if err != nil {
		if errors.Is(err, crypto.ErrIntegrity) {
			return nil, ErrTamperDetected
		}
		return nil, fmt.Errorf("failed to decrypt entry: %w", err)
	}

	entry := &models.Entry{}
	if err := json.Unmarshal(plaintext, entry); err != nil {
		// Расшифровалось, но не парсится - запись так же недоступна
		return nil, ErrTamperDetected
	}

	return entry, nil
}
