package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
)

// entryAAD - associated data, аутентифицируемая вместе с каждой записью.
var entryAAD = []byte("local-vault-entry-v1")

// ErrIntegrity возвращается при любой неудаче AEAD-верификации:
// неверный ключ, поврежденный ciphertext или несовпадение nonce/ciphertext.
// Все три причины намеренно неразличимы на границе API -
// иначе получается oracle о том, какая именно часть не сошлась.
var ErrIntegrity = errors.New("decryption failed")

// Encrypt шифрует plaintext с использованием AES-256-GCM.
// На каждый вызов генерируется свежий случайный nonce, даже для
// неизмененного plaintext - повторное шифрование всегда ротирует nonce.
func Encrypt(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	if len(key) != KeyLen {
		return nil, nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeyLen, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM автоматически добавляет authentication tag в конец
	ciphertext = aesGCM.Seal(nil, nonce, plaintext, entryAAD)

	return nonce, ciphertext, nil
}

// Decrypt дешифрует данные, зашифрованные с помощью Encrypt.
// Возвращает ErrIntegrity при любой неудаче аутентификации.
func Decrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeyLen, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, ErrIntegrity
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, entryAAD)
	if err != nil {
		return nil, ErrIntegrity
	}

	return plaintext, nil
}

// EncryptToBase64 шифрует данные и возвращает base64(nonce || ciphertext).
// Формат используется в резервных копиях для передачи в JSON.
func EncryptToBase64(key, plaintext []byte) (string, error) {
	nonce, ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		return "", err
	}

	packed := make([]byte, 0, len(nonce)+len(ciphertext))
	packed = append(packed, nonce...)
	packed = append(packed, ciphertext...)

	return base64.StdEncoding.EncodeToString(packed), nil
}

// DecryptFromBase64 дешифрует base64(nonce || ciphertext).
func DecryptFromBase64(key []byte, encoded string) ([]byte, error) {
	packed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	if len(packed) < NonceSize {
		return nil, ErrIntegrity
	}

	return Decrypt(key, packed[:NonceSize], packed[NonceSize:])
}
