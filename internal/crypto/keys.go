package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Параметры Argon2id по умолчанию (memory-hard KDF).
// Стоимость подобрана так, чтобы деривация занимала сотни миллисекунд -
// это осознанный тормоз для offline-перебора, а не проблема производительности.
const (
	// DefaultMemoryCost - объем памяти в KiB (64 MiB)
	DefaultMemoryCost = 64 * 1024
	// DefaultTimeCost - количество итераций
	DefaultTimeCost = 3
	// DefaultParallelism - количество параллельных потоков
	DefaultParallelism = 4
	// KeyLen - длина производного ключа в байтах
	KeyLen = 32
	// SaltSize - размер соли в байтах
	SaltSize = 16
)

// HKDF context strings для доменного разделения производных ключей.
// Verifier криптографически независим от ключа шифрования:
// утечка verifier не компрометирует ключ.
const (
	contextEncKey    = "vault/enc_key/v1"
	contextVerifier  = "vault/verifier/v1"
	contextBackupKey = "vault/backup_key/v1"
)

// Params содержит стоимостные параметры Argon2id.
// Фиксируются при инициализации хранилища и неизменны после.
type Params struct {
	MemoryCost  uint32 `json:"memory_cost"` // память в KiB
	TimeCost    uint32 `json:"time_cost"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultParams возвращает параметры KDF по умолчанию.
func DefaultParams() Params {
	return Params{
		MemoryCost:  DefaultMemoryCost,
		TimeCost:    DefaultTimeCost,
		Parallelism: DefaultParallelism,
	}
}

// Valid проверяет, что все стоимостные параметры положительны.
func (p Params) Valid() bool {
	return p.MemoryCost > 0 && p.TimeCost > 0 && p.Parallelism > 0
}

// GenerateSalt генерирует криптографически случайную соль.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveMasterKey детерминированно выводит master key из passphrase.
// Одинаковые (passphrase, salt, params) всегда дают одинаковые байты ключа.
func DeriveMasterKey(passphrase string, salt []byte, params Params) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) < SaltSize {
		return nil, fmt.Errorf("salt must be at least %d bytes, got %d", SaltSize, len(salt))
	}
	if !params.Valid() {
		return nil, fmt.Errorf("invalid kdf params")
	}

	key := argon2.IDKey([]byte(passphrase), salt, params.TimeCost, params.MemoryCost, params.Parallelism, KeyLen)
	return key, nil
}

// deriveSubkey выводит 32-байтный подключ через HKDF-SHA256
// с доменным разделением по context string.
func deriveSubkey(masterKey []byte, context string) ([]byte, error) {
	if len(masterKey) != KeyLen {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeyLen, len(masterKey))
	}

	r := hkdf.New(sha256.New, masterKey, nil, []byte(context))
	subkey := make([]byte, KeyLen)
	if _, err := io.ReadFull(r, subkey); err != nil {
		return nil, fmt.Errorf("hkdf expand failed: %w", err)
	}

	return subkey, nil
}

// DeriveEncKey выводит ключ шифрования записей из master key.
func DeriveEncKey(masterKey []byte) ([]byte, error) {
	return deriveSubkey(masterKey, contextEncKey)
}

// DeriveVerifier выводит verifier из master key.
// Verifier хранится в VaultMetadata и позволяет проверить passphrase,
// не раскрывая ключ шифрования.
func DeriveVerifier(masterKey []byte) ([]byte, error) {
	return deriveSubkey(masterKey, contextVerifier)
}

// DeriveBackupKey выводит ключ для защищенных паролем резервных копий.
func DeriveBackupKey(masterKey []byte) ([]byte, error) {
	return deriveSubkey(masterKey, contextBackupKey)
}

// VerifyMasterKey сравнивает verifier от данного master key с сохраненным.
// Сравнение выполняется за константное время - без раннего выхода,
// чтобы не было timing-утечки о позиции несовпадающего байта.
func VerifyMasterKey(masterKey, storedVerifier []byte) (bool, error) {
	verifier, err := DeriveVerifier(masterKey)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(verifier, storedVerifier) == 1, nil
}
