package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/localvault/internal/crypto"
	"github.com/iudanet/localvault/internal/models"
)

// BackupFormat - тег версии формата экспорта. Импорт принимает только его.
const BackupFormat = "localvault/backup/v1"

// BackupEnvelope - переносимый зашифрованный снапшот хранилища.
// При exportedWithPassword записи зашифрованы ключом, выведенным из
// отдельного пароля экспорта (kdfParams и salt присутствуют в конверте).
// Иначе используется бэкап-ключ текущего мастер-ключа: такой файл
// восстановим только той же мастер-фразой на той же соли.
type BackupEnvelope struct {
	Format               string         `json:"format"`
	CreatedAt            time.Time      `json:"createdAt"`
	ExportedWithPassword bool           `json:"exportedWithPassword"`
	KDFParams            *crypto.Params `json:"kdfParams,omitempty"`
	Salt                 []byte         `json:"salt,omitempty"`
	Entries              []BackupEntry  `json:"entries"`
}

// BackupEntry - одна запись конверта. CipherText = base64(nonce || ciphertext).
type BackupEntry struct {
	UpdatedAt  time.Time `json:"updatedAt"`
	ID         string    `json:"id"`
	CipherText string    `json:"cipherText"`
}

// MergePreview - результат сухого прогона импорта. Считается без записи
// в базу; apply с тем же конвертом производит ровно эти изменения.
type MergePreview struct {
	Add    []string `json:"add"`
	Update []string `json:"update"`
	Skip   []string `json:"skip"`
	Failed []string `json:"failed"`
}

// mergeAction - решение LWW-слияния для одной входящей записи.
type mergeAction int

const (
	mergeAdd mergeAction = iota
	mergeUpdate
	mergeSkip
)

// decodeEnvelope парсит и проверяет конверт бэкапа. Любой мусор на входе -
// не тот формат, не тот тег версии, битый JSON - дает ErrUnsupportedFormat.
func decodeEnvelope(raw []byte) (*BackupEnvelope, error) {
	envelope := &BackupEnvelope{}
	if err := json.Unmarshal(raw, envelope); err != nil {
		return nil, ErrUnsupportedFormat
	}

	if envelope.Format != BackupFormat {
		return nil, ErrUnsupportedFormat
	}

	return envelope, nil
}

// backupKeyForImport выводит ключ расшифровки записей конверта.
// masterKey нужен только для конвертов без пароля экспорта.
func backupKeyForImport(envelope *BackupEnvelope, password string, masterKey []byte) ([]byte, error) {
	if !envelope.ExportedWithPassword {
		return crypto.DeriveBackupKey(masterKey)
	}

	if password == "" {
		return nil, ErrUnauthorized
	}
	if envelope.KDFParams == nil || !envelope.KDFParams.Valid() || len(envelope.Salt) != crypto.SaltSize {
		return nil, ErrUnsupportedFormat
	}

	exportMaster, err := crypto.DeriveMasterKey(password, envelope.Salt, *envelope.KDFParams)
	if err != nil {
		return nil, fmt.Errorf("failed to derive export key: %w", err)
	}

	return crypto.DeriveBackupKey(exportMaster)
}

// sealBackupEntry шифрует запись для конверта.
func sealBackupEntry(backupKey []byte, entry *models.Entry) (BackupEntry, error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return BackupEntry{}, fmt.Errorf("failed to marshal entry: %w", err)
	}

	cipherText, err := crypto.EncryptToBase64(backupKey, plaintext)
	if err != nil {
		return BackupEntry{}, fmt.Errorf("failed to encrypt entry: %w", err)
	}

	return BackupEntry{
		ID:         entry.ID,
		UpdatedAt:  entry.UpdatedAt,
		CipherText: cipherText,
	}, nil
}

// openBackupEntry расшифровывает запись конверта. Возвращает ErrTamperDetected
// на любой дефект расшифровки, не различая причины.
func openBackupEntry(backupKey []byte, be BackupEntry) (*models.Entry, error) {
	plaintext, err := crypto.DecryptFromBase64(backupKey, be.CipherText)
	if err != nil {
		return nil, ErrTamperDetected
	}

	entry := &models.Entry{}
	if err := json.Unmarshal(plaintext, entry); err != nil {
		return nil, ErrTamperDetected
	}

	if entry.ID != be.ID {
		// Запись переставлена между слотами конверта
		return nil, ErrTamperDetected
	}

	return entry, nil
}

// decideMerge применяет last-write-wins к одной входящей записи.
// Ничья по updatedAt оставляет локальную версию: повторный импорт
// того же конверта становится no-op.
func decideMerge(local map[string]*models.Entry, incoming *models.Entry) mergeAction {
	existing, ok := local[incoming.ID]
	if !ok {
		return mergeAdd
	}

	if incoming.UpdatedAt.After(existing.UpdatedAt) {
		return mergeUpdate
	}

	return mergeSkip
}

// planMerge прогоняет все записи конверта через расшифровку и LWW,
// не трогая базу. Возвращает план и расшифрованные записи для apply.
func planMerge(backupKey []byte, local map[string]*models.Entry, envelope *BackupEnvelope) (*MergePreview, []*models.Entry, error) {
	preview := &MergePreview{
		Add:    []string{},
		Update: []string{},
		Skip:   []string{},
		Failed: []string{},
	}

	var toApply []*models.Entry

	for _, be := range envelope.Entries {
		entry, err := openBackupEntry(backupKey, be)
		if err != nil {
			if errors.Is(err, ErrTamperDetected) {
				// Битая запись пропускается, остальные импортируются
				preview.Failed = append(preview.Failed, be.ID)
				continue
			}
			return nil, nil, err
		}

		switch decideMerge(local, entry) {
		case mergeAdd:
			preview.Add = append(preview.Add, entry.ID)
			toApply = append(toApply, entry)
		case mergeUpdate:
			preview.Update = append(preview.Update, entry.ID)
			toApply = append(toApply, entry)
		case mergeSkip:
			preview.Skip = append(preview.Skip, entry.ID)
		}
	}

	return preview, toApply, nil
}
