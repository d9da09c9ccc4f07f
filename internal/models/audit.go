package models

import "time"

// AuditEventType определяет закрытый набор типов событий аудита.
type AuditEventType string

const (
	EventVaultInit           AuditEventType = "VAULT_INIT"
	EventVaultUnlock         AuditEventType = "VAULT_UNLOCK"
	EventVaultLock           AuditEventType = "VAULT_LOCK"
	EventVerifyMasterPwd     AuditEventType = "VERIFY_MASTER_PASSWORD"
	EventEntryCreate         AuditEventType = "ENTRY_CREATE"
	EventEntryUpdate         AuditEventType = "ENTRY_UPDATE"
	EventEntryDelete         AuditEventType = "ENTRY_DELETE"
	EventBackupExport        AuditEventType = "BACKUP_EXPORT"
	EventBackupImportPreview AuditEventType = "BACKUP_IMPORT_PREVIEW"
	EventBackupImportApply   AuditEventType = "BACKUP_IMPORT_APPLY"
)

// AuditOutcome определяет результат события аудита.
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "SUCCESS"
	OutcomeFailure AuditOutcome = "FAILURE"
)

// AuditEvent представляет одно событие append-only журнала аудита.
// Meta проходит санитизацию до записи: ключи, содержащие "password",
// "secret", "master", "token" или "key", отбрасываются. Meta всегда
// непустая map либо пустая map - никогда nil vs absent двусмысленности.
type AuditEvent struct {
	Timestamp time.Time      `json:"ts"`
	Meta      map[string]any `json:"meta"`
	ID        string         `json:"id"`
	Type      AuditEventType `json:"type"`
	Outcome   AuditOutcome   `json:"outcome"`
}
