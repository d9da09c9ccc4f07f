// Package storage defines the persistence interfaces consumed by the vault
// core. The core only needs row-level get/put/delete keyed by id; the actual
// engine (sqlite or boltdb) is selected at startup.
package storage

import (
	"context"

	"github.com/iudanet/localvault/internal/models"
)

// MetadataStorage persists the VaultMetadata singleton.
type MetadataStorage interface {
	// GetMetadata returns the singleton metadata row.
	// Returns ErrMetadataNotFound if the vault has not been initialized.
	GetMetadata(ctx context.Context) (*models.VaultMetadata, error)

	// SaveMetadata creates or replaces the singleton metadata row.
	SaveMetadata(ctx context.Context, meta *models.VaultMetadata) error
}

// ThrottleStorage persists the unlock throttle singleton.
// Throttle state must survive process restarts.
type ThrottleStorage interface {
	// GetThrottle returns the singleton throttle row.
	// Returns ErrThrottleNotFound if no attempt has been recorded yet.
	GetThrottle(ctx context.Context) (*models.ThrottleState, error)

	// SaveThrottle creates or replaces the singleton throttle row.
	SaveThrottle(ctx context.Context, state *models.ThrottleState) error
}

// SettingsStorage persists the user settings singleton.
type SettingsStorage interface {
	// GetSettings returns the singleton settings row.
	// Returns ErrSettingsNotFound if settings were never saved.
	GetSettings(ctx context.Context) (*models.Settings, error)

	// SaveSettings creates or replaces the singleton settings row.
	SaveSettings(ctx context.Context, settings *models.Settings) error
}

// EntryStorage persists encrypted entry records keyed by id.
type EntryStorage interface {
	// SaveEntry creates or replaces an encrypted entry record.
	SaveEntry(ctx context.Context, record *models.EntryRecord) error

	// GetEntry returns a single record by id.
	// Returns ErrEntryNotFound if the record does not exist.
	GetEntry(ctx context.Context, id string) (*models.EntryRecord, error)

	// ListEntries returns all encrypted records.
	ListEntries(ctx context.Context) ([]*models.EntryRecord, error)

	// DeleteEntry removes a record by id.
	// Returns ErrEntryNotFound if the record does not exist.
	DeleteEntry(ctx context.Context, id string) error
}

// AuditStorage persists the append-only audit log.
type AuditStorage interface {
	// AppendAuditEvent appends one event. Events are never updated or deleted.
	AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error

	// ListAuditEvents returns all events ordered by timestamp descending.
	ListAuditEvents(ctx context.Context) ([]*models.AuditEvent, error)
}

// Storage объединяет все персистентные коллекции хранилища.
type Storage interface {
	MetadataStorage
	ThrottleStorage
	SettingsStorage
	EntryStorage
	AuditStorage

	// Close releases the underlying database handle.
	Close() error
}
