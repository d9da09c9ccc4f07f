package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

// GetSettings retrieves the settings singleton
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT auto_lock_minutes, clipboard_clear_seconds, require_reauth_for_copy, updated_at
		FROM settings
		WHERE id = 1
	`

	settings := &models.Settings{}
	var requireReauth int
	var updatedAt int64

	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.AutoLockMinutes,
		&settings.ClipboardClearSeconds,
		&requireReauth,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	settings.RequireReauthForCopy = requireReauth != 0
	settings.UpdatedAt = time.Unix(0, updatedAt)

	return settings, nil
}

// SaveSettings creates or replaces the settings singleton
func (s *Storage) SaveSettings(ctx context.Context, settings *models.Settings) error {
	query := `
		INSERT INTO settings (id, auto_lock_minutes, clipboard_clear_seconds, require_reauth_for_copy, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			auto_lock_minutes = excluded.auto_lock_minutes,
			clipboard_clear_seconds = excluded.clipboard_clear_seconds,
			require_reauth_for_copy = excluded.require_reauth_for_copy,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		settings.AutoLockMinutes,
		settings.ClipboardClearSeconds,
		boolToInt(settings.RequireReauthForCopy),
		settings.UpdatedAt.UnixNano(),
	)

	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// boolToInt конвертирует bool в int для SQLite
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
