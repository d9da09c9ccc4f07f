package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/localvault/internal/crypto"
	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

// GetMetadata retrieves the vault metadata singleton
func (s *Storage) GetMetadata(ctx context.Context) (*models.VaultMetadata, error) {
	query := `
		SELECT kdf_salt, kdf_memory_cost, kdf_time_cost, kdf_parallelism,
		       verifier, hint, created_at, updated_at
		FROM vault_metadata
		WHERE id = 1
	`

	meta := &models.VaultMetadata{}
	var memoryCost, timeCost, parallelism int64
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query).Scan(
		&meta.Salt,
		&memoryCost,
		&timeCost,
		&parallelism,
		&meta.Verifier,
		&meta.Hint,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMetadataNotFound
		}
		return nil, fmt.Errorf("failed to get vault metadata: %w", err)
	}

	meta.Params = crypto.Params{
		MemoryCost:  uint32(memoryCost),
		TimeCost:    uint32(timeCost),
		Parallelism: uint8(parallelism),
	}
	meta.CreatedAt = time.Unix(0, createdAt)
	meta.UpdatedAt = time.Unix(0, updatedAt)

	return meta, nil
}

// SaveMetadata creates or replaces the vault metadata singleton
func (s *Storage) SaveMetadata(ctx context.Context, meta *models.VaultMetadata) error {
	query := `
		INSERT INTO vault_metadata (
			id, kdf_salt, kdf_memory_cost, kdf_time_cost, kdf_parallelism,
			verifier, hint, created_at, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kdf_salt = excluded.kdf_salt,
			kdf_memory_cost = excluded.kdf_memory_cost,
			kdf_time_cost = excluded.kdf_time_cost,
			kdf_parallelism = excluded.kdf_parallelism,
			verifier = excluded.verifier,
			hint = excluded.hint,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		meta.Salt,
		int64(meta.Params.MemoryCost),
		int64(meta.Params.TimeCost),
		int64(meta.Params.Parallelism),
		meta.Verifier,
		meta.Hint,
		meta.CreatedAt.UnixNano(),
		meta.UpdatedAt.UnixNano(),
	)

	if err != nil {
		return fmt.Errorf("failed to save vault metadata: %w", err)
	}

	return nil
}
