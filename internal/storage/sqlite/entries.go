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

// SaveEntry creates or replaces an encrypted entry record
func (s *Storage) SaveEntry(ctx context.Context, record *models.EntryRecord) error {
	query := `
		INSERT INTO entries (id, nonce, ciphertext, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nonce = excluded.nonce,
			ciphertext = excluded.ciphertext,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Nonce,
		record.Ciphertext,
		record.CreatedAt.UnixNano(),
		record.UpdatedAt.UnixNano(),
	)

	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	return nil
}

// GetEntry retrieves a single encrypted record by id
// Returns ErrEntryNotFound if the record doesn't exist
func (s *Storage) GetEntry(ctx context.Context, id string) (*models.EntryRecord, error) {
	query := `
		SELECT id, nonce, ciphertext, created_at, updated_at
		FROM entries
		WHERE id = ?
	`

	record := &models.EntryRecord{}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.Nonce,
		&record.Ciphertext,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	record.CreatedAt = time.Unix(0, createdAt)
	record.UpdatedAt = time.Unix(0, updatedAt)

	return record, nil
}

// ListEntries returns all encrypted records
func (s *Storage) ListEntries(ctx context.Context) ([]*models.EntryRecord, error) {
	query := `
		SELECT id, nonce, ciphertext, created_at, updated_at
		FROM entries
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var records []*models.EntryRecord

	for rows.Next() {
		record := &models.EntryRecord{}
		var createdAt, updatedAt int64

		if err := rows.Scan(&record.ID, &record.Nonce, &record.Ciphertext, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		record.CreatedAt = time.Unix(0, createdAt)
		record.UpdatedAt = time.Unix(0, updatedAt)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return records, nil
}

// DeleteEntry removes a record by id
// Returns ErrEntryNotFound if the record doesn't exist
func (s *Storage) DeleteEntry(ctx context.Context, id string) error {
	query := `DELETE FROM entries WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return storage.ErrEntryNotFound
	}

	return nil
}
