package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

// SaveEntry creates or replaces an encrypted entry record
func (s *Storage) SaveEntry(ctx context.Context, record *models.EntryRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		if err := bucket.Put([]byte(record.ID), data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}

		return nil
	})
}

// GetEntry retrieves a single encrypted record by id
func (s *Storage) GetEntry(ctx context.Context, id string) (*models.EntryRecord, error) {
	var record *models.EntryRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrEntryNotFound
		}

		record = &models.EntryRecord{}
		if err := json.Unmarshal(data, record); err != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListEntries returns all encrypted records
func (s *Storage) ListEntries(ctx context.Context) ([]*models.EntryRecord, error) {
	var records []*models.EntryRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			record := &models.EntryRecord{}
			if err := json.Unmarshal(v, record); err != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", err)
			}

			records = append(records, record)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteEntry removes a record by id
func (s *Storage) DeleteEntry(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntries)
		if bucket == nil {
			return fmt.Errorf("entries bucket not found")
		}

		if bucket.Get([]byte(id)) == nil {
			return storage.ErrEntryNotFound
		}

		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		return nil
	})
}
