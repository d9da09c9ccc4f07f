package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

// getSingleton читает и десериализует singleton-запись из vault bucket.
func (s *Storage) getSingleton(key []byte, out any, notFound error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketVault)
		if bucket == nil {
			return fmt.Errorf("vault bucket not found")
		}

		data := bucket.Get(key)
		if data == nil {
			return notFound
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}

		return nil
	})
}

// putSingleton сериализует и сохраняет singleton-запись в vault bucket.
func (s *Storage) putSingleton(key []byte, value any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketVault)
		if bucket == nil {
			return fmt.Errorf("vault bucket not found")
		}

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}

		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}

		return nil
	})
}

// GetMetadata retrieves the vault metadata singleton
func (s *Storage) GetMetadata(ctx context.Context) (*models.VaultMetadata, error) {
	meta := &models.VaultMetadata{}
	if err := s.getSingleton(keyMetadata, meta, storage.ErrMetadataNotFound); err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveMetadata creates or replaces the vault metadata singleton
func (s *Storage) SaveMetadata(ctx context.Context, meta *models.VaultMetadata) error {
	return s.putSingleton(keyMetadata, meta)
}

// GetThrottle retrieves the unlock throttle singleton
func (s *Storage) GetThrottle(ctx context.Context) (*models.ThrottleState, error) {
	state := &models.ThrottleState{}
	if err := s.getSingleton(keyThrottle, state, storage.ErrThrottleNotFound); err != nil {
		return nil, err
	}
	return state, nil
}

// SaveThrottle creates or replaces the unlock throttle singleton
func (s *Storage) SaveThrottle(ctx context.Context, state *models.ThrottleState) error {
	return s.putSingleton(keyThrottle, state)
}

// GetSettings retrieves the settings singleton
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{}
	if err := s.getSingleton(keySettings, settings, storage.ErrSettingsNotFound); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings creates or replaces the settings singleton
func (s *Storage) SaveSettings(ctx context.Context, settings *models.Settings) error {
	return s.putSingleton(keySettings, settings)
}
