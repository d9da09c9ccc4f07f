package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/localvault/internal/models"
)

// auditKey строит ключ события: big-endian UnixNano + id.
// Лексикографический порядок ключей совпадает с хронологическим,
// поэтому обратный проход курсора дает события от новых к старым.
func auditKey(event *models.AuditEvent) []byte {
	key := make([]byte, 8, 8+len(event.ID))
	binary.BigEndian.PutUint64(key, uint64(event.Timestamp.UnixNano()))
	return append(key, event.ID...)
}

// AppendAuditEvent appends one event to the audit log
func (s *Storage) AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAudit)
		if bucket == nil {
			return fmt.Errorf("audit bucket not found")
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}

		if err := bucket.Put(auditKey(event), data); err != nil {
			return fmt.Errorf("failed to append audit event: %w", err)
		}

		return nil
	})
}

// ListAuditEvents returns all events ordered by timestamp descending
func (s *Storage) ListAuditEvents(ctx context.Context) ([]*models.AuditEvent, error) {
	var events []*models.AuditEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAudit)
		if bucket == nil {
			return fmt.Errorf("audit bucket not found")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			event := &models.AuditEvent{}
			if err := json.Unmarshal(v, event); err != nil {
				return fmt.Errorf("failed to unmarshal audit event: %w", err)
			}

			events = append(events, event)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return events, nil
}
