package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/localvault/internal/models"
)

// AppendAuditEvent appends one event to the audit log
func (s *Storage) AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	meta := event.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal audit meta: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, ts, type, outcome, meta)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp.UnixNano(),
		string(event.Type),
		string(event.Outcome),
		string(metaJSON),
	)

	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}

// ListAuditEvents returns all events ordered by timestamp descending
func (s *Storage) ListAuditEvents(ctx context.Context) ([]*models.AuditEvent, error) {
	query := `
		SELECT id, ts, type, outcome, meta
		FROM audit_events
		ORDER BY ts DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent

	for rows.Next() {
		event := &models.AuditEvent{}
		var ts int64
		var metaJSON string

		if err := rows.Scan(&event.ID, &ts, &event.Type, &event.Outcome, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}

		event.Timestamp = time.Unix(0, ts)

		if err := json.Unmarshal([]byte(metaJSON), &event.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit meta: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}
