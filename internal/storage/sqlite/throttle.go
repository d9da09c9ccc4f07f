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

// GetThrottle retrieves the unlock throttle singleton
func (s *Storage) GetThrottle(ctx context.Context) (*models.ThrottleState, error) {
	query := `
		SELECT consecutive_failures, blocked_until, updated_at
		FROM unlock_throttle
		WHERE id = 1
	`

	state := &models.ThrottleState{}
	var blockedUntil sql.NullInt64
	var updatedAt int64

	err := s.db.QueryRowContext(ctx, query).Scan(
		&state.ConsecutiveFailures,
		&blockedUntil,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrThrottleNotFound
		}
		return nil, fmt.Errorf("failed to get throttle state: %w", err)
	}

	if blockedUntil.Valid {
		t := time.Unix(0, blockedUntil.Int64)
		state.BlockedUntil = &t
	}
	state.UpdatedAt = time.Unix(0, updatedAt)

	return state, nil
}

// SaveThrottle creates or replaces the unlock throttle singleton
func (s *Storage) SaveThrottle(ctx context.Context, state *models.ThrottleState) error {
	query := `
		INSERT INTO unlock_throttle (id, consecutive_failures, blocked_until, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			consecutive_failures = excluded.consecutive_failures,
			blocked_until = excluded.blocked_until,
			updated_at = excluded.updated_at
	`

	var blockedUntil sql.NullInt64
	if state.BlockedUntil != nil {
		blockedUntil = sql.NullInt64{Int64: state.BlockedUntil.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		state.ConsecutiveFailures,
		blockedUntil,
		state.UpdatedAt.UnixNano(),
	)

	if err != nil {
		return fmt.Errorf("failed to save throttle state: %w", err)
	}

	return nil
}
