package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/localvault/internal/crypto"
	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestSingletons_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Пустая база - все singleton-ы отсутствуют
	_, err := s.GetMetadata(ctx)
	require.ErrorIs(t, err, storage.ErrMetadataNotFound)
	_, err = s.GetThrottle(ctx)
	require.ErrorIs(t, err, storage.ErrThrottleNotFound)
	_, err = s.GetSettings(ctx)
	require.ErrorIs(t, err, storage.ErrSettingsNotFound)

	now := time.Now()
	meta := &models.VaultMetadata{
		Salt:      []byte("0123456789abcdef"),
		Params:    crypto.DefaultParams(),
		Verifier:  []byte("verifier-bytes-here-32-length!!!"),
		Hint:      "usual phrase",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.SaveMetadata(ctx, meta))

	gotMeta, err := s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta.Salt, gotMeta.Salt)
	assert.Equal(t, meta.Params, gotMeta.Params)
	assert.Equal(t, meta.Verifier, gotMeta.Verifier)

	blocked := now.Add(30 * time.Second)
	state := &models.ThrottleState{
		ConsecutiveFailures: 2,
		BlockedUntil:        &blocked,
		UpdatedAt:           now,
	}
	require.NoError(t, s.SaveThrottle(ctx, state))

	gotState, err := s.GetThrottle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, gotState.ConsecutiveFailures)
	require.NotNil(t, gotState.BlockedUntil)

	settings := models.DefaultSettings()
	settings.AutoLockMinutes = 10
	settings.UpdatedAt = now
	require.NoError(t, s.SaveSettings(ctx, settings))

	gotSettings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, gotSettings.AutoLockMinutes)
	assert.True(t, gotSettings.RequireReauthForCopy)
}

func TestEntries_CRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	now := time.Now()
	record := &models.EntryRecord{
		ID:         "entry-1",
		Nonce:      []byte("123456789012"),
		Ciphertext: []byte("opaque-aead-output"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	require.NoError(t, s.SaveEntry(ctx, record))

	got, err := s.GetEntry(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, record.Nonce, got.Nonce)
	assert.Equal(t, record.Ciphertext, got.Ciphertext)

	// Upsert перезаписывает существующую запись
	record.Ciphertext = []byte("rotated-aead-output")
	require.NoError(t, s.SaveEntry(ctx, record))

	got, err = s.GetEntry(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("rotated-aead-output"), got.Ciphertext)

	list, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteEntry(ctx, "entry-1"))
	require.ErrorIs(t, s.DeleteEntry(ctx, "entry-1"), storage.ErrEntryNotFound)

	_, err = s.GetEntry(ctx, "entry-1")
	require.ErrorIs(t, err, storage.ErrEntryNotFound)
}

func TestAudit_OrderedDescending(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		event := &models.AuditEvent{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Type:      models.EventVaultUnlock,
			Outcome:   models.OutcomeFailure,
			Meta:      map[string]any{"reason": "bad_passphrase"},
		}
		require.NoError(t, s.AppendAuditEvent(ctx, event))
	}

	events, err := s.ListAuditEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// От новых к старым
	assert.Equal(t, "c", events[0].ID)
	assert.Equal(t, "b", events[1].ID)
	assert.Equal(t, "a", events[2].ID)
	assert.Equal(t, "bad_passphrase", events[0].Meta["reason"])
}
