package vault

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/localvault/internal/models"
)

const exportPassword = "backup export phrase"

func exportRaw(t *testing.T, s *Service, tokens SessionTokens, password string) []byte {
	t.Helper()

	envelope, err := s.ExportBackup(context.Background(), tokens.Token, tokens.CSRFToken, password)
	require.NoError(t, err)

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	return raw
}

func TestBackup_RestoreDeletedEntry(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	created, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)

	raw := exportRaw(t, s, tokens, "")

	*clock = clock.Add(time.Second)
	require.NoError(t, s.DeleteEntry(ctx, tokens.Token, tokens.CSRFToken, created.ID))

	preview, err := s.PreviewImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, preview.Add)
	assert.Empty(t, preview.Update)

	// Preview не меняет базу
	_, err = s.GetEntry(ctx, tokens.Token, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	applied, err := s.ApplyImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, applied.Add)

	restored, err := s.GetEntry(ctx, tokens.Token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", restored.Title)
	assert.Equal(t, "p@ssw0rd", restored.Password)
}

func TestBackup_ImportIsIdempotent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	_, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)

	raw := exportRaw(t, s, tokens, "")

	// Ничья по updatedAt решается в пользу локальной версии
	preview, err := s.ApplyImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.NoError(t, err)
	assert.Empty(t, preview.Add)
	assert.Empty(t, preview.Update)
	assert.Len(t, preview.Skip, 1)
}

func TestBackup_LastWriteWins(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	created, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)

	raw := exportRaw(t, s, tokens, "")

	// Локальная версия новее конверта - импорт ее не трогает
	*clock = clock.Add(time.Minute)
	input := sampleInput("GitHub")
	input.Password = "rotated"
	_, err = s.UpdateEntry(ctx, tokens.Token, tokens.CSRFToken, created.ID, input)
	require.NoError(t, err)

	preview, err := s.ApplyImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.NoError(t, err)
	assert.Len(t, preview.Skip, 1)

	got, err := s.GetEntry(ctx, tokens.Token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Password)
}

func TestBackup_UpdatePreservesCreatedAt(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	createdAt := *clock
	created, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)

	// Конверт несет более свежую версию записи
	*clock = clock.Add(2 * time.Minute)
	newer := sampleInput("GitHub")
	newer.Password = "rotated"
	_, err = s.UpdateEntry(ctx, tokens.Token, tokens.CSRFToken, created.ID, newer)
	require.NoError(t, err)

	raw := exportRaw(t, s, tokens, "")

	// Локальная версия отстает от конверта по updatedAt
	*clock = clock.Add(-time.Minute)
	older := sampleInput("GitHub")
	older.Password = "stale"
	_, err = s.UpdateEntry(ctx, tokens.Token, tokens.CSRFToken, created.ID, older)
	require.NoError(t, err)

	*clock = clock.Add(3 * time.Minute)
	applied, err := s.ApplyImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, applied.Update)

	// Импорт обновил содержимое, но момент создания записи сохранен
	record, err := s.store.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, record.CreatedAt.Equal(createdAt))

	got, err := s.GetEntry(ctx, tokens.Token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Password)
}

func TestDecideMerge(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	local := map[string]*models.Entry{
		"known": {ID: "known", UpdatedAt: base},
	}

	tests := []struct {
		name     string
		incoming *models.Entry
		want     mergeAction
	}{
		{name: "new id", incoming: &models.Entry{ID: "fresh", UpdatedAt: base}, want: mergeAdd},
		{name: "incoming newer", incoming: &models.Entry{ID: "known", UpdatedAt: base.Add(time.Second)}, want: mergeUpdate},
		{name: "incoming older", incoming: &models.Entry{ID: "known", UpdatedAt: base.Add(-time.Second)}, want: mergeSkip},
		{name: "tie keeps local", incoming: &models.Entry{ID: "known", UpdatedAt: base}, want: mergeSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decideMerge(local, tt.incoming))
		})
	}
}

func TestBackup_PasswordProtected(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	created, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)

	raw := exportRaw(t, s, tokens, exportPassword)

	// Конверт несет параметры KDF и соль
	envelope, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.True(t, envelope.ExportedWithPassword)
	require.NotNil(t, envelope.KDFParams)
	assert.Len(t, envelope.Salt, 16)

	// Второе хранилище с другой мастер-фразой восстанавливает по паролю экспорта
	other, _ := newTestService(t)
	require.NoError(t, other.Setup(ctx, "another passphrase", ""))
	otherTokens, err := other.Unlock(ctx, "another passphrase")
	require.NoError(t, err)

	applied, err := other.ApplyImport(ctx, otherTokens.Token, otherTokens.CSRFToken, raw, exportPassword)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, applied.Add)

	restored, err := other.GetEntry(ctx, otherTokens.Token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "p@ssw0rd", restored.Password)
}

func TestBackup_WrongPassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	created, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)

	raw := exportRaw(t, s, tokens, exportPassword)

	// Неверный пароль: записи не расшифровываются, все попадают в failed
	preview, err := s.PreviewImport(ctx, tokens.Token, tokens.CSRFToken, raw, "not the export phrase")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, preview.Failed)
	assert.Empty(t, preview.Add)

	// Пустой пароль для защищенного конверта отклоняется сразу
	_, err = s.PreviewImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestBackup_UnsupportedFormat(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "not json", raw: []byte("definitely not json")},
		{name: "wrong format tag", raw: []byte(`{"format":"localvault/backup/v2","entries":[]}`)},
		{name: "missing format", raw: []byte(`{"entries":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.PreviewImport(ctx, tokens.Token, tokens.CSRFToken, tt.raw, "")
			require.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestBackup_CorruptRecordSkipped(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	tokens := setupAndUnlock(t, s)

	first, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitHub"))
	require.NoError(t, err)
	second, err := s.CreateEntry(ctx, tokens.Token, tokens.CSRFToken, sampleInput("GitLab"))
	require.NoError(t, err)

	envelope, err := s.ExportBackup(ctx, tokens.Token, tokens.CSRFToken, "")
	require.NoError(t, err)

	// Портим шифртекст одной записи конверта
	for i := range envelope.Entries {
		if envelope.Entries[i].ID == first.ID {
			envelope.Entries[i].CipherText = "AAAA" + envelope.Entries[i].CipherText[4:]
		}
	}

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(ctx, tokens.Token, tokens.CSRFToken, first.ID))
	require.NoError(t, s.DeleteEntry(ctx, tokens.Token, tokens.CSRFToken, second.ID))

	applied, err := s.ApplyImport(ctx, tokens.Token, tokens.CSRFToken, raw, "")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, applied.Failed)
	assert.Equal(t, []string{second.ID}, applied.Add)

	// Уцелевшая запись восстановлена, битая - нет
	_, err = s.GetEntry(ctx, tokens.Token, second.ID)
	require.NoError(t, err)
	_, err = s.GetEntry(ctx, tokens.Token, first.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
