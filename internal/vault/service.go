package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/iudanet/localvault/internal/crypto"
	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
	"github.com/iudanet/localvault/internal/validation"
)

// Service - ядро хранилища: управление жизненным циклом (setup, unlock,
// lock), шифрованные записи, настройки, журнал аудита и резервные копии.
// Все операции кроме Status и Setup требуют живой сессии.
type Service struct {
	store    storage.Storage
	sessions *SessionStore
	throttle *Throttle
	audit    *auditor
	logger   *slog.Logger

	// mu сериализует unlock и verify: одна KDF-деривация за раз,
	// параллельный перебор не получает преимущества по CPU.
	mu sync.Mutex

	// params фиксируются в метаданных при setup
	params crypto.Params

	now func() time.Time
}

// StatusInfo - публичное состояние хранилища. Hint присутствует только
// в состоянии LOCKED: это единственный plaintext, который хранилище
// показывает до аутентификации.
type StatusInfo struct {
	Status models.VaultStatus
	Hint   string
}

// Option настраивает сервис при создании.
type Option func(*Service)

// WithKDFParams переопределяет стоимостные параметры Argon2id
// для новых инициализаций хранилища.
func WithKDFParams(params crypto.Params) Option {
	return func(s *Service) {
		if params.Valid() {
			s.params = params
		}
	}
}

// NewService creates the vault service.
// idleTimeout is the fallback until per-user settings exist;
// maxUnlockDelay caps the throttle backoff.
func NewService(store storage.Storage, logger *slog.Logger, idleTimeout, maxUnlockDelay time.Duration, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		sessions: NewSessionStore(idleTimeout),
		throttle: NewThrottle(store, maxUnlockDelay),
		audit:    newAuditor(store, logger),
		logger:   logger,
		params:   crypto.DefaultParams(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// Close уничтожает все сессии и затирает ключи.
func (s *Service) Close() {
	s.sessions.Close()
}

// Status возвращает состояние хранилища для данного session token.
// Не требует аутентификации.
func (s *Service) Status(ctx context.Context, token string) (*StatusInfo, error) {
	meta, err := s.store.GetMetadata(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrMetadataNotFound) {
			return &StatusInfo{Status: models.StatusUninitialized}, nil
		}
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	if token != "" && s.sessions.Active(token) {
		return &StatusInfo{Status: models.StatusUnlocked}, nil
	}

	return &StatusInfo{Status: models.StatusLocked, Hint: meta.Hint}, nil
}

// Setup инициализирует хранилище: генерирует соль, фиксирует параметры KDF
// и сохраняет verifier. Passphrase и master key не персистятся.
// Сессию не открывает - клиент делает unlock отдельным шагом.
func (s *Service) Setup(ctx context.Context, passphrase, hint string) error {
	if err := validation.ValidatePassphrase(passphrase); err != nil {
		return err
	}
	if err := validation.ValidateHint(hint); err != nil {
		return err
	}

	_, err := s.store.GetMetadata(ctx)
	if err == nil {
		s.audit.failure(ctx, models.EventVaultInit, map[string]any{"reason": "already_initialized"})
		return ErrAlreadyInitialized
	}
	if !errors.Is(err, storage.ErrMetadataNotFound) {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}

	params := s.params

	masterKey, err := crypto.DeriveMasterKey(passphrase, salt, params)
	if err != nil {
		return fmt.Errorf("failed to derive master key: %w", err)
	}
	defer memguard.WipeBytes(masterKey)

	verifier, err := crypto.DeriveVerifier(masterKey)
	if err != nil {
		return fmt.Errorf("failed to derive verifier: %w", err)
	}

	now := s.now()
	meta := &models.VaultMetadata{
		Salt:      salt,
		Params:    params,
		Verifier:  verifier,
		Hint:      hint,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.SaveMetadata(ctx, meta); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	settings := models.DefaultSettings()
	settings.UpdatedAt = now
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.audit.success(ctx, models.EventVaultInit, nil)
	return nil
}

// Unlock проверяет passphrase и открывает сессию. Троттлер опрашивается
// ДО деривации ключа: заблокированная попытка не тратит CPU на Argon2.
// Любая причина отказа кроме троттлинга выражается одним ErrUnauthorized.
func (s *Service) Unlock(ctx context.Context, passphrase string) (SessionTokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.store.GetMetadata(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrMetadataNotFound) {
			s.audit.failure(ctx, models.EventVaultUnlock, map[string]any{"reason": "vault_missing"})
			return SessionTokens{}, ErrUninitialized
		}
		return SessionTokens{}, fmt.Errorf("failed to load metadata: %w", err)
	}

	if err := s.throttle.Check(ctx); err != nil {
		var throttled *ThrottledError
		if errors.As(err, &throttled) {
			s.audit.failure(ctx, models.EventVaultUnlock, map[string]any{"reason": "throttled"})
		}
		return SessionTokens{}, err
	}

	masterKey, err := crypto.DeriveMasterKey(passphrase, meta.Salt, meta.Params)
	if err != nil {
		return SessionTokens{}, ErrUnauthorized
	}
	// Create ниже затирает masterKey сам; defer закрывает пути отказа
	defer memguard.WipeBytes(masterKey)

	ok, err := crypto.VerifyMasterKey(masterKey, meta.Verifier)
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to verify master key: %w", err)
	}
	if !ok {
		if err := s.throttle.RecordFailure(ctx); err != nil {
			return SessionTokens{}, err
		}
		s.audit.failure(ctx, models.EventVaultUnlock, map[string]any{"reason": "bad_passphrase"})
		return SessionTokens{}, ErrUnauthorized
	}

	if err := s.throttle.RecordSuccess(ctx); err != nil {
		return SessionTokens{}, err
	}

	// Таймаут бездействия берем из пользовательских настроек
	if settings, err := s.store.GetSettings(ctx); err == nil {
		s.sessions.SetIdleTimeout(time.Duration(settings.AutoLockMinutes) * time.Minute)
	}

	tokens, err := s.sessions.Create(masterKey)
	if err != nil {
		return SessionTokens{}, err
	}

	s.audit.success(ctx, models.EventVaultUnlock, nil)
	return tokens, nil
}

// Lock уничтожает все активные сессии и затирает ключи.
// Легален из любого состояния: блокировка уже заблокированного хранилища -
// no-op успех, не ошибка. Истекшая или отсутствующая сессия не мешает
// запереть хранилище - это ровно тот момент, когда запереть нужнее всего.
func (s *Service) Lock(ctx context.Context) error {
	s.sessions.DestroyAll()
	s.audit.success(ctx, models.EventVaultLock, nil)
	return nil
}

// VerifyForCopy повторно проверяет passphrase внутри живой сессии
// (подтверждение перед копированием секрета). Разделяет троттлер
// с unlock: это тот же оракул passphrase.
func (s *Service) VerifyForCopy(ctx context.Context, token, passphrase string) error {
	if err := s.sessions.Validate(token); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.throttle.Check(ctx); err != nil {
		return err
	}

	meta, err := s.store.GetMetadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	masterKey, err := crypto.DeriveMasterKey(passphrase, meta.Salt, meta.Params)
	if err != nil {
		return ErrUnauthorized
	}
	defer memguard.WipeBytes(masterKey)

	ok, err := crypto.VerifyMasterKey(masterKey, meta.Verifier)
	if err != nil {
		return fmt.Errorf("failed to verify master key: %w", err)
	}
	if !ok {
		if err := s.throttle.RecordFailure(ctx); err != nil {
			return err
		}
		s.audit.failure(ctx, models.EventVerifyMasterPwd, nil)
		return ErrUnauthorized
	}

	if err := s.throttle.RecordSuccess(ctx); err != nil {
		return err
	}

	s.audit.success(ctx, models.EventVerifyMasterPwd, nil)
	return nil
}

// ListEntries возвращает записи без секретных полей, новые первыми.
// Запись, не прошедшая аутентификацию шифртекста, исключается из списка
// и логируется; остальные записи остаются доступными.
func (s *Service) ListEntries(ctx context.Context, token string) ([]*models.EntrySummary, error) {
	encKey, err := s.encKey(token)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	summaries := make([]*models.EntrySummary, 0, len(records))
	for _, record := range records {
		entry, err := openEntry(encKey, record)
		if err != nil {
			s.logger.Error("entry unavailable", "id", record.ID)
			continue
		}
		summaries = append(summaries, entry.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})

	return summaries, nil
}

// GetEntry возвращает полную расшифрованную запись.
func (s *Service) GetEntry(ctx context.Context, token, id string) (*models.Entry, error) {
	encKey, err := s.encKey(token)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}

	return openEntry(encKey, record)
}

// CreateEntry шифрует и сохраняет новую запись.
func (s *Service) CreateEntry(ctx context.Context, token, csrf string, input *validation.EntryInput) (*models.Entry, error) {
	encKey, err := s.encKeyCSRF(token, csrf)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateEntry(input); err != nil {
		return nil, err
	}

	now := s.now()
	entry := entryFromInput(input)
	entry.ID = uuid.New().String()
	entry.UpdatedAt = now

	record, err := sealEntry(encKey, entry)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = now

	if err := s.store.SaveEntry(ctx, record); err != nil {
		s.audit.failure(ctx, models.EventEntryCreate, map[string]any{"entryId": entry.ID})
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.audit.success(ctx, models.EventEntryCreate, map[string]any{"entryId": entry.ID})
	return entry, nil
}

// UpdateEntry перешифровывает запись с новым содержимым и свежим nonce.
func (s *Service) UpdateEntry(ctx context.Context, token, csrf, id string, input *validation.EntryInput) (*models.Entry, error) {
	encKey, err := s.encKeyCSRF(token, csrf)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateEntry(input); err != nil {
		return nil, err
	}

	record, err := s.store.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}

	// Существующая запись должна расшифровываться ее же ключом,
	// иначе обновление замаскирует подмену
	if _, err := openEntry(encKey, record); err != nil {
		return nil, err
	}

	entry := entryFromInput(input)
	entry.ID = id
	entry.UpdatedAt = s.now()

	updated, err := sealEntry(encKey, entry)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = record.CreatedAt

	if err := s.store.SaveEntry(ctx, updated); err != nil {
		s.audit.failure(ctx, models.EventEntryUpdate, map[string]any{"entryId": id})
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.audit.success(ctx, models.EventEntryUpdate, map[string]any{"entryId": id})
	return entry, nil
}

// DeleteEntry удаляет запись.
func (s *Service) DeleteEntry(ctx context.Context, token, csrf, id string) error {
	if err := s.sessions.ValidateCSRF(token, csrf); err != nil {
		return err
	}

	if err := s.store.DeleteEntry(ctx, id); err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	s.audit.success(ctx, models.EventEntryDelete, map[string]any{"entryId": id})
	return nil
}

// GetSettings возвращает настройки пользователя.
func (s *Service) GetSettings(ctx context.Context, token string) (*models.Settings, error) {
	if err := s.sessions.Validate(token); err != nil {
		return nil, err
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSettingsNotFound) {
			return models.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return settings, nil
}

// UpdateSettings сохраняет настройки и применяет новый таймаут авто-блокировки
// к активным сессиям.
func (s *Service) UpdateSettings(ctx context.Context, token, csrf string, settings *models.Settings) (*models.Settings, error) {
	if err := s.sessions.ValidateCSRF(token, csrf); err != nil {
		return nil, err
	}

	if err := validation.ValidateSettings(settings.AutoLockMinutes, settings.ClipboardClearSeconds); err != nil {
		return nil, err
	}

	settings.UpdatedAt = s.now()
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.sessions.SetIdleTimeout(time.Duration(settings.AutoLockMinutes) * time.Minute)
	return settings, nil
}

// ListAudit возвращает журнал аудита, новые события первыми.
func (s *Service) ListAudit(ctx context.Context, token string) ([]*models.AuditEvent, error) {
	if err := s.sessions.Validate(token); err != nil {
		return nil, err
	}

	events, err := s.store.ListAuditEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	return events, nil
}

// ExportBackup собирает зашифрованный снапшот всех записей.
// С непустым password снапшот шифруется ключом, выведенным из него
// (свежая соль, текущие параметры KDF), и восстановим на любом хранилище.
// Без password используется бэкап-ключ мастер-фразы.
func (s *Service) ExportBackup(ctx context.Context, token, csrf, password string) (*BackupEnvelope, error) {
	masterKey, err := s.masterKeyCSRF(token, csrf)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(masterKey)

	withPassword := password != ""
	if withPassword {
		if err := validation.ValidatePassphrase(password); err != nil {
			return nil, err
		}
	}

	envelope := &BackupEnvelope{
		Format:               BackupFormat,
		CreatedAt:            s.now(),
		ExportedWithPassword: withPassword,
		Entries:              []BackupEntry{},
	}

	var backupKey []byte
	if withPassword {
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return nil, err
		}

		params := s.params
		exportMaster, err := crypto.DeriveMasterKey(password, salt, params)
		if err != nil {
			return nil, fmt.Errorf("failed to derive export key: %w", err)
		}

		backupKey, err = crypto.DeriveBackupKey(exportMaster)
		memguard.WipeBytes(exportMaster)
		if err != nil {
			return nil, err
		}

		envelope.Salt = salt
		envelope.KDFParams = &params
	} else {
		backupKey, err = crypto.DeriveBackupKey(masterKey)
		if err != nil {
			return nil, err
		}
	}
	defer memguard.WipeBytes(backupKey)

	entries, err := s.loadEntries(ctx, masterKey)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		be, err := sealBackupEntry(backupKey, entry)
		if err != nil {
			return nil, err
		}
		envelope.Entries = append(envelope.Entries, be)
	}

	s.audit.success(ctx, models.EventBackupExport, map[string]any{
		"entries":   len(envelope.Entries),
		"protected": withPassword,
	})

	return envelope, nil
}

// PreviewImport выполняет сухой прогон слияния: расшифровывает конверт
// и считает, что будет добавлено, обновлено и пропущено. Базу не меняет.
func (s *Service) PreviewImport(ctx context.Context, token, csrf string, raw []byte, password string) (*MergePreview, error) {
	preview, _, err := s.planImport(ctx, models.EventBackupImportPreview, token, csrf, raw, password)
	if err != nil {
		return nil, err
	}

	s.audit.success(ctx, models.EventBackupImportPreview, map[string]any{
		"add":    len(preview.Add),
		"update": len(preview.Update),
		"skip":   len(preview.Skip),
		"failed": len(preview.Failed),
	})

	return preview, nil
}

// ApplyImport сливает конверт в хранилище по last-write-wins.
// Принятые записи перешифровываются ключом текущей сессии;
// их updatedAt сохраняется из конверта, поэтому повторный импорт - no-op.
func (s *Service) ApplyImport(ctx context.Context, token, csrf string, raw []byte, password string) (*MergePreview, error) {
	preview, toApply, err := s.planImport(ctx, models.EventBackupImportApply, token, csrf, raw, password)
	if err != nil {
		return nil, err
	}

	masterKey, err := s.sessions.Key(token)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(masterKey)

	encKey, err := crypto.DeriveEncKey(masterKey)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(encKey)

	now := s.now()
	for _, entry := range toApply {
		record, err := sealEntry(encKey, entry)
		if err != nil {
			return nil, err
		}

		// Обновление существующей записи не переписывает момент ее создания
		record.CreatedAt = now
		if existing, err := s.store.GetEntry(ctx, entry.ID); err == nil {
			record.CreatedAt = existing.CreatedAt
		}

		if err := s.store.SaveEntry(ctx, record); err != nil {
			s.audit.failure(ctx, models.EventBackupImportApply, map[string]any{"entryId": entry.ID})
			return nil, fmt.Errorf("failed to save entry: %w", err)
		}
	}

	s.audit.success(ctx, models.EventBackupImportApply, map[string]any{
		"add":    len(preview.Add),
		"update": len(preview.Update),
		"skip":   len(preview.Skip),
		"failed": len(preview.Failed),
	})

	return preview, nil
}

// planImport - общая часть preview и apply: аутентификация, разбор конверта,
// вывод ключа и LWW-план против текущего содержимого хранилища.
func (s *Service) planImport(ctx context.Context, event models.AuditEventType, token, csrf string, raw []byte, password string) (*MergePreview, []*models.Entry, error) {
	masterKey, err := s.masterKeyCSRF(token, csrf)
	if err != nil {
		return nil, nil, err
	}
	defer memguard.WipeBytes(masterKey)

	envelope, err := decodeEnvelope(raw)
	if err != nil {
		s.audit.failure(ctx, event, map[string]any{"reason": "invalid_file"})
		return nil, nil, err
	}

	backupKey, err := backupKeyForImport(envelope, password, masterKey)
	if err != nil {
		return nil, nil, err
	}
	defer memguard.WipeBytes(backupKey)

	entries, err := s.loadEntries(ctx, masterKey)
	if err != nil {
		return nil, nil, err
	}

	local := make(map[string]*models.Entry, len(entries))
	for _, entry := range entries {
		local[entry.ID] = entry
	}

	return planMerge(backupKey, local, envelope)
}

// loadEntries расшифровывает все записи хранилища. Недоступные записи
// пропускаются: битая запись не должна блокировать экспорт остальных.
func (s *Service) loadEntries(ctx context.Context, masterKey []byte) ([]*models.Entry, error) {
	encKey, err := crypto.DeriveEncKey(masterKey)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(encKey)

	records, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]*models.Entry, 0, len(records))
	for _, record := range records {
		entry, err := openEntry(encKey, record)
		if err != nil {
			s.logger.Error("entry unavailable", "id", record.ID)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// encKey аутентифицирует read-only запрос и выводит ключ шифрования записей.
// Промежуточная копия мастер-ключа затирается до возврата.
func (s *Service) encKey(token string) ([]byte, error) {
	masterKey, err := s.sessions.Key(token)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(masterKey)
	return crypto.DeriveEncKey(masterKey)
}

// encKeyCSRF аутентифицирует state-changing запрос: живая сессия
// плюс корректный CSRF token.
func (s *Service) encKeyCSRF(token, csrf string) ([]byte, error) {
	masterKey, err := s.masterKeyCSRF(token, csrf)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(masterKey)
	return crypto.DeriveEncKey(masterKey)
}

// masterKeyCSRF возвращает копию мастер-ключа; вызывающий обязан ее затереть.
func (s *Service) masterKeyCSRF(token, csrf string) ([]byte, error) {
	if err := s.sessions.ValidateCSRF(token, csrf); err != nil {
		return nil, err
	}
	return s.sessions.Key(token)
}

func entryFromInput(input *validation.EntryInput) *models.Entry {
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	return &models.Entry{
		Title:    input.Title,
		URL:      input.URL,
		Username: input.Username,
		Password: input.Password,
		Notes:    input.Notes,
		Tags:     tags,
		Favorite: input.Favorite,
	}
}
