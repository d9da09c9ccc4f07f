package vault

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

// metaDenyList - подстроки ключей метаданных, которые никогда не попадают
// в журнал. Фильтр по подстроке, а не по точному имени: "masterPassword",
// "sessionToken" и "encKey" отсеиваются одним списком.
var metaDenyList = []string{"password", "secret", "master", "token", "key"}

// auditor пишет события безопасности в persistent-журнал.
type auditor struct {
	store  storage.AuditStorage
	logger *slog.Logger
	now    func() time.Time
}

func newAuditor(store storage.AuditStorage, logger *slog.Logger) *auditor {
	return &auditor{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// record добавляет событие в журнал. Ошибка записи логируется, но не
// проваливает операцию: аудит не должен блокировать работу хранилища.
func (a *auditor) record(ctx context.Context, eventType models.AuditEventType, outcome models.AuditOutcome, meta map[string]any) {
	event := &models.AuditEvent{
		ID:        uuid.New().String(),
		Timestamp: a.now(),
		Type:      eventType,
		Outcome:   outcome,
		Meta:      sanitizeMeta(meta),
	}

	if err := a.store.AppendAuditEvent(ctx, event); err != nil {
		a.logger.Error("failed to append audit event",
			"type", string(eventType),
			"error", err,
		)
	}
}

func (a *auditor) success(ctx context.Context, eventType models.AuditEventType, meta map[string]any) {
	a.record(ctx, eventType, models.OutcomeSuccess, meta)
}

func (a *auditor) failure(ctx context.Context, eventType models.AuditEventType, meta map[string]any) {
	a.record(ctx, eventType, models.OutcomeFailure, meta)
}

// sanitizeMeta отбрасывает ключи, похожие на секреты. Всегда возвращает
// не-nil map, чтобы поле события сериализовалось как {} а не null.
func sanitizeMeta(meta map[string]any) map[string]any {
	clean := make(map[string]any, len(meta))

	for k, v := range meta {
		if deniedMetaKey(k) {
			continue
		}
		clean[k] = v
	}

	return clean
}

func deniedMetaKey(key string) bool {
	lower := strings.ToLower(key)
	for _, denied := range metaDenyList {
		if strings.Contains(lower, denied) {
			return true
		}
	}
	return false
}
