package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/localvault/internal/models"
	"github.com/iudanet/localvault/internal/storage"
)

const (
	// DefaultMaxDelay - потолок задержки между попытками разблокировки.
	DefaultMaxDelay = 5 * time.Minute

	// throttleExponentCap ограничивает показатель степени, чтобы
	// 2^n не переполнялся при длинных сериях неудач.
	throttleExponentCap = 8
)

// Throttle реализует персистентный экспоненциальный backoff для попыток
// разблокировки. Состояние хранится в базе: рестарт процесса не
// сбрасывает счетчик и не обнуляет действующую блокировку.
type Throttle struct {
	mu       sync.Mutex
	store    storage.ThrottleStorage
	maxDelay time.Duration
	now      func() time.Time
}

// NewThrottle creates a throttle backed by persistent storage.
func NewThrottle(store storage.ThrottleStorage, maxDelay time.Duration) *Throttle {
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	return &Throttle{
		store:    store,
		maxDelay: maxDelay,
		now:      time.Now,
	}
}

// Check проверяет, разрешена ли попытка разблокировки прямо сейчас.
// Возвращает *ThrottledError с остатком ожидания, если действует блокировка.
// Вызывается ДО дорогого KDF: заблокированная попытка не жжет память и CPU.
func (t *Throttle) Check(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.load(ctx)
	if err != nil {
		return err
	}

	if state.BlockedUntil == nil {
		return nil
	}

	remaining := state.BlockedUntil.Sub(t.now())
	if remaining <= 0 {
		return nil
	}

	return &ThrottledError{RetryAfter: remaining}
}

// RecordFailure увеличивает счетчик неудач и выставляет новую блокировку:
// delay = min(maxDelay, 2^min(failures, 8) секунд).
func (t *Throttle) RecordFailure(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.load(ctx)
	if err != nil {
		return err
	}

	state.ConsecutiveFailures++

	blocked := t.now().Add(t.delay(state.ConsecutiveFailures))
	state.BlockedUntil = &blocked
	state.UpdatedAt = t.now()

	if err := t.store.SaveThrottle(ctx, state); err != nil {
		return fmt.Errorf("failed to persist throttle state: %w", err)
	}

	return nil
}

// RecordSuccess сбрасывает счетчик и снимает блокировку.
func (t *Throttle) RecordSuccess(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := &models.ThrottleState{UpdatedAt: t.now()}
	if err := t.store.SaveThrottle(ctx, state); err != nil {
		return fmt.Errorf("failed to persist throttle state: %w", err)
	}

	return nil
}

// delay вычисляет задержку для n-й подряд неудачи.
func (t *Throttle) delay(failures int) time.Duration {
	exp := failures
	if exp > throttleExponentCap {
		exp = throttleExponentCap
	}

	d := time.Duration(1<<uint(exp)) * time.Second
	if d > t.maxDelay {
		d = t.maxDelay
	}

	return d
}

// load читает состояние из базы; отсутствие записи означает чистое состояние.
func (t *Throttle) load(ctx context.Context) (*models.ThrottleState, error) {
	state, err := t.store.GetThrottle(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrThrottleNotFound) {
			return &models.ThrottleState{}, nil
		}
		return nil, fmt.Errorf("failed to load throttle state: %w", err)
	}

	return state, nil
}
