package vault

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
)

const (
	// DefaultIdleTimeout - время бездействия, после которого сессия
	// считается истекшей и ключ уничтожается.
	DefaultIdleTimeout = 15 * time.Minute

	sessionTokenBytes = 32
	reapInterval      = 30 * time.Second
)

// SessionTokens возвращаются при успешной разблокировке. Оба токена
// непрозрачные и независимые: session token идет в HttpOnly cookie,
// CSRF token клиент обязан вернуть заголовком на state-changing запросах.
type SessionTokens struct {
	Token     string
	CSRFToken string
}

// session хранит мастер-ключ в залоченной памяти. Подключи (шифрование
// записей, верификатор, бэкап) выводятся из него по требованию.
type session struct {
	key      *memguard.LockedBuffer
	csrf     string
	lastSeen time.Time
}

// SessionStore держит активные сессии разблокированного хранилища в памяти.
// Токены не персистятся: рестарт процесса эквивалентен блокировке.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*session
	idleTimeout time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewSessionStore creates a session store with the given idle timeout
// and starts the background reaper.
func NewSessionStore(idleTimeout time.Duration) *SessionStore {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	s := &SessionStore{
		sessions:    make(map[string]*session),
		idleTimeout: idleTimeout,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	// Фоновая зачистка истекших сессий
	go s.reapLoop()

	return s
}

// Create регистрирует новую сессию для мастер-ключа.
// key копируется в залоченную память, исходный слайс затирается.
func (s *SessionStore) Create(key []byte) (SessionTokens, error) {
	token, err := generateToken()
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	csrf, err := generateToken()
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to generate csrf token: %w", err)
	}

	// NewBufferFromBytes затирает key после копирования
	lb := memguard.NewBufferFromBytes(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = &session{
		key:      lb,
		csrf:     csrf,
		lastSeen: s.now(),
	}

	return SessionTokens{Token: token, CSRFToken: csrf}, nil
}

// Key возвращает копию мастер-ключа сессии и продлевает ее бездействие.
// Копия принадлежит вызывающему: он обязан затереть ее после использования.
// Слайс самого залоченного буфера наружу не выходит - параллельный
// Destroy размаппил бы страницу под ногами у читающего.
func (s *SessionStore) Key(token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.alive(token)
	if !ok {
		return nil, ErrUnauthorized
	}

	sess.lastSeen = s.now()

	key := make([]byte, sess.key.Size())
	copy(key, sess.key.Bytes())
	return key, nil
}

// Validate проверяет, что сессия жива, и продлевает ее бездействие,
// не выдавая ключ. Для операций, которым нужна только аутентификация.
func (s *SessionStore) Validate(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.alive(token)
	if !ok {
		return ErrUnauthorized
	}

	sess.lastSeen = s.now()
	return nil
}

// ValidateCSRF проверяет session token вместе с CSRF token и продлевает
// бездействие. Сравнение обычное: оба токена непрозрачные 256-битные
// значения, перебор нереализуем.
func (s *SessionStore) ValidateCSRF(token, csrf string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.alive(token)
	if !ok {
		return ErrUnauthorized
	}

	if csrf == "" || csrf != sess.csrf {
		return ErrCSRFMismatch
	}

	sess.lastSeen = s.now()
	return nil
}

// SetIdleTimeout меняет таймаут бездействия для всех сессий.
// Вызывается, когда пользователь меняет авто-блокировку в настройках.
func (s *SessionStore) SetIdleTimeout(d time.Duration) {
	if d <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleTimeout = d
}

// Active сообщает, жива ли указанная сессия, не продлевая бездействие.
func (s *SessionStore) Active(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.alive(token)
	return ok
}

// Destroy уничтожает одну сессию и затирает ее ключ.
func (s *SessionStore) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[token]; ok {
		sess.key.Destroy()
		delete(s.sessions, token)
	}
}

// DestroyAll уничтожает все сессии. Вызывается при явной блокировке
// хранилища и при остановке сервера.
func (s *SessionStore) DestroyAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		sess.key.Destroy()
		delete(s.sessions, token)
	}
}

// Close останавливает reaper и уничтожает все сессии.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.DestroyAll()
}

// alive возвращает сессию, если она существует и не истекла.
// Истекшая сессия уничтожается на месте. Вызывать под mu.
func (s *SessionStore) alive(token string) (*session, bool) {
	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}

	if s.now().Sub(sess.lastSeen) > s.idleTimeout {
		sess.key.Destroy()
		delete(s.sessions, token)
		return nil, false
	}

	return sess, true
}

// reapLoop периодически уничтожает истекшие сессии, чтобы ключ не жил
// в памяти дольше idle timeout даже без входящих запросов.
func (s *SessionStore) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.reapExpired()
		}
	}
}

func (s *SessionStore) reapExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idleTimeout {
			sess.key.Destroy()
			delete(s.sessions, token)
		}
	}
}

// generateToken возвращает 256 бит случайности в base64url без паддинга.
func generateToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
