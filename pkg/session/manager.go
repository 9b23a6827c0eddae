package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tick/internal/logging"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring turns of one conversation run
// one at a time. Unused locks are garbage collected by reference counting.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiration of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, then call release after unlocking.
func (m *Manager) acquire(conversationID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[conversationID]
	if !exists {
		entry = &lockEntry{}
		m.locks[conversationID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[conversationID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, conversationID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, conversationID string) (domain.Session, error) {
	var session domain.Session
	err := m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		session, err = m.store.Load(ctx, conversationID)
		return err
	})
	return session, err
}

// LoadOrStart loads a session, or persists initial as the new session when
// the conversation is unknown.
func (m *Manager) LoadOrStart(ctx context.Context, conversationID string, initial domain.Session) (domain.Session, error) {
	var session domain.Session
	err := m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		session, err = m.loadOrInit(ctx, conversationID, initial)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, conversationID, session)
	})
	return session, err
}

func (m *Manager) loadOrInit(ctx context.Context, conversationID string, initial domain.Session) (domain.Session, error) {
	session, err := m.store.Load(ctx, conversationID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, fmt.Errorf("failed to check session existence: %w", err)
	}
	return initial, nil
}

// TurnFunc computes the next session of a conversation. Returning keep=false
// deletes the conversation instead of saving next.
type TurnFunc func(ctx context.Context, current domain.Session) (next domain.Session, keep bool, err error)

// Turn runs fn on the current session, or on initial for an unknown
// conversation, and persists the outcome. Nothing is written when fn fails.
func (m *Manager) Turn(ctx context.Context, conversationID string, initial domain.Session, fn TurnFunc) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		current, err := m.loadOrInit(ctx, conversationID, initial)
		if err != nil {
			return err
		}

		next, keep, err := fn(ctx, current)
		if err != nil {
			return err
		}
		if !keep {
			return m.store.Delete(ctx, conversationID)
		}
		return m.store.Save(ctx, conversationID, next)
	})
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, conversationID string, session domain.Session) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Save(ctx, conversationID, session)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Delete(ctx, conversationID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes fn while holding the lock of the conversation.
func (m *Manager) WithLock(ctx context.Context, conversationID string, fn func(context.Context) error) error {
	entry := m.acquire(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(conversationID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, conversationID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation_id", conversationID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
