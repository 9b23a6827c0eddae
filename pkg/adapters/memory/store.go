package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/tick/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Session),
	}
}

// Save persists the session in memory.
func (s *Store) Save(ctx context.Context, conversationID string, session domain.Session) error {
	// Copy on write so the caller keeps no handle on the stored slices and maps.
	copied := session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = copied
	return nil
}

// Load retrieves the session from memory.
func (s *Store) Load(ctx context.Context, conversationID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[conversationID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the stored conversation ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
