package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
)

// mockStore is the smallest SessionStore honoring the contract.
type mockStore struct {
	mu   sync.Mutex
	data map[string]domain.Session
}

func (m *mockStore) Save(_ context.Context, id string, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = s.Clone()
	return nil
}

func (m *mockStore) Load(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, &mockStore{data: map[string]domain.Session{}})
}
