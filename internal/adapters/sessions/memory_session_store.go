package sessions

import (
	"context"
	"sync"
	"time"

	"courier-backoffice-service/internal/domain"
)

// MemorySessionStore keeps sessions in process memory. Expired entries are
// dropped on lookup and swept on every Save.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	session  domain.Session
	deadline time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]memoryEntry{},
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Save(ctx context.Context, s domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for token, e := range m.sessions {
		if !now.Before(e.deadline) {
			delete(m.sessions, token)
		}
	}

	m.sessions[s.Token] = memoryEntry{session: s, deadline: now.Add(ttl)}
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if !m.now().Before(e.deadline) {
		delete(m.sessions, token)
		return domain.Session{}, domain.ErrUnauthorized
	}
	return e.session, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}
