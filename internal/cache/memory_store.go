package cache

import (
	"context"
	"sync"
	"time"

	"compassbot/internal/model"
)

type memoryEntry struct {
	session   model.QuizSession
	expiresAt time.Time
}

// MemoryStore is an in-process SessionStore with epoch-based expiry.
// Used when no redis is configured and in tests. Stale entries are
// treated as absent on read and overwritten lazily.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.QuizSession, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expiresAt) {
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (m *MemoryStore) Set(_ context.Context, session *model.QuizSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[session.ID] = memoryEntry{
		session:   *session,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// SetClock overrides the time source. Test hook.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
