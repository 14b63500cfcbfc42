package sessions

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	session    Session
	expiration time.Time
}

// MemoryStore keeps sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	ttl     time.Duration
	now     func() time.Time
	mutex   sync.RWMutex
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (m *MemoryStore) Create(ctx context.Context, userID int64) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	id := newID()
	m.entries[id] = entry{
		session:    Session{UserID: userID, CreatedAt: now.UTC()},
		expiration: now.Add(m.ttl),
	}
	m.evictExpired(now)
	return id, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	e, ok := m.entries[id]
	if !ok || m.now().After(e.expiration) {
		return nil, ErrNotFound
	}
	s := e.session
	return &s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.entries, id)
	return nil
}

// Sweep removes expired sessions and reports how many were dropped.
func (m *MemoryStore) Sweep(ctx context.Context) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.evictExpired(m.now())
}

// evictExpired drops dead entries; callers hold the write lock.
func (m *MemoryStore) evictExpired(now time.Time) int {
	evicted := 0
	for id, e := range m.entries {
		if now.After(e.expiration) {
			delete(m.entries, id)
			evicted++
		}
	}
	return evicted
}
