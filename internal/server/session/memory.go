package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

type memoryEntry struct {
	values  map[string]string
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Suitable for a single
// instance and for tests. Entries expire ttl after their last save, like the
// Redis store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore returns an empty store; ttl <= 0 keeps sessions until they
// are destroyed.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{data: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (m *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[id]
	if id == "" || !ok {
		return New(), nil
	}
	if m.expired(e, m.now()) {
		delete(m.data, id)
		return New(), nil
	}
	return restore(id, maps.Clone(e.values)), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	if old := s.takeReplaced(); old != "" {
		if err := m.Destroy(ctx, old); err != nil {
			return err
		}
	}
	if len(s.values) == 0 {
		return m.Destroy(ctx, s.id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.data {
		if m.expired(e, now) {
			delete(m.data, id)
		}
	}

	e := memoryEntry{values: maps.Clone(s.values)}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.data[s.id] = e
	s.modified = false
	return nil
}

func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// they are swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
