package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/carepoint/scheduling-api/internal/pkg/metrics"
)

const defaultMaxEntries = 10000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a bounded in-process Store. A single mutex guards every
// operation; when full, expired entries go first, then the entry closest to
// expiry.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evict(now)
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evict must be called with mu held.
func (m *MemoryStore) evict(now time.Time) {
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	if removed == 0 {
		var (
			victim  string
			soonest time.Time
		)
		for k, e := range m.entries {
			if victim == "" || e.expiresAt.Before(soonest) {
				victim, soonest = k, e.expiresAt
			}
		}
		delete(m.entries, victim)
		removed = 1
	}
	metrics.CacheEvictionsTotal.Add(float64(removed))
}
