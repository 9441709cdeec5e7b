package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/multilingual-news-api/internal/cache"
)

// MockCache is an in-memory Cache that ignores TTLs and records
// invalidations.
type MockCache struct {
	mu      sync.Mutex
	Entries map[string][]byte

	// Err, when set, is returned by every operation.
	Err             error
	Gets            int
	Sets            int
	DeletedPrefixes []string
}

var _ cache.Cache = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{Entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.Err != nil {
		return nil, false, m.Err
	}
	v, ok := m.Entries[key]
	return v, ok, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.Err != nil {
		return m.Err
	}
	m.Entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockCache) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedPrefixes = append(m.DeletedPrefixes, prefix)
	if m.Err != nil {
		return m.Err
	}
	for key := range m.Entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.Entries, key)
		}
	}
	return nil
}

func (m *MockCache) Close() error { return nil }

// Len returns the number of cached entries.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}
