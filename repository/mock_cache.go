package repository

import "sync"

// maxCachedAnalyses bounds the map cache so the no-redis fallback does
// not grow without limit.
const maxCachedAnalyses = 100

// MockCache is a map-backed AnalysisCache. It doubles as the
// production fallback when redis is not configured, so it locks and
// evicts the oldest entry beyond maxCachedAnalyses.
type MockCache struct {
	mu    sync.RWMutex
	data  map[string]string
	order []string
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]string),
	}
}

func (m *MockCache) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
		if len(m.order) > maxCachedAnalyses {
			delete(m.data, m.order[0])
			m.order = m.order[1:]
		}
	}
	m.data[key] = value
	return nil
}

// Len reports how many entries the cache holds.
func (m *MockCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}
