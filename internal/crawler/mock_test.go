package crawler

import (
	"context"
	"time"

	"sjsage522/ebookdealworker/helpers"
	"sjsage522/ebookdealworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
	sets  int
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	m.sets++
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// MockFetcher returns a canned page and error and counts calls
type MockFetcher struct {
	page  *helpers.Page
	err   error
	calls int
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (*helpers.Page, error) {
	m.calls++
	return m.page, m.err
}

var (
	_ cache.CacheService = (*MockCacheService)(nil)
	_ helpers.Fetcher    = (*MockFetcher)(nil)
)
