package mocks

import (
	"context"
	"sync"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// MockSummariesCache is an in-memory SummariesCache for testing
type MockSummariesCache struct {
	mu       sync.RWMutex
	snapshot *domain.SummariesSnapshot

	// GetCalls and SetCalls count cache accesses
	GetCalls int
	SetCalls int
}

// NewMockSummariesCache creates a new MockSummariesCache
func NewMockSummariesCache() *MockSummariesCache {
	return &MockSummariesCache{}
}

func (m *MockSummariesCache) Get(ctx context.Context) (*domain.SummariesSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	return m.snapshot, nil
}

func (m *MockSummariesCache) Set(ctx context.Context, snapshot *domain.SummariesSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++
	m.snapshot = snapshot
	return nil
}
