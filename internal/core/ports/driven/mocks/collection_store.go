package mocks

import (
	"context"
	"sync"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// MockCollectionStore is an in-memory CollectionStore for testing
type MockCollectionStore struct {
	mu          sync.RWMutex
	collections []*domain.Collection

	// ListErr, when set, is returned by List
	ListErr error
}

// NewMockCollectionStore creates a new MockCollectionStore
func NewMockCollectionStore(collections ...*domain.Collection) *MockCollectionStore {
	return &MockCollectionStore{collections: collections}
}

// Add registers collections
func (m *MockCollectionStore) Add(collections ...*domain.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = append(m.collections, collections...)
}

func (m *MockCollectionStore) List(ctx context.Context) ([]*domain.Collection, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Collection, len(m.collections))
	copy(out, m.collections)
	return out, nil
}
