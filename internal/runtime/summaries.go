package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven"
)

// Summaries is the process-wide registry of collection summaries.
// Searches read the current snapshot lock-free of the database; the snapshot
// is replaced wholesale by Refresh, the single invalidation point tied to
// the external ingestion lifecycle. Thread-safe for concurrent access.
type Summaries struct {
	mu       sync.RWMutex
	snapshot *domain.SummariesSnapshot

	collectionStore driven.CollectionStore
	cache           driven.SummariesCache // optional, may be nil
}

// NewSummaries creates the registry. The cache is optional: when nil every
// refresh reads the database directly.
func NewSummaries(collectionStore driven.CollectionStore, cache driven.SummariesCache) *Summaries {
	return &Summaries{
		collectionStore: collectionStore,
		cache:           cache,
	}
}

// Snapshot returns the current read-only snapshot. May be nil before the
// first successful Refresh.
func (s *Summaries) Snapshot() *domain.SummariesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Refresh rebuilds the snapshot. The shared cache is consulted first so one
// deployment-wide refresh serves every process; on a miss the collection
// store is read and the result published back to the cache. The previous
// snapshot stays in place when the refresh fails.
func (s *Summaries) Refresh(ctx context.Context) error {
	if s.cache != nil {
		if snapshot, err := s.cache.Get(ctx); err == nil {
			s.publish(snapshot)
			return nil
		}
	}

	collections, err := s.collectionStore.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh collection summaries: %w", err)
	}

	snapshot := &domain.SummariesSnapshot{
		Collections: make(map[string]*domain.Collection, len(collections)),
		RefreshedAt: time.Now().UTC(),
	}
	for _, col := range collections {
		snapshot.Collections[col.ID] = col
	}

	if s.cache != nil {
		// Best effort: a cache write failure must not fail the refresh
		_ = s.cache.Set(ctx, snapshot)
	}

	s.publish(snapshot)
	return nil
}

func (s *Summaries) publish(snapshot *domain.SummariesSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}
