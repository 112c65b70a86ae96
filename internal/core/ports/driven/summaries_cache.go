package driven

import (
	"context"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// SummariesCache shares collection summaries snapshots across instances so
// each refresh hits the database once per deployment rather than once per
// process. Optional: a nil cache means every process refreshes directly.
type SummariesCache interface {
	// Get returns the cached snapshot, or domain.ErrNotFound when absent or
	// expired
	Get(ctx context.Context) (*domain.SummariesSnapshot, error)

	// Set stores a snapshot with the cache's configured TTL
	Set(ctx context.Context, snapshot *domain.SummariesSnapshot) error
}
