package driven

import (
	"context"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// ItemStore executes compiled search plans against the catalog's item table.
// Read-only: items are immutable once published.
type ItemStore interface {
	// Search returns up to plan.Limit+1 items in sort-key order. The extra
	// row, when present, signals that more pages exist.
	Search(ctx context.Context, plan *domain.QueryPlan) ([]*domain.Item, error)

	// Count returns the exact number of items matching the plan's filter,
	// ignoring paging. Only called when the request asks for numberMatched.
	Count(ctx context.Context, plan *domain.QueryPlan) (int, error)
}

// CollectionStore reads collection metadata and property summaries
type CollectionStore interface {
	// List returns all collections with their extents and summaries
	List(ctx context.Context) ([]*domain.Collection, error)
}
