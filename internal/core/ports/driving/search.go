package driving

import (
	"context"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// SearchService handles catalog search operations
type SearchService interface {
	// Search validates the request, executes it and returns the paginated
	// feature collection. Validation failures, invalid cursors and database
	// errors surface as the domain error taxonomy; an unknown collection is
	// not an error but an empty result.
	Search(ctx context.Context, params domain.SearchParams) (*domain.FeatureCollection, error)

	// Collections returns all known collections from the current summaries
	// snapshot
	Collections(ctx context.Context) ([]*domain.Collection, error)

	// Queryables returns the typed properties a filter or sort key may
	// reference across the given collections. With no collections, the
	// intersection over all collections applies.
	Queryables(ctx context.Context, collections []string) (domain.Queryables, error)
}
