package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CollectionStore = (*CollectionStore)(nil)

// CollectionStore implements driven.CollectionStore using PostgreSQL
type CollectionStore struct {
	db *DB
}

// NewCollectionStore creates a new CollectionStore
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db}
}

// List returns all collections with their extents and property summaries
func (s *CollectionStore) List(ctx context.Context) ([]*domain.Collection, error) {
	query := `
		SELECT id, title, description, spatial_extent, temporal_start, temporal_end, summaries
		FROM collections
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		var col domain.Collection
		var title, description sql.NullString
		var extent pq.Float64Array
		var tempStart, tempEnd sql.NullTime
		var summariesJSON []byte

		err := rows.Scan(
			&col.ID,
			&title,
			&description,
			&extent,
			&tempStart,
			&tempEnd,
			&summariesJSON,
		)
		if err != nil {
			return nil, err
		}

		col.Title = title.String
		col.Description = description.String

		if len(extent) == 4 {
			col.Extent.Spatial = domain.Envelope{
				MinLon: extent[0], MinLat: extent[1],
				MaxLon: extent[2], MaxLat: extent[3],
			}
		}
		col.Extent.Temporal = domain.Interval{
			Start: TimePtr(tempStart),
			End:   TimePtr(tempEnd),
		}

		if len(summariesJSON) > 0 {
			if err := json.Unmarshal(summariesJSON, &col.Summaries); err != nil {
				return nil, fmt.Errorf("failed to decode collection %s summaries: %w", col.ID, err)
			}
		}
		if col.Summaries == nil {
			col.Summaries = make(map[string]domain.PropertySummary)
		}

		collections = append(collections, &col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collections, nil
}
