package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ItemStore = (*ItemStore)(nil)

// ItemStore implements driven.ItemStore using PostgreSQL/PostGIS
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

// Search executes the compiled plan and returns up to limit+1 items in
// sort-key order. The query is cancelled promptly when the request context
// is aborted.
func (s *ItemStore) Search(ctx context.Context, plan *domain.QueryPlan) ([]*domain.Item, error) {
	q, err := compileSearch(plan)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanItems(rows)
}

// Count returns the exact number of items matching the plan's filter
func (s *ItemStore) Count(ctx context.Context, plan *domain.QueryPlan) (int, error) {
	q, err := compileCount(plan)
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ItemStore) scanItems(rows *sql.Rows) ([]*domain.Item, error) {
	var items []*domain.Item
	for rows.Next() {
		var item domain.Item
		var geometryJSON string
		var minLon, minLat, maxLon, maxLat float64
		var propertiesJSON, assetsJSON []byte

		err := rows.Scan(
			&item.ID,
			&item.Collection,
			&geometryJSON,
			&minLon,
			&minLat,
			&maxLon,
			&maxLat,
			&item.Datetime,
			&propertiesJSON,
			&assetsJSON,
		)
		if err != nil {
			return nil, err
		}

		item.Geometry = json.RawMessage(geometryJSON)
		item.BBox = []float64{minLon, minLat, maxLon, maxLat}
		item.Datetime = item.Datetime.UTC()

		if len(propertiesJSON) > 0 {
			if err := json.Unmarshal(propertiesJSON, &item.Properties); err != nil {
				return nil, fmt.Errorf("failed to decode item %s properties: %w", item.ID, err)
			}
		}
		if item.Properties == nil {
			item.Properties = make(map[string]any)
		}

		if len(assetsJSON) > 0 {
			if err := json.Unmarshal(assetsJSON, &item.Assets); err != nil {
				return nil, fmt.Errorf("failed to decode item %s assets: %w", item.ID, err)
			}
		}
		if item.Assets == nil {
			item.Assets = make(map[string]domain.Asset)
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
