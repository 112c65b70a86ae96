package domain

import "time"

// Collection is a logical grouping of items sharing a schema and provenance.
type Collection struct {
	ID          string
	Title       string
	Description string
	Extent      Extent
	Summaries   map[string]PropertySummary
}

// Extent describes the spatial and temporal coverage of a collection
type Extent struct {
	Spatial  Envelope
	Temporal Interval
}

// PropertySummary is the precomputed summary of one extension property across
// a collection: its declared type plus either a min/max range or an
// enumeration of observed values. Summaries feed the queryables registry and
// let the compiler short-circuit provably-empty filters.
type PropertySummary struct {
	Type PropertyType `json:"type" msgpack:"type"`
	Min  *float64     `json:"min,omitempty" msgpack:"min,omitempty"`
	Max  *float64     `json:"max,omitempty" msgpack:"max,omitempty"`
	Enum []string     `json:"enum,omitempty" msgpack:"enum,omitempty"`
}

// SummariesSnapshot is the process-wide read-only view of all collections and
// their property summaries, refreshed on a schedule by the worker. It is the
// authority for which collection ids exist and which properties are
// queryable.
type SummariesSnapshot struct {
	Collections map[string]*Collection `msgpack:"collections"`
	RefreshedAt time.Time              `msgpack:"refreshed_at"`
}

// HasCollection reports whether the collection id is known
func (s *SummariesSnapshot) HasCollection(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Collections[id]
	return ok
}

// KnownCollections filters the requested ids down to the ones that exist.
// Unknown ids are not an error: they simply guarantee zero matches.
func (s *SummariesSnapshot) KnownCollections(ids []string) []string {
	var known []string
	for _, id := range ids {
		if s.HasCollection(id) {
			known = append(known, id)
		}
	}
	return known
}

// Queryables builds the registry of typed queryable properties visible to a
// search across the given collections. With no collections requested, the
// intersection across all collections applies, so a property is only
// queryable when every collection declares it with the same type.
func (s *SummariesSnapshot) Queryables(collections []string) Queryables {
	reg := NewQueryables()
	if s == nil {
		return reg
	}

	selected := collections
	if len(selected) == 0 {
		for id := range s.Collections {
			selected = append(selected, id)
		}
	}

	counts := make(map[string]int)
	types := make(map[string]PropertyType)
	conflicted := make(map[string]bool)
	matched := 0
	for _, id := range selected {
		col, ok := s.Collections[id]
		if !ok {
			continue
		}
		matched++
		for name, summary := range col.Summaries {
			counts[name]++
			if prev, seen := types[name]; seen && prev != summary.Type {
				conflicted[name] = true
				continue
			}
			types[name] = summary.Type
		}
	}

	for name, n := range counts {
		if n == matched && !conflicted[name] {
			reg.Add(name, types[name])
		}
	}
	return reg
}
