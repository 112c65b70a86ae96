package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// MockItemStore is an in-memory ItemStore for testing. It evaluates filter
// expressions, sort keys and seek bounds for real, so orchestrator tests
// exercise genuine pagination semantics without a database.
type MockItemStore struct {
	mu    sync.RWMutex
	items []*domain.Item

	// SearchErr, when set, is returned by Search to simulate an unavailable
	// database
	SearchErr error
}

// NewMockItemStore creates a new MockItemStore
func NewMockItemStore() *MockItemStore {
	return &MockItemStore{}
}

// Add registers items in the store
func (m *MockItemStore) Add(items ...*domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
}

func (m *MockItemStore) Search(ctx context.Context, plan *domain.QueryPlan) ([]*domain.Item, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg := plan.Queryables
	var matched []*domain.Item
	for _, item := range m.items {
		if Matches(item, plan.Filter, reg) {
			matched = append(matched, item)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return plan.Sort.Compare(matched[i], matched[j], reg) < 0
	})

	if plan.Seek != nil {
		var after []*domain.Item
		for _, item := range matched {
			if compareToSeek(plan.Sort.ValuesOf(item, reg), plan.Seek, plan.Sort) > 0 {
				after = append(after, item)
			}
		}
		matched = after
	}

	if len(matched) > plan.Limit+1 {
		matched = matched[:plan.Limit+1]
	}
	return matched, nil
}

func (m *MockItemStore) Count(ctx context.Context, plan *domain.QueryPlan) (int, error) {
	if m.SearchErr != nil {
		return 0, m.SearchErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, item := range m.items {
		if Matches(item, plan.Filter, plan.Queryables) {
			count++
		}
	}
	return count, nil
}

// Matches evaluates a filter expression against an item, resolving property
// types through the registry the way the database resolves column casts. A
// nil expression matches everything.
func Matches(item *domain.Item, expr domain.Expr, reg domain.Queryables) bool {
	switch e := expr.(type) {
	case nil:
		return true
	case *domain.And:
		for _, child := range e.Children {
			if !Matches(item, child, reg) {
				return false
			}
		}
		return true
	case *domain.Or:
		for _, child := range e.Children {
			if Matches(item, child, reg) {
				return true
			}
		}
		return false
	case *domain.Not:
		return !Matches(item, e.Child, reg)
	case *domain.Comparison:
		t, _ := reg.TypeOf(e.Property)
		v, ok := item.PropertyValue(e.Property, t)
		if !ok {
			return false
		}
		if e.Op == domain.OpLike {
			return likeMatch(v.Str, e.Value.Str)
		}
		c := v.Compare(e.Value)
		switch e.Op {
		case domain.OpEq:
			return c == 0
		case domain.OpNeq:
			return c != 0
		case domain.OpLt:
			return c < 0
		case domain.OpLte:
			return c <= 0
		case domain.OpGt:
			return c > 0
		case domain.OpGte:
			return c >= 0
		}
		return false
	case *domain.InSet:
		t, _ := reg.TypeOf(e.Property)
		v, ok := item.PropertyValue(e.Property, t)
		if !ok {
			return false
		}
		for _, candidate := range e.Values {
			if v.Compare(candidate) == 0 {
				return true
			}
		}
		return false
	case *domain.SpatialIntersects:
		return e.Envelope.Intersects(item.Envelope())
	case *domain.TemporalOverlaps:
		return e.Interval.Contains(item.Datetime)
	default:
		return false
	}
}

// compareToSeek orders an item's sort-key tuple against the seek bound,
// honouring per-field direction. Positive means the item sorts strictly
// after the bound.
func compareToSeek(values, seek []domain.Value, key domain.SortKey) int {
	for i := range key {
		if i >= len(values) || i >= len(seek) {
			break
		}
		c := values[i].Compare(seek[i])
		if key[i].Direction == domain.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// likeMatch implements SQL LIKE with % wildcards
func likeMatch(s, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}
