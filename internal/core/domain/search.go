package domain

import (
	"encoding/json"
)

const (
	// DefaultLimit applies when the request does not specify a page size
	DefaultLimit = 10

	// MaxLimit caps the page size
	MaxLimit = 1000
)

// SearchParams is the normalized search request handed in by the routing
// layer. Fields mirror the STAC item-search parameters.
type SearchParams struct {
	BBox        []float64       `json:"bbox,omitempty"`
	Datetime    string          `json:"datetime,omitempty"`
	Collections []string        `json:"collections,omitempty"`
	IDs         []string        `json:"ids,omitempty"`
	Filter      json.RawMessage `json:"filter,omitempty"`
	SortBy      string          `json:"sortby,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Token       string          `json:"token,omitempty"`

	// WithCount requests an exact match count (numberMatched) alongside the
	// page. Off the hot path by default.
	WithCount bool `json:"count,omitempty"`
}

// SearchRequest is a validated, well-typed search: the compiled filter tree,
// the normalized sort key and the paging directives. Produced by ParseSearch;
// everything downstream trusts it.
type SearchRequest struct {
	Filter      Expr
	Sort        SortKey
	Limit       int
	Token       string
	Collections []string
	WithCount   bool

	// Fingerprint binds cursors to this exact filter + sort
	Fingerprint string

	// Queryables is the registry the request was validated against
	Queryables Queryables
}

// Cursor is the decoded resume point of a paginated search: the sort-key
// value tuple at the last returned row, bound to the fingerprint of the
// filter it was issued under.
type Cursor struct {
	Keyset      []Value
	Fingerprint string
}

// QueryPlan is the executable form of a search handed to the item store: the
// filter to lower, the ordering, the seek bound to resume from and the page
// size. Stores fetch limit+1 rows so the overflow row signals another page
// without a count query.
type QueryPlan struct {
	Filter Expr
	Sort   SortKey
	Limit  int

	// Seek, when present, resumes strictly after this sort-key tuple
	Seek []Value

	// Queryables carries the declared property types the plan was validated
	// against, so stores can type their column expressions
	Queryables Queryables
}

// ParseSearch validates the raw parameters against the summaries snapshot
// and assembles the filter expression tree. All invalid clauses across every
// parameter are aggregated into a single ValidationError.
func ParseSearch(params SearchParams, snapshot *SummariesSnapshot) (*SearchRequest, error) {
	verr := &ValidationError{}
	reg := snapshot.Queryables(params.Collections)

	var conjuncts []Expr

	if len(params.BBox) > 0 {
		envelopes, bboxErr := ParseBBox(params.BBox)
		if bboxErr != nil {
			verr.Merge(bboxErr)
		} else {
			spatial := make([]Expr, len(envelopes))
			for i, env := range envelopes {
				spatial[i] = &SpatialIntersects{Envelope: env}
			}
			conjuncts = append(conjuncts, Disjoin(spatial...))
		}
	}

	if params.Datetime != "" {
		iv, dtErr := ParseDatetime(params.Datetime)
		if dtErr != nil {
			verr.Merge(dtErr)
		} else {
			conjuncts = append(conjuncts, &TemporalOverlaps{Interval: iv})
		}
	}

	if len(params.Collections) > 0 {
		values := make([]Value, len(params.Collections))
		for i, id := range params.Collections {
			values[i] = StringValue(id)
		}
		conjuncts = append(conjuncts, &InSet{Property: "collection", Values: values})
	}

	if len(params.IDs) > 0 {
		values := make([]Value, len(params.IDs))
		for i, id := range params.IDs {
			values[i] = StringValue(id)
		}
		conjuncts = append(conjuncts, &InSet{Property: "id", Values: values})
	}

	if len(params.Filter) > 0 {
		expr, cqlErr := ParseCQL(params.Filter, reg)
		if cqlErr != nil {
			verr.Merge(cqlErr)
		} else if expr != nil {
			conjuncts = append(conjuncts, expr)
		}
	}

	sortKey := DefaultSortKey()
	if params.SortBy != "" {
		parsed, sortErr := ParseSortBy(params.SortBy)
		if sortErr != nil {
			verr.Merge(sortErr)
		} else {
			sortKey = parsed
		}
	}
	sortKey = sortKey.Normalize()
	if sortErr := sortKey.Validate(reg); sortErr != nil {
		verr.Merge(sortErr)
	}

	limit := params.Limit
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0:
		verr.Add("limit", "limit must be positive")
	case limit > MaxLimit:
		limit = MaxLimit
	}

	if verr.HasErrors() {
		return nil, verr
	}

	filter := Conjoin(conjuncts...)
	return &SearchRequest{
		Filter:      filter,
		Sort:        sortKey,
		Limit:       limit,
		Token:       params.Token,
		Collections: params.Collections,
		WithCount:   params.WithCount,
		Fingerprint: Fingerprint(filter, sortKey),
		Queryables:  reg,
	}, nil
}
