package domain

import (
	"strings"
)

// Direction is a sort direction
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortField is one (property, direction) pair of a sort key
type SortField struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// SortKey is an ordered sequence of sort fields. For pagination to be
// well-defined the key must include a field with a total order over all
// items; ties on every other field are broken by id, which Normalize
// guarantees by appending it when absent.
type SortKey []SortField

// DefaultSortKey orders newest acquisitions first, ties broken by id
func DefaultSortKey() SortKey {
	return SortKey{
		{Field: "datetime", Direction: Descending},
		{Field: "id", Direction: Ascending},
	}
}

// ParseSortBy parses the sortby request parameter: comma-separated fields,
// each optionally prefixed with "+" (ascending, default) or "-" (descending).
func ParseSortBy(raw string) (SortKey, *ValidationError) {
	verr := &ValidationError{}
	var key SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			verr.Add("sortby", "empty sort field")
			continue
		}
		dir := Ascending
		switch part[0] {
		case '-':
			dir = Descending
			part = part[1:]
		case '+':
			part = part[1:]
		}
		if part == "" {
			verr.Add("sortby", "empty sort field")
			continue
		}
		key = append(key, SortField{Field: part, Direction: dir})
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return key, nil
}

// Normalize appends the id tiebreak when the key does not already include it
func (k SortKey) Normalize() SortKey {
	for _, f := range k {
		if f.Field == "id" {
			return k
		}
	}
	return append(append(SortKey{}, k...), SortField{Field: "id", Direction: Ascending})
}

// Validate checks every sort field against the queryables registry and
// verifies the key defines a total order. The returned ValidationError lists
// every offending field.
func (k SortKey) Validate(reg Queryables) *ValidationError {
	verr := &ValidationError{}
	total := false
	for _, f := range k {
		if !reg.Sortable(f.Field) {
			verr.Addf("sortby", "cannot sort on field %q", f.Field)
		}
		if f.Field == "id" {
			total = true
		}
	}
	if !total {
		// Normalize should have added the tiebreak; reaching this point is a
		// misconfiguration, not a client error.
		verr.Add("sortby", ErrInvalidSortKey.Error())
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Canonical renders the sort key for fingerprinting
func (k SortKey) Canonical() string {
	parts := make([]string, len(k))
	for i, f := range k {
		parts[i] = f.Field + ":" + string(f.Direction)
	}
	return strings.Join(parts, ",")
}

// Types returns the declared type of each sort field
func (k SortKey) Types(reg Queryables) []PropertyType {
	types := make([]PropertyType, len(k))
	for i, f := range k {
		t, _ := reg.TypeOf(f.Field)
		types[i] = t
	}
	return types
}

// ValuesOf extracts the item's sort-key tuple, the resume point a cursor
// encodes. Properties the item lacks yield zero values of the declared type.
func (k SortKey) ValuesOf(item *Item, reg Queryables) []Value {
	values := make([]Value, len(k))
	for i, f := range k {
		t, _ := reg.TypeOf(f.Field)
		if v, ok := item.PropertyValue(f.Field, t); ok {
			values[i] = v
			continue
		}
		values[i] = Value{Type: t}
	}
	return values
}

// Compare orders two items by the sort key. Used by the in-memory store and
// by tests; the database orders rows the same way.
func (k SortKey) Compare(a, b *Item, reg Queryables) int {
	av := k.ValuesOf(a, reg)
	bv := k.ValuesOf(b, reg)
	for i, f := range k {
		c := av[i].Compare(bv[i])
		if c == 0 {
			continue
		}
		if f.Direction == Descending {
			return -c
		}
		return c
	}
	return 0
}
