package domain

// Queryables is the registry of properties a filter or sort key may
// reference, with their declared types. Comparisons against properties that
// are not registered are validation errors, never silently-empty results.
type Queryables struct {
	types map[string]PropertyType
}

// NewQueryables returns a registry seeded with the base queryables shared by
// every collection.
func NewQueryables() Queryables {
	return Queryables{types: map[string]PropertyType{
		"id":         TypeString,
		"collection": TypeString,
		"datetime":   TypeTimestamp,
		"geometry":   TypeGeometry,
	}}
}

// Add registers an extension property
func (q Queryables) Add(name string, t PropertyType) {
	q.types[name] = t
}

// TypeOf looks up a property's declared type
func (q Queryables) TypeOf(name string) (PropertyType, bool) {
	t, ok := q.types[name]
	return t, ok
}

// Sortable reports whether the property can appear in a sort key.
// Geometry has no defined order.
func (q Queryables) Sortable(name string) bool {
	t, ok := q.types[name]
	return ok && t != TypeGeometry
}

// Names returns all registered property names
func (q Queryables) Names() []string {
	names := make([]string, 0, len(q.types))
	for name := range q.types {
		names = append(names, name)
	}
	return names
}
