package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// CompareOp is a comparison operator of a filter leaf
type CompareOp string

const (
	OpEq   CompareOp = "="
	OpNeq  CompareOp = "<>"
	OpLt   CompareOp = "<"
	OpLte  CompareOp = "<="
	OpGt   CompareOp = ">"
	OpGte  CompareOp = ">="
	OpLike CompareOp = "like"
)

// Expr is a filter expression tree node. The variant set is closed:
// comparison, set membership, spatial, temporal and the boolean connectives.
// New operators are added by extending the variant set and the compiler
// cases, not by subclassing.
type Expr interface {
	// Canonical renders the node in its canonical form: stable across
	// field-order and whitespace differences in the raw request, so that
	// equivalent filters fingerprint identically.
	Canonical() string
}

// And is the conjunction of its children
type And struct {
	Children []Expr
}

// Or is the disjunction of its children
type Or struct {
	Children []Expr
}

// Not negates its child
type Not struct {
	Child Expr
}

// Comparison compares a queryable property against a scalar
type Comparison struct {
	Property string
	Op       CompareOp
	Value    Value
}

// InSet is set membership of a queryable property
type InSet struct {
	Property string
	Values   []Value
}

// SpatialIntersects matches items whose geometry intersects the envelope
type SpatialIntersects struct {
	Envelope Envelope
}

// TemporalOverlaps matches items whose acquisition time falls inside the
// interval
type TemporalOverlaps struct {
	Interval Interval
}

func (e *And) Canonical() string {
	return "and(" + canonicalChildren(e.Children) + ")"
}

func (e *Or) Canonical() string {
	return "or(" + canonicalChildren(e.Children) + ")"
}

func (e *Not) Canonical() string {
	return "not(" + e.Child.Canonical() + ")"
}

func (e *Comparison) Canonical() string {
	return "cmp(" + e.Property + "," + string(e.Op) + "," + e.Value.Canonical() + ")"
}

func (e *InSet) Canonical() string {
	// Membership is order-insensitive
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = v.Canonical()
	}
	sort.Strings(vals)
	return "in(" + e.Property + ",[" + strings.Join(vals, ",") + "])"
}

func (e *SpatialIntersects) Canonical() string {
	return "s_intersects(" + e.Envelope.Canonical() + ")"
}

func (e *TemporalOverlaps) Canonical() string {
	return "t_overlaps(" + e.Interval.Canonical() + ")"
}

// canonicalChildren renders children sorted lexicographically so that
// operand order does not change the fingerprint of commutative connectives.
func canonicalChildren(children []Expr) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.Canonical()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// Conjoin combines the non-nil expressions into a single tree.
// Returns nil when every input is nil (an unfiltered search).
func Conjoin(exprs ...Expr) Expr {
	var present []Expr
	for _, e := range exprs {
		if e != nil {
			present = append(present, e)
		}
	}
	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	default:
		return &And{Children: present}
	}
}

// Disjoin combines the non-nil expressions into a single disjunction
func Disjoin(exprs ...Expr) Expr {
	var present []Expr
	for _, e := range exprs {
		if e != nil {
			present = append(present, e)
		}
	}
	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	default:
		return &Or{Children: present}
	}
}

// Fingerprint is the stable hash of a compiled filter's canonical form plus
// the sort key it was issued under. Cursors are bound to it: a cursor from
// filter A replayed against filter B is rejected, never reinterpreted.
func Fingerprint(filter Expr, key SortKey) string {
	canonical := ""
	if filter != nil {
		canonical = filter.Canonical()
	}
	sum := sha256.Sum256([]byte(canonical + "|" + key.Canonical()))
	return hex.EncodeToString(sum[:])
}
