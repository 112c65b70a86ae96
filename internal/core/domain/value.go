package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PropertyType is the declared type of a queryable property
type PropertyType string

const (
	TypeString    PropertyType = "string"
	TypeNumber    PropertyType = "number"
	TypeTimestamp PropertyType = "timestamp"
	TypeGeometry  PropertyType = "geometry"
)

// Value is a typed scalar operand of a filter leaf or a sort-key tuple entry.
// Exactly one of Str/Num/Time is meaningful, selected by Type.
type Value struct {
	Type PropertyType
	Str  string
	Num  float64
	Time time.Time
}

// StringValue builds a string Value
func StringValue(s string) Value {
	return Value{Type: TypeString, Str: s}
}

// NumberValue builds a numeric Value
func NumberValue(n float64) Value {
	return Value{Type: TypeNumber, Num: n}
}

// TimeValue builds a timestamp Value, normalized to UTC
func TimeValue(t time.Time) Value {
	return Value{Type: TypeTimestamp, Time: t.UTC()}
}

// Compare orders two values of the same type.
// Returns -1, 0 or 1. Values of different types are ordered by type name so
// the result is still deterministic, but callers are expected to have
// type-checked operands first.
func (v Value) Compare(other Value) int {
	if v.Type != other.Type {
		return strings.Compare(string(v.Type), string(other.Type))
	}
	switch v.Type {
	case TypeNumber:
		switch {
		case v.Num < other.Num:
			return -1
		case v.Num > other.Num:
			return 1
		}
		return 0
	case TypeTimestamp:
		switch {
		case v.Time.Before(other.Time):
			return -1
		case v.Time.After(other.Time):
			return 1
		}
		return 0
	default:
		return strings.Compare(v.Str, other.Str)
	}
}

// Canonical renders the value in its canonical form. Two values that compare
// equal always render identically, independent of how the request spelled
// them, so filter fingerprints are stable.
func (v Value) Canonical() string {
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TypeTimestamp:
		return v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return strconv.Quote(v.Str)
	}
}

// Scalar returns the value as a plain Go scalar, suitable for query arguments
// and JSON encoding.
func (v Value) Scalar() any {
	switch v.Type {
	case TypeNumber:
		return v.Num
	case TypeTimestamp:
		return v.Time
	default:
		return v.Str
	}
}

// ValueAs converts a decoded JSON scalar into a Value of the declared type.
// Unlike ValueFromScalar nothing is inferred from the spelling: a string
// property holding timestamp-shaped text stays text, matching how the
// database compares JSONB columns.
func ValueAs(raw any, declared PropertyType) (Value, error) {
	switch declared {
	case TypeNumber:
		switch n := raw.(type) {
		case float64:
			return NumberValue(n), nil
		case int:
			return NumberValue(float64(n)), nil
		case int64:
			return NumberValue(float64(n)), nil
		}
	case TypeTimestamp:
		if s, ok := raw.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return TimeValue(t), nil
			}
		}
	case TypeString:
		switch s := raw.(type) {
		case string:
			return StringValue(s), nil
		case bool:
			return StringValue(strconv.FormatBool(s)), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %T is not a %s", ErrInvalidInput, raw, declared)
}

// ValueFromScalar converts a decoded JSON scalar into a typed Value.
func ValueFromScalar(raw any) (Value, error) {
	switch s := raw.(type) {
	case string:
		// Timestamps arrive as RFC-3339 strings
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return TimeValue(t), nil
		}
		return StringValue(s), nil
	case float64:
		return NumberValue(s), nil
	case int:
		return NumberValue(float64(s)), nil
	case int64:
		return NumberValue(float64(s)), nil
	case bool:
		// Booleans are modelled as the strings "true"/"false"
		return StringValue(strconv.FormatBool(s)), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported operand %T", ErrInvalidInput, raw)
	}
}
