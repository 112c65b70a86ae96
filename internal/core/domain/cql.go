package domain

import (
	"encoding/json"
	"fmt"
)

// cqlNode is the raw shape of one CQL2-JSON node
type cqlNode struct {
	Op   string            `json:"op"`
	Args []json.RawMessage `json:"args"`
}

// cqlProperty is a property reference operand
type cqlProperty struct {
	Property string `json:"property"`
}

// cqlSpatialLiteral is the operand of s_intersects: either a bbox literal or
// a GeoJSON geometry, reduced to its envelope.
type cqlSpatialLiteral struct {
	BBox        []float64       `json:"bbox"`
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// cqlTemporalLiteral is the operand of t_intersects
type cqlTemporalLiteral struct {
	Interval []string `json:"interval"`
}

var comparisonOps = map[string]CompareOp{
	"=":  OpEq,
	"<>": OpNeq,
	"!=": OpNeq,
	"<":  OpLt,
	"<=": OpLte,
	">":  OpGt,
	">=": OpGte,
}

// ParseCQL parses the extension filter language (a CQL2-JSON subset:
// comparisons, IN, LIKE, s_intersects, t_intersects and the boolean
// connectives) into a well-typed expression tree. Every leaf is resolved
// against the queryables registry; all offending clauses are aggregated into
// the returned ValidationError rather than stopping at the first.
func ParseCQL(raw json.RawMessage, reg Queryables) (Expr, *ValidationError) {
	verr := &ValidationError{}
	expr := parseCQLNode(raw, reg, verr)
	if verr.HasErrors() {
		return nil, verr
	}
	return expr, nil
}

func parseCQLNode(raw json.RawMessage, reg Queryables, verr *ValidationError) Expr {
	var node cqlNode
	if err := json.Unmarshal(raw, &node); err != nil {
		verr.Add("filter", "malformed filter expression")
		return nil
	}
	if node.Op == "" {
		verr.Add("filter", "filter node is missing an operator")
		return nil
	}

	switch node.Op {
	case "and", "or":
		if len(node.Args) < 2 {
			verr.Addf("filter", "%q requires at least two operands", node.Op)
			return nil
		}
		children := make([]Expr, 0, len(node.Args))
		for _, arg := range node.Args {
			if child := parseCQLNode(arg, reg, verr); child != nil {
				children = append(children, child)
			}
		}
		if len(children) != len(node.Args) {
			return nil
		}
		if node.Op == "and" {
			return &And{Children: children}
		}
		return &Or{Children: children}

	case "not":
		if len(node.Args) != 1 {
			verr.Add("filter", `"not" requires exactly one operand`)
			return nil
		}
		child := parseCQLNode(node.Args[0], reg, verr)
		if child == nil {
			return nil
		}
		return &Not{Child: child}

	case "in":
		return parseCQLIn(node, reg, verr)

	case "like":
		return parseCQLComparison(node, OpLike, reg, verr)

	case "s_intersects":
		return parseCQLSpatial(node, verr)

	case "t_intersects", "anyinteracts":
		return parseCQLTemporal(node, reg, verr)

	default:
		op, ok := comparisonOps[node.Op]
		if !ok {
			verr.Addf("filter", "unsupported operator %q", node.Op)
			return nil
		}
		return parseCQLComparison(node, op, reg, verr)
	}
}

func parseCQLComparison(node cqlNode, op CompareOp, reg Queryables, verr *ValidationError) Expr {
	if len(node.Args) != 2 {
		verr.Addf("filter", "%q requires exactly two operands", node.Op)
		return nil
	}
	prop, ok := parsePropertyRef(node.Args[0])
	if !ok {
		verr.Addf("filter", "%q requires a property reference as first operand", node.Op)
		return nil
	}

	declared, known := reg.TypeOf(prop)
	if !known {
		verr.Addf("filter", "cannot search on unknown property %q", prop)
		return nil
	}
	if declared == TypeGeometry {
		verr.Addf("filter", "property %q requires a spatial operator", prop)
		return nil
	}

	value, ok := parseScalarOperand(node.Args[1], declared)
	if !ok {
		verr.Addf("filter", "operand of %q on %q must be a %s", node.Op, prop, declared)
		return nil
	}
	if op == OpLike && declared != TypeString {
		verr.Addf("filter", `"like" only applies to string properties, %q is %s`, prop, declared)
		return nil
	}

	return &Comparison{Property: prop, Op: op, Value: value}
}

func parseCQLIn(node cqlNode, reg Queryables, verr *ValidationError) Expr {
	if len(node.Args) != 2 {
		verr.Add("filter", `"in" requires a property and a value list`)
		return nil
	}
	prop, ok := parsePropertyRef(node.Args[0])
	if !ok {
		verr.Add("filter", `"in" requires a property reference as first operand`)
		return nil
	}
	declared, known := reg.TypeOf(prop)
	if !known {
		verr.Addf("filter", "cannot search on unknown property %q", prop)
		return nil
	}
	if declared == TypeGeometry {
		verr.Addf("filter", "property %q requires a spatial operator", prop)
		return nil
	}

	var rawValues []json.RawMessage
	if err := json.Unmarshal(node.Args[1], &rawValues); err != nil {
		verr.Add("filter", `"in" requires a value list as second operand`)
		return nil
	}
	if len(rawValues) == 0 {
		verr.Add("filter", `"in" requires a non-empty value list`)
		return nil
	}
	values := make([]Value, 0, len(rawValues))
	bad := false
	for _, rv := range rawValues {
		v, ok := parseScalarOperand(rv, declared)
		if !ok {
			verr.Addf("filter", `"in" operand on %q must be a %s`, prop, declared)
			bad = true
			continue
		}
		values = append(values, v)
	}
	if bad {
		return nil
	}
	return &InSet{Property: prop, Values: values}
}

func parseCQLSpatial(node cqlNode, verr *ValidationError) Expr {
	if len(node.Args) != 2 {
		verr.Add("filter", `"s_intersects" requires a property and a geometry`)
		return nil
	}
	prop, ok := parsePropertyRef(node.Args[0])
	if !ok || prop != "geometry" {
		verr.Add("filter", `"s_intersects" must reference the geometry property`)
		return nil
	}

	var lit cqlSpatialLiteral
	if err := json.Unmarshal(node.Args[1], &lit); err != nil {
		verr.Add("filter", `malformed "s_intersects" geometry operand`)
		return nil
	}

	var bbox []float64
	switch {
	case len(lit.BBox) > 0:
		bbox = lit.BBox
	case lit.Type != "" && len(lit.Coordinates) > 0:
		env, err := envelopeOfCoordinates(lit.Coordinates)
		if err != nil {
			verr.Addf("filter", `malformed %s coordinates in "s_intersects"`, lit.Type)
			return nil
		}
		bbox = []float64{env.MinLon, env.MinLat, env.MaxLon, env.MaxLat}
	default:
		verr.Add("filter", `"s_intersects" requires a bbox or GeoJSON geometry operand`)
		return nil
	}

	envelopes, bboxErr := ParseBBox(bbox)
	if bboxErr != nil {
		for _, f := range bboxErr.Fields {
			verr.Add("filter", f.Reason)
		}
		return nil
	}
	spatial := make([]Expr, len(envelopes))
	for i, env := range envelopes {
		spatial[i] = &SpatialIntersects{Envelope: env}
	}
	return Disjoin(spatial...)
}

func parseCQLTemporal(node cqlNode, reg Queryables, verr *ValidationError) Expr {
	if len(node.Args) != 2 {
		verr.Add("filter", `"t_intersects" requires a property and an interval`)
		return nil
	}
	prop, ok := parsePropertyRef(node.Args[0])
	if !ok {
		verr.Add("filter", `"t_intersects" requires a property reference as first operand`)
		return nil
	}
	if declared, known := reg.TypeOf(prop); !known || declared != TypeTimestamp {
		verr.Addf("filter", `"t_intersects" requires a timestamp property, got %q`, prop)
		return nil
	}

	var lit cqlTemporalLiteral
	if err := json.Unmarshal(node.Args[1], &lit); err != nil || len(lit.Interval) != 2 {
		verr.Add("filter", `"t_intersects" requires an {"interval": [start, end]} operand`)
		return nil
	}
	iv, ivErr := ParseDatetime(lit.Interval[0] + "/" + lit.Interval[1])
	if ivErr != nil {
		for _, f := range ivErr.Fields {
			verr.Add("filter", f.Reason)
		}
		return nil
	}
	return &TemporalOverlaps{Interval: iv}
}

func parsePropertyRef(raw json.RawMessage) (string, bool) {
	var ref cqlProperty
	if err := json.Unmarshal(raw, &ref); err != nil || ref.Property == "" {
		return "", false
	}
	return ref.Property, true
}

// parseScalarOperand decodes a JSON scalar and coerces it to the declared
// property type, rejecting mismatches.
func parseScalarOperand(raw json.RawMessage, declared PropertyType) (Value, bool) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Value{}, false
	}
	v, err := ValueFromScalar(decoded)
	if err != nil {
		return Value{}, false
	}
	// A quoted timestamp decodes as TypeTimestamp; a string property may
	// still legitimately hold it as text.
	if declared == TypeString && v.Type == TypeTimestamp {
		if s, isString := decoded.(string); isString {
			v = StringValue(s)
		}
	}
	if v.Type != declared {
		return Value{}, false
	}
	return v, true
}

// envelopeOfCoordinates computes the bounding envelope of arbitrarily nested
// GeoJSON coordinate arrays.
func envelopeOfCoordinates(raw json.RawMessage) (Envelope, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Envelope{}, err
	}
	env := Envelope{MinLon: 180, MinLat: 90, MaxLon: -180, MaxLat: -90}
	found := false

	var walk func(node any) error
	walk = func(node any) error {
		arr, ok := node.([]any)
		if !ok {
			return fmt.Errorf("unexpected coordinate node %T", node)
		}
		if len(arr) >= 2 {
			lon, lonOK := arr[0].(float64)
			lat, latOK := arr[1].(float64)
			if lonOK && latOK {
				found = true
				if lon < env.MinLon {
					env.MinLon = lon
				}
				if lon > env.MaxLon {
					env.MaxLon = lon
				}
				if lat < env.MinLat {
					env.MinLat = lat
				}
				if lat > env.MaxLat {
					env.MaxLat = lat
				}
				return nil
			}
		}
		for _, child := range arr {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(decoded); err != nil {
		return Envelope{}, err
	}
	if !found {
		return Envelope{}, fmt.Errorf("empty coordinates")
	}
	return env, nil
}
