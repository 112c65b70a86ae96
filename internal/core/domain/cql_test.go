package domain

import (
	"encoding/json"
	"testing"
)

func cqlQueryables() Queryables {
	reg := NewQueryables()
	reg.Add("cloud_cover", TypeNumber)
	reg.Add("platform", TypeString)
	return reg
}

func TestParseCQL_Comparison(t *testing.T) {
	raw := json.RawMessage(`{"op": "<", "args": [{"property": "cloud_cover"}, 20]}`)
	expr, err := ParseCQL(raw, cqlQueryables())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, ok := expr.(*Comparison)
	if !ok {
		t.Fatalf("expected *Comparison, got %T", expr)
	}
	if cmp.Property != "cloud_cover" || cmp.Op != OpLt || cmp.Value.Num != 20 {
		t.Errorf("unexpected comparison: %+v", cmp)
	}
}

func TestParseCQL_FieldOrderInsensitive(t *testing.T) {
	reg := cqlQueryables()
	a := json.RawMessage(`{"op": "=", "args": [{"property": "platform"}, "sentinel-2a"]}`)
	b := json.RawMessage(`{"args": [{"property": "platform"}, "sentinel-2a"], "op": "="}`)

	exprA, errA := ParseCQL(a, reg)
	exprB, errB := ParseCQL(b, reg)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v / %v", errA, errB)
	}
	if exprA.Canonical() != exprB.Canonical() {
		t.Error("expected canonical form to be insensitive to JSON field order")
	}
}

func TestParseCQL_Connectives(t *testing.T) {
	raw := json.RawMessage(`{
		"op": "and",
		"args": [
			{"op": "<", "args": [{"property": "cloud_cover"}, 20]},
			{"op": "not", "args": [
				{"op": "=", "args": [{"property": "platform"}, "sentinel-2b"]}
			]}
		]
	}`)
	expr, err := ParseCQL(raw, cqlQueryables())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := expr.(*And)
	if !ok {
		t.Fatalf("expected *And, got %T", expr)
	}
	if len(and.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(and.Children))
	}
	if _, ok := and.Children[1].(*Not); !ok {
		t.Errorf("expected second child to be *Not, got %T", and.Children[1])
	}
}

func TestParseCQL_In(t *testing.T) {
	raw := json.RawMessage(`{"op": "in", "args": [{"property": "platform"}, ["sentinel-2a", "sentinel-2b"]]}`)
	expr, err := ParseCQL(raw, cqlQueryables())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in, ok := expr.(*InSet)
	if !ok {
		t.Fatalf("expected *InSet, got %T", expr)
	}
	if len(in.Values) != 2 {
		t.Errorf("expected 2 values, got %d", len(in.Values))
	}
}

func TestParseCQL_SpatialBBox(t *testing.T) {
	raw := json.RawMessage(`{"op": "s_intersects", "args": [{"property": "geometry"}, {"bbox": [8, 54, 12, 57]}]}`)
	expr, err := ParseCQL(raw, cqlQueryables())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spatial, ok := expr.(*SpatialIntersects)
	if !ok {
		t.Fatalf("expected *SpatialIntersects, got %T", expr)
	}
	if spatial.Envelope.MinLon != 8 || spatial.Envelope.MaxLat != 57 {
		t.Errorf("unexpected envelope: %+v", spatial.Envelope)
	}
}

func TestParseCQL_SpatialGeoJSON(t *testing.T) {
	raw := json.RawMessage(`{
		"op": "s_intersects",
		"args": [
			{"property": "geometry"},
			{"type": "Polygon", "coordinates": [[[8, 54], [12, 54], [12, 57], [8, 57], [8, 54]]]}
		]
	}`)
	expr, err := ParseCQL(raw, cqlQueryables())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spatial, ok := expr.(*SpatialIntersects)
	if !ok {
		t.Fatalf("expected *SpatialIntersects, got %T", expr)
	}
	env := spatial.Envelope
	if env.MinLon != 8 || env.MinLat != 54 || env.MaxLon != 12 || env.MaxLat != 57 {
		t.Errorf("unexpected envelope of polygon: %+v", env)
	}
}

func TestParseCQL_Temporal(t *testing.T) {
	raw := json.RawMessage(`{
		"op": "t_intersects",
		"args": [{"property": "datetime"}, {"interval": ["2020-01-01T00:00:00Z", "2020-01-31T00:00:00Z"]}]
	}`)
	expr, err := ParseCQL(raw, cqlQueryables())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	temporal, ok := expr.(*TemporalOverlaps)
	if !ok {
		t.Fatalf("expected *TemporalOverlaps, got %T", expr)
	}
	if temporal.Interval.Start == nil || temporal.Interval.End == nil {
		t.Error("expected closed interval")
	}
}

func TestParseCQL_AggregatesErrors(t *testing.T) {
	raw := json.RawMessage(`{
		"op": "and",
		"args": [
			{"op": "<", "args": [{"property": "nope"}, 20]},
			{"op": "=", "args": [{"property": "cloud_cover"}, "not-a-number"]},
			{"op": "like", "args": [{"property": "cloud_cover"}, "20%"]}
		]
	}`)
	_, err := ParseCQL(raw, cqlQueryables())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) != 3 {
		t.Errorf("expected every offending clause reported, got %d: %v", len(err.Fields), err)
	}
}

func TestParseCQL_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{`},
		{"missing op", `{"args": []}`},
		{"unsupported op", `{"op": "between", "args": [{"property": "cloud_cover"}, 1, 2]}`},
		{"geometry equality", `{"op": "=", "args": [{"property": "geometry"}, "x"]}`},
		{"empty in list", `{"op": "in", "args": [{"property": "platform"}, []]}`},
		{"spatial on non-geometry", `{"op": "s_intersects", "args": [{"property": "platform"}, {"bbox": [0, 0, 1, 1]}]}`},
		{"temporal on string", `{"op": "t_intersects", "args": [{"property": "platform"}, {"interval": ["..", "2020-01-01T00:00:00Z"]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCQL(json.RawMessage(tc.raw), cqlQueryables()); err == nil {
				t.Errorf("expected error for %s", tc.raw)
			}
		})
	}
}
