package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func testSnapshot() *SummariesSnapshot {
	return &SummariesSnapshot{
		Collections: map[string]*Collection{
			"sentinel-2": {
				ID: "sentinel-2",
				Summaries: map[string]PropertySummary{
					"cloud_cover": {Type: TypeNumber},
					"platform":    {Type: TypeString},
				},
			},
			"landsat-8": {
				ID: "landsat-8",
				Summaries: map[string]PropertySummary{
					"cloud_cover": {Type: TypeNumber},
				},
			},
		},
		RefreshedAt: time.Now(),
	}
}

func TestParseSearch_Defaults(t *testing.T) {
	req, err := ParseSearch(SearchParams{}, testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Filter != nil {
		t.Errorf("expected unfiltered search, got %v", req.Filter)
	}
	if req.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, req.Limit)
	}
	if req.Sort.Canonical() != "datetime:desc,id:asc" {
		t.Errorf("unexpected default sort: %s", req.Sort.Canonical())
	}
	if req.Fingerprint == "" {
		t.Error("expected a fingerprint even for unfiltered searches")
	}
}

func TestParseSearch_Conjunction(t *testing.T) {
	params := SearchParams{
		BBox:        []float64{8, 54, 12, 57},
		Datetime:    "2020-01-01T00:00:00Z/2020-01-31T00:00:00Z",
		Collections: []string{"sentinel-2"},
		IDs:         []string{"item-1", "item-2"},
		Filter:      json.RawMessage(`{"op": "<", "args": [{"property": "cloud_cover"}, 20]}`),
	}
	req, err := ParseSearch(params, testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := req.Filter.(*And)
	if !ok {
		t.Fatalf("expected conjunction of all clauses, got %T", req.Filter)
	}
	if len(and.Children) != 5 {
		t.Errorf("expected 5 conjuncts, got %d", len(and.Children))
	}
}

func TestParseSearch_AntiMeridianBBox(t *testing.T) {
	req, err := ParseSearch(SearchParams{BBox: []float64{170, -10, -170, 10}}, testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	or, ok := req.Filter.(*Or)
	if !ok {
		t.Fatalf("expected split bbox to produce a disjunction, got %T", req.Filter)
	}
	if len(or.Children) != 2 {
		t.Errorf("expected 2 envelope clauses, got %d", len(or.Children))
	}
}

func TestParseSearch_LimitHandling(t *testing.T) {
	snapshot := testSnapshot()

	req, err := ParseSearch(SearchParams{Limit: 5000}, snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, req.Limit)
	}

	if _, err := ParseSearch(SearchParams{Limit: -1}, snapshot); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestParseSearch_AggregatesAcrossParameters(t *testing.T) {
	params := SearchParams{
		BBox:     []float64{1, 2, 3},
		Datetime: "../..",
		SortBy:   "-nope",
	}
	_, err := ParseSearch(params, testSnapshot())
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := make(map[string]bool)
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"bbox", "datetime", "sortby"} {
		if !fields[want] {
			t.Errorf("expected an error for %q, got %v", want, verr.Fields)
		}
	}
}

func TestParseSearch_QueryablesScoped(t *testing.T) {
	// platform is only summarized by sentinel-2; searching across all
	// collections must reject it, scoping to sentinel-2 must accept it.
	filter := json.RawMessage(`{"op": "=", "args": [{"property": "platform"}, "sentinel-2a"]}`)

	if _, err := ParseSearch(SearchParams{Filter: filter}, testSnapshot()); err == nil {
		t.Error("expected error for property not shared by every collection")
	}
	if _, err := ParseSearch(SearchParams{Filter: filter, Collections: []string{"sentinel-2"}}, testSnapshot()); err != nil {
		t.Errorf("unexpected error for scoped search: %v", err)
	}
}

func TestParseSearch_FingerprintStable(t *testing.T) {
	paramsA := SearchParams{Collections: []string{"sentinel-2", "landsat-8"}}
	paramsB := SearchParams{Collections: []string{"landsat-8", "sentinel-2"}}

	reqA, errA := ParseSearch(paramsA, testSnapshot())
	reqB, errB := ParseSearch(paramsB, testSnapshot())
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v / %v", errA, errB)
	}
	if reqA.Fingerprint != reqB.Fingerprint {
		t.Error("expected fingerprint to be insensitive to collection order")
	}
}
