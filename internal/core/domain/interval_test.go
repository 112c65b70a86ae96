package domain

import (
	"testing"
	"time"
)

func TestParseDatetime_Instant(t *testing.T) {
	iv, err := ParseDatetime("2020-06-15T12:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Start == nil || iv.End == nil {
		t.Fatal("expected degenerate closed interval")
	}
	if !iv.Start.Equal(*iv.End) {
		t.Errorf("expected start == end, got %v / %v", iv.Start, iv.End)
	}
	if !iv.Contains(*iv.Start) {
		t.Error("expected instant to contain itself")
	}
}

func TestParseDatetime_ClosedInterval(t *testing.T) {
	iv, err := ParseDatetime("2020-01-01T00:00:00Z/2020-01-03T00:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Closed ends are inclusive on both sides
	end := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	if !iv.Contains(end) {
		t.Error("expected interval to include its end instant")
	}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !iv.Contains(start) {
		t.Error("expected interval to include its start instant")
	}
	if iv.Contains(end.Add(time.Second)) {
		t.Error("expected instant after the end to be excluded")
	}
}

func TestParseDatetime_OpenSides(t *testing.T) {
	iv, err := ParseDatetime("../2020-01-03T00:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.Start != nil {
		t.Error("expected unbounded start")
	}
	if !iv.Contains(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected open start to contain arbitrarily old instants")
	}

	iv, err = ParseDatetime("2020-01-01T00:00:00Z/..")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.End != nil {
		t.Error("expected unbounded end")
	}
}

func TestParseDatetime_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"both sides open", "../.."},
		{"malformed instant", "not-a-date"},
		{"malformed interval start", "nope/2020-01-03T00:00:00Z"},
		{"end before start", "2020-01-03T00:00:00Z/2020-01-01T00:00:00Z"},
		{"too many parts", "2020-01-01T00:00:00Z/2020-01-02T00:00:00Z/2020-01-03T00:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDatetime(tc.raw); err == nil {
				t.Errorf("expected error for %q", tc.raw)
			}
		})
	}
}

func TestIntervalCanonical(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	iv := Interval{Start: &start}
	if got := iv.Canonical(); got != "2020-01-01T00:00:00Z/.." {
		t.Errorf("unexpected canonical form: %q", got)
	}
}
