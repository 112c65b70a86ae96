package domain

import (
	"strings"
	"time"
)

// Interval is a temporal interval. A nil side is unbounded.
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// Canonical renders the interval for fingerprinting
func (iv Interval) Canonical() string {
	start, end := "..", ".."
	if iv.Start != nil {
		start = iv.Start.UTC().Format(time.RFC3339Nano)
	}
	if iv.End != nil {
		end = iv.End.UTC().Format(time.RFC3339Nano)
	}
	return start + "/" + end
}

// Contains reports whether the instant falls inside the interval.
// Closed ends are inclusive.
func (iv Interval) Contains(t time.Time) bool {
	if iv.Start != nil && t.Before(*iv.Start) {
		return false
	}
	if iv.End != nil && t.After(*iv.End) {
		return false
	}
	return true
}

// ParseDatetime parses the datetime request parameter: a single RFC-3339
// instant, or an interval "start/end" where either side may be ".." for
// unbounded. "../.." and malformed timestamps are validation errors.
// A single instant becomes the degenerate closed interval [t, t].
func ParseDatetime(raw string) (Interval, *ValidationError) {
	verr := &ValidationError{}

	parts := strings.Split(raw, "/")
	switch len(parts) {
	case 1:
		t, err := parseRFC3339(parts[0])
		if err != nil {
			verr.Addf("datetime", "malformed timestamp %q", parts[0])
			return Interval{}, verr
		}
		return Interval{Start: &t, End: &t}, nil
	case 2:
		if parts[0] == ".." && parts[1] == ".." {
			verr.Add("datetime", "interval may not be open on both sides")
			return Interval{}, verr
		}
		var iv Interval
		if parts[0] != ".." {
			t, err := parseRFC3339(parts[0])
			if err != nil {
				verr.Addf("datetime", "malformed interval start %q", parts[0])
			} else {
				iv.Start = &t
			}
		}
		if parts[1] != ".." {
			t, err := parseRFC3339(parts[1])
			if err != nil {
				verr.Addf("datetime", "malformed interval end %q", parts[1])
			} else {
				iv.End = &t
			}
		}
		if verr.HasErrors() {
			return Interval{}, verr
		}
		if iv.Start != nil && iv.End != nil && iv.End.Before(*iv.Start) {
			verr.Add("datetime", "interval end must not precede interval start")
			return Interval{}, verr
		}
		return iv, nil
	default:
		verr.Addf("datetime", "expected instant or interval, got %q", raw)
		return Interval{}, verr
	}
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
