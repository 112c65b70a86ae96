package domain

import (
	"strconv"
	"strings"
)

// Envelope is an axis-aligned bounding box in EPSG:4326.
type Envelope struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Canonical renders the envelope for fingerprinting
func (e Envelope) Canonical() string {
	parts := []string{
		strconv.FormatFloat(e.MinLon, 'g', -1, 64),
		strconv.FormatFloat(e.MinLat, 'g', -1, 64),
		strconv.FormatFloat(e.MaxLon, 'g', -1, 64),
		strconv.FormatFloat(e.MaxLat, 'g', -1, 64),
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Intersects reports whether two envelopes share any point
func (e Envelope) Intersects(other Envelope) bool {
	return e.MinLon <= other.MaxLon && e.MaxLon >= other.MinLon &&
		e.MinLat <= other.MaxLat && e.MaxLat >= other.MinLat
}

// ParseBBox validates a bbox request parameter and returns its envelopes.
// Accepts 4 (2D) or 6 (3D) numbers; the elevation pair of a 3D bbox is
// validated and discarded. A box crossing the anti-meridian (minLon > maxLon)
// is split into two disjoint envelopes, one on each side, which the caller
// joins with OR.
func ParseBBox(bbox []float64) ([]Envelope, *ValidationError) {
	verr := &ValidationError{}

	var minLon, minLat, maxLon, maxLat float64
	switch len(bbox) {
	case 4:
		minLon, minLat, maxLon, maxLat = bbox[0], bbox[1], bbox[2], bbox[3]
	case 6:
		minLon, minLat, maxLon, maxLat = bbox[0], bbox[1], bbox[3], bbox[4]
		if bbox[5] < bbox[2] {
			verr.Add("bbox", "maximum elevation must be greater than minimum elevation")
		}
	default:
		verr.Addf("bbox", "expected 4 or 6 numbers, got %d", len(bbox))
		return nil, verr
	}

	if minLat > maxLat {
		verr.Add("bbox", "maximum latitude must be greater than minimum latitude")
	}
	if minLat < -90 || maxLat > 90 {
		verr.Add("bbox", "latitude must be within [-90, 90]")
	}
	if minLon < -180 || minLon > 180 || maxLon < -180 || maxLon > 180 {
		verr.Add("bbox", "longitude must be within [-180, 180]")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	// minLon > maxLon means the box crosses the anti-meridian
	if minLon > maxLon {
		return []Envelope{
			{MinLon: minLon, MinLat: minLat, MaxLon: 180, MaxLat: maxLat},
			{MinLon: -180, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat},
		}, nil
	}

	return []Envelope{{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}}, nil
}
