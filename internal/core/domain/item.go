package domain

import (
	"encoding/json"
	"time"
)

// Asset is one downloadable or renderable representation of an item.
// Hrefs are stored host-independent; the materializer rewrites them onto the
// configured tile-proxy base path.
type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Item is one catalog entry. Immutable once published; the search core only
// ever reads items.
type Item struct {
	ID         string
	Collection string

	// Geometry is the stored GeoJSON geometry, EPSG:4326
	Geometry json.RawMessage

	// BBox is the envelope of Geometry: [minLon, minLat, maxLon, maxLat]
	BBox []float64

	// Datetime is the acquisition timestamp
	Datetime time.Time

	// Properties holds extension properties (key -> scalar)
	Properties map[string]any

	// Assets maps role name to asset
	Assets map[string]Asset
}

// PropertyValue resolves a queryable name against the item.
// The base queryables id, collection and datetime map to dedicated fields;
// extension properties are read from the document and coerced to their
// declared type, never inferred from their spelling.
func (i *Item) PropertyValue(name string, declared PropertyType) (Value, bool) {
	switch name {
	case "id":
		return StringValue(i.ID), true
	case "collection":
		return StringValue(i.Collection), true
	case "datetime":
		return TimeValue(i.Datetime), true
	}
	raw, ok := i.Properties[name]
	if !ok {
		return Value{}, false
	}
	v, err := ValueAs(raw, declared)
	if err != nil {
		return Value{}, false
	}
	return v, true
}

// Envelope returns the item's bounding envelope
func (i *Item) Envelope() Envelope {
	if len(i.BBox) < 4 {
		return Envelope{}
	}
	return Envelope{MinLon: i.BBox[0], MinLat: i.BBox[1], MaxLon: i.BBox[2], MaxLat: i.BBox[3]}
}
