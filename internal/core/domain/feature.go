package domain

import "encoding/json"

// STACVersion is the catalog spec version stamped on features
const STACVersion = "1.0.0"

// Link is one entry of a document's links array
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
	Method string `json:"method,omitempty"`
	Body   any    `json:"body,omitempty"`
}

// Feature is one STAC item document as returned to clients
type Feature struct {
	Type        string           `json:"type"`
	StacVersion string           `json:"stac_version"`
	ID          string           `json:"id"`
	Collection  string           `json:"collection"`
	Geometry    json.RawMessage  `json:"geometry"`
	BBox        []float64        `json:"bbox,omitempty"`
	Properties  map[string]any   `json:"properties"`
	Assets      map[string]Asset `json:"assets,omitempty"`
	Links       []Link           `json:"links,omitempty"`
}

// FeatureCollection is the paginated search response envelope
type FeatureCollection struct {
	Type           string    `json:"type"`
	Features       []Feature `json:"features"`
	Links          []Link    `json:"links"`
	NumberMatched  *int      `json:"numberMatched,omitempty"`
	NumberReturned int       `json:"numberReturned"`

	// NextToken is the opaque cursor for the next page, absent when the
	// result set is exhausted. Also surfaced as a "next" link.
	NextToken string `json:"next_token,omitempty"`
}
