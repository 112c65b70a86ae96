package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// materialize maps the fetched rows into the feature collection envelope.
// Stores fetch limit+1 rows; the overflow row, when present, is dropped from
// the page and proves that a next cursor must be issued.
func (s *searchService) materialize(items []*domain.Item, req *domain.SearchRequest) (*domain.FeatureCollection, error) {
	hasMore := len(items) > req.Limit
	if hasMore {
		items = items[:req.Limit]
	}

	features := make([]domain.Feature, len(items))
	for i, item := range items {
		features[i] = s.itemToFeature(item)
	}

	var nextToken string
	if hasMore {
		last := items[len(items)-1]
		token, err := s.codec.Encode(&domain.Cursor{
			Keyset:      req.Sort.ValuesOf(last, req.Queryables),
			Fingerprint: req.Fingerprint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode pagination token: %w", err)
		}
		nextToken = token
	}

	return &domain.FeatureCollection{
		Type:           "FeatureCollection",
		Features:       features,
		Links:          s.envelopeLinks(nextToken),
		NumberReturned: len(features),
		NextToken:      nextToken,
	}, nil
}

// itemToFeature maps one row into a STAC item document. Asset hrefs are
// rewritten onto the tile-proxy base path here, at materialization time, so
// stored data stays host-independent.
func (s *searchService) itemToFeature(item *domain.Item) domain.Feature {
	properties := make(map[string]any, len(item.Properties)+1)
	for k, v := range item.Properties {
		properties[k] = v
	}
	properties["datetime"] = item.Datetime.UTC().Format(time.RFC3339)

	assets := make(map[string]domain.Asset, len(item.Assets))
	for role, asset := range item.Assets {
		asset.Href = s.rewriteHref(asset.Href)
		assets[role] = asset
	}

	links := []domain.Link{
		{
			Rel:  "self",
			Href: fmt.Sprintf("%s/collections/%s/items/%s", s.cfg.BaseURL, item.Collection, item.ID),
			Type: "application/geo+json",
		},
		{
			Rel:  "collection",
			Href: fmt.Sprintf("%s/collections/%s", s.cfg.BaseURL, item.Collection),
			Type: "application/json",
		},
	}

	return domain.Feature{
		Type:        "Feature",
		StacVersion: domain.STACVersion,
		ID:          item.ID,
		Collection:  item.Collection,
		Geometry:    item.Geometry,
		BBox:        item.BBox,
		Properties:  properties,
		Assets:      assets,
		Links:       links,
	}
}

// rewriteHref prefixes relative asset hrefs with the tile-proxy base path.
// Absolute URLs pass through untouched.
func (s *searchService) rewriteHref(href string) string {
	if s.cfg.TileProxyBase == "" {
		return href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(s.cfg.TileProxyBase, "/") + "/" + strings.TrimPrefix(href, "/")
}

// envelopeLinks builds the feature collection's links array
func (s *searchService) envelopeLinks(nextToken string) []domain.Link {
	links := []domain.Link{
		{
			Rel:  "self",
			Href: s.cfg.BaseURL + "/search",
			Type: "application/geo+json",
		},
	}
	if nextToken != "" {
		links = append(links, domain.Link{
			Rel:  "next",
			Href: s.cfg.BaseURL + "/search?token=" + nextToken,
			Type: "application/geo+json",
		})
	}
	return links
}
