package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven"
	"github.com/arealis/stac-search-core/internal/core/ports/driving"
	"github.com/arealis/stac-search-core/internal/runtime"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// Config holds search service configuration
type Config struct {
	// TileProxyBase is the base path asset hrefs are rewritten onto.
	// Treated strictly as a string prefix; the core never calls it.
	TileProxyBase string

	// BaseURL is the externally visible API base used for response links
	BaseURL string
}

// searchService drives one search request through validation, compilation,
// execution and materialization.
type searchService struct {
	itemStore driven.ItemStore
	codec     driven.CursorCodec
	summaries *runtime.Summaries
	cfg       Config
	logger    *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(
	itemStore driven.ItemStore,
	codec driven.CursorCodec,
	summaries *runtime.Summaries,
	cfg Config,
	logger *slog.Logger,
) driving.SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		itemStore: itemStore,
		codec:     codec,
		summaries: summaries,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search executes one search request. A database failure surfaces as
// ErrQueryExecution, never as an empty page indistinguishable from "no
// matches".
func (s *searchService) Search(ctx context.Context, params domain.SearchParams) (*domain.FeatureCollection, error) {
	start := time.Now()
	snapshot := s.summaries.Snapshot()

	req, err := domain.ParseSearch(params, snapshot)
	if err != nil {
		return nil, err
	}

	// Cursor checks come first: a token issued under a different search is
	// rejected even when the request would short-circuit to an empty page.
	var seek []domain.Value
	if req.Token != "" {
		seek, err = s.resumePoint(req)
		if err != nil {
			return nil, err
		}
	}

	// Collections that don't exist guarantee zero matches. Not an error:
	// short-circuit with an empty page and skip the database entirely.
	if len(req.Collections) > 0 && len(snapshot.KnownCollections(req.Collections)) == 0 {
		return s.emptyResult(req), nil
	}

	plan := &domain.QueryPlan{
		Filter:     req.Filter,
		Sort:       req.Sort,
		Limit:      req.Limit,
		Seek:       seek,
		Queryables: req.Queryables,
	}

	items, err := s.itemStore.Search(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryExecution, err)
	}

	var matched *int
	if req.WithCount {
		count, err := s.itemStore.Count(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrQueryExecution, err)
		}
		matched = &count
	}

	result, err := s.materialize(items, req)
	if err != nil {
		return nil, err
	}
	result.NumberMatched = matched

	s.logger.Debug("search completed",
		"returned", result.NumberReturned,
		"paged", result.NextToken != "",
		"took", time.Since(start))
	return result, nil
}

// Collections returns all known collections from the current snapshot
func (s *searchService) Collections(ctx context.Context) ([]*domain.Collection, error) {
	snapshot := s.summaries.Snapshot()
	if snapshot == nil {
		return nil, nil
	}
	collections := make([]*domain.Collection, 0, len(snapshot.Collections))
	for _, col := range snapshot.Collections {
		collections = append(collections, col)
	}
	return collections, nil
}

// Queryables returns the typed queryable properties visible to a search
// across the given collections
func (s *searchService) Queryables(ctx context.Context, collections []string) (domain.Queryables, error) {
	return s.summaries.Snapshot().Queryables(collections), nil
}

// resumePoint decodes and validates the pagination token against the current
// request. A cursor issued under a different filter or sort order is
// rejected, never silently reinterpreted.
func (s *searchService) resumePoint(req *domain.SearchRequest) ([]domain.Value, error) {
	cursor, err := s.codec.Decode(req.Token)
	if err != nil {
		return nil, err
	}
	if cursor.Fingerprint != req.Fingerprint {
		return nil, fmt.Errorf("%w: token was issued under a different search", domain.ErrInvalidCursor)
	}
	types := req.Sort.Types(req.Queryables)
	if len(cursor.Keyset) != len(types) {
		return nil, fmt.Errorf("%w: token does not match the sort key", domain.ErrInvalidCursor)
	}
	for i, v := range cursor.Keyset {
		if v.Type != types[i] {
			return nil, fmt.Errorf("%w: token does not match the sort key", domain.ErrInvalidCursor)
		}
	}
	return cursor.Keyset, nil
}

func (s *searchService) emptyResult(req *domain.SearchRequest) *domain.FeatureCollection {
	zero := 0
	fc := &domain.FeatureCollection{
		Type:           "FeatureCollection",
		Features:       []domain.Feature{},
		Links:          s.envelopeLinks(""),
		NumberReturned: 0,
	}
	if req.WithCount {
		fc.NumberMatched = &zero
	}
	return fc
}
