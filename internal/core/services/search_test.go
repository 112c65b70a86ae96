package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven/mocks"
	"github.com/arealis/stac-search-core/internal/runtime"
)

type fixture struct {
	service   *searchService
	itemStore *mocks.MockItemStore
}

func newFixture(t *testing.T, collections ...*domain.Collection) *fixture {
	t.Helper()
	if len(collections) == 0 {
		collections = []*domain.Collection{
			{ID: "sentinel-2", Summaries: map[string]domain.PropertySummary{
				"cloud_cover": {Type: domain.TypeNumber},
				"label":       {Type: domain.TypeString},
			}},
		}
	}

	summaries := runtime.NewSummaries(mocks.NewMockCollectionStore(collections...), nil)
	if err := summaries.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	itemStore := mocks.NewMockItemStore()
	svc := NewSearchService(itemStore, mocks.NewMockCursorCodec(), summaries, Config{
		TileProxyBase: "/tiles",
		BaseURL:       "https://api.example.com",
	}, slog.Default())

	return &fixture{service: svc.(*searchService), itemStore: itemStore}
}

func testItem(id string, day int) *domain.Item {
	return &domain.Item{
		ID:         id,
		Collection: "sentinel-2",
		BBox:       []float64{8, 54, 12, 57},
		Datetime:   time.Date(2020, 1, day, 0, 0, 0, 0, time.UTC),
		Properties: map[string]any{"cloud_cover": float64(day)},
		Assets: map[string]domain.Asset{
			"visual": {Href: "scenes/" + id + "/visual.tif", Type: "image/tiff"},
		},
	}
}

func TestSearch_PagesThroughResults(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2), testItem("item-3", 3))

	// Default sort is datetime desc: first page holds the two newest
	page1, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page1.NumberReturned != 2 {
		t.Fatalf("expected 2 features, got %d", page1.NumberReturned)
	}
	if page1.Features[0].ID != "item-3" || page1.Features[1].ID != "item-2" {
		t.Errorf("unexpected page order: %s, %s", page1.Features[0].ID, page1.Features[1].ID)
	}
	if page1.NextToken == "" {
		t.Fatal("expected a next token on a partial page")
	}

	page2, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 2, Token: page1.NextToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page2.NumberReturned != 1 || page2.Features[0].ID != "item-1" {
		t.Fatalf("unexpected second page: %+v", page2.Features)
	}
	if page2.NextToken != "" {
		t.Error("expected no token on the final page")
	}
}

func TestSearch_AscendingSortWithInterval(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("a", 1), testItem("b", 2), testItem("c", 3))

	params := domain.SearchParams{
		Datetime: "2020-01-01T00:00:00Z/2020-01-03T00:00:00Z",
		SortBy:   "datetime",
		Limit:    2,
	}
	page1, err := f.service.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page1.NumberReturned != 2 || page1.Features[0].ID != "a" || page1.Features[1].ID != "b" {
		t.Fatalf("unexpected first page: %+v", page1.Features)
	}
	if page1.NextToken == "" {
		t.Fatal("expected a next token")
	}

	params.Token = page1.NextToken
	page2, err := f.service.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page2.NumberReturned != 1 || page2.Features[0].ID != "c" {
		t.Fatalf("unexpected second page: %+v", page2.Features)
	}
	if page2.NextToken != "" {
		t.Error("expected no token on the final page")
	}
}

func TestSearch_ExactPageBoundary(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2))

	// Matches exactly fill the page: no next token
	result, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumberReturned != 2 {
		t.Fatalf("expected 2 features, got %d", result.NumberReturned)
	}
	if result.NextToken != "" {
		t.Error("expected no token when matches exactly fill the page")
	}
}

func TestSearch_PaginationCompleteness(t *testing.T) {
	f := newFixture(t)
	total := 25
	for i := 1; i <= total; i++ {
		item := testItem(fmt.Sprintf("item-%02d", i), 1)
		item.Datetime = time.Date(2020, 1, 1, i, 0, 0, 0, time.UTC)
		f.itemStore.Add(item)
	}

	seen := make(map[string]int)
	token := ""
	pages := 0
	for {
		result, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 10, Token: token})
		if err != nil {
			t.Fatalf("page %d failed: %v", pages, err)
		}
		for _, feat := range result.Features {
			seen[feat.ID]++
		}
		pages++
		if result.NextToken == "" {
			break
		}
		token = result.NextToken
	}

	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	if len(seen) != total {
		t.Errorf("expected every item exactly once, saw %d distinct", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %s seen %d times", id, n)
		}
	}
}

func TestSearch_UnknownCollectionIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1))
	// Prove the short-circuit: the store would fail if reached
	f.itemStore.SearchErr = errors.New("database is down")

	result, err := f.service.Search(context.Background(), domain.SearchParams{
		Collections: []string{"no-such-collection"},
		WithCount:   true,
	})
	if err != nil {
		t.Fatalf("expected soft-empty result, got %v", err)
	}
	if result.NumberReturned != 0 || len(result.Features) != 0 {
		t.Errorf("expected empty page, got %+v", result)
	}
	if result.NumberMatched == nil || *result.NumberMatched != 0 {
		t.Error("expected numberMatched 0 with count requested")
	}
	if result.NextToken != "" {
		t.Error("expected no token on an empty result")
	}
}

func TestSearch_MixedCollectionsStillQueried(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1))

	result, err := f.service.Search(context.Background(), domain.SearchParams{
		Collections: []string{"sentinel-2", "no-such-collection"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumberReturned != 1 {
		t.Errorf("expected known collection to still match, got %d features", result.NumberReturned)
	}
}

func TestSearch_CursorBoundToFilter(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2), testItem("item-3", 3))

	page, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Replaying the token under a different filter must be rejected
	_, err = f.service.Search(context.Background(), domain.SearchParams{
		Limit:       2,
		Token:       page.NextToken,
		Collections: []string{"sentinel-2"},
	})
	if !errors.Is(err, domain.ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}

	// A different sort order is a different search too
	_, err = f.service.Search(context.Background(), domain.SearchParams{
		Limit:  2,
		Token:  page.NextToken,
		SortBy: "datetime",
	})
	if !errors.Is(err, domain.ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor for changed sort, got %v", err)
	}
}

func TestSearch_CursorRejectedBeforeShortCircuit(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2), testItem("item-3", 3))

	page, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Unknown collections would short-circuit to an empty page, but a token
	// from a different search must still be rejected, not swallowed
	_, err = f.service.Search(context.Background(), domain.SearchParams{
		Limit:       2,
		Token:       page.NextToken,
		Collections: []string{"no-such-collection"},
	})
	if !errors.Is(err, domain.ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestSearch_MalformedToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Search(context.Background(), domain.SearchParams{Token: "!!not-a-token!!"})
	if !errors.Is(err, domain.ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestSearch_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.itemStore.SearchErr = errors.New("connection refused")

	_, err := f.service.Search(context.Background(), domain.SearchParams{})
	if !errors.Is(err, domain.ErrQueryExecution) {
		t.Errorf("expected ErrQueryExecution, got %v", err)
	}
}

func TestSearch_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Search(context.Background(), domain.SearchParams{BBox: []float64{1, 2, 3}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, ok := domain.AsValidationError(err); !ok {
		t.Errorf("expected ValidationError, got %T", err)
	}
}

func TestSearch_WithCount(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2), testItem("item-3", 3))

	result, err := f.service.Search(context.Background(), domain.SearchParams{Limit: 2, WithCount: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumberMatched == nil || *result.NumberMatched != 3 {
		t.Errorf("expected numberMatched 3, got %v", result.NumberMatched)
	}
	if result.NumberReturned != 2 {
		t.Errorf("expected numberReturned 2, got %d", result.NumberReturned)
	}

	// Count is off the hot path unless requested
	result, err = f.service.Search(context.Background(), domain.SearchParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumberMatched != nil {
		t.Error("expected no numberMatched without count requested")
	}
}

func TestSearch_FilterNarrowsResults(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2), testItem("item-3", 3))

	result, err := f.service.Search(context.Background(), domain.SearchParams{
		Filter: []byte(`{"op": "<=", "args": [{"property": "cloud_cover"}, 2]}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumberReturned != 2 {
		t.Errorf("expected 2 matches, got %d", result.NumberReturned)
	}
}

func TestSearch_DatetimeEndInclusive(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1), testItem("item-2", 2), testItem("item-3", 3))

	result, err := f.service.Search(context.Background(), domain.SearchParams{
		Datetime: "2020-01-01T00:00:00Z/2020-01-03T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// item-3 sits exactly on the interval end and must be included
	if result.NumberReturned != 3 {
		t.Errorf("expected 3 matches, got %d", result.NumberReturned)
	}
}

func TestSearch_RewritesAssetHrefs(t *testing.T) {
	f := newFixture(t)
	item := testItem("item-1", 1)
	item.Assets["external"] = domain.Asset{Href: "https://elsewhere.example.com/raw.tif"}
	f.itemStore.Add(item)

	result, err := f.service.Search(context.Background(), domain.SearchParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feature := result.Features[0]
	if got := feature.Assets["visual"].Href; got != "/tiles/scenes/item-1/visual.tif" {
		t.Errorf("expected relative href rewritten onto the tile proxy, got %q", got)
	}
	if got := feature.Assets["external"].Href; got != "https://elsewhere.example.com/raw.tif" {
		t.Errorf("expected absolute href untouched, got %q", got)
	}
}

func TestSearch_FeatureShape(t *testing.T) {
	f := newFixture(t)
	f.itemStore.Add(testItem("item-1", 1))

	result, err := f.service.Search(context.Background(), domain.SearchParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feature := result.Features[0]
	if feature.Type != "Feature" || feature.StacVersion != domain.STACVersion {
		t.Errorf("unexpected feature envelope: %+v", feature)
	}
	if feature.Properties["datetime"] != "2020-01-01T00:00:00Z" {
		t.Errorf("unexpected datetime property: %v", feature.Properties["datetime"])
	}
	var self, collection bool
	for _, link := range feature.Links {
		switch link.Rel {
		case "self":
			self = link.Href == "https://api.example.com/collections/sentinel-2/items/item-1"
		case "collection":
			collection = link.Href == "https://api.example.com/collections/sentinel-2"
		}
	}
	if !self || !collection {
		t.Errorf("unexpected feature links: %+v", feature.Links)
	}
}

func TestSearch_StringPropertyComparesAsText(t *testing.T) {
	f := newFixture(t)
	item := testItem("item-1", 1)
	// Timestamp-shaped text in a string property stays text, as in the
	// database's JSONB comparison
	item.Properties["label"] = "2020-01-01T00:00:00Z"
	f.itemStore.Add(item)

	result, err := f.service.Search(context.Background(), domain.SearchParams{
		Filter: []byte(`{"op": "=", "args": [{"property": "label"}, "2020-01-01T00:00:00Z"]}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NumberReturned != 1 {
		t.Errorf("expected the string equality to match, got %d features", result.NumberReturned)
	}
}

func TestQueryables(t *testing.T) {
	f := newFixture(t)

	reg, err := f.service.Queryables(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := reg.TypeOf("cloud_cover"); got != domain.TypeNumber {
		t.Errorf("expected cloud_cover to be a number, got %q", got)
	}
	if got, _ := reg.TypeOf("datetime"); got != domain.TypeTimestamp {
		t.Errorf("expected datetime to be a timestamp, got %q", got)
	}

	// Unknown collections contribute nothing; only the base queryables remain
	reg, err = f.service.Queryables(context.Background(), []string{"no-such-collection"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.TypeOf("cloud_cover"); ok {
		t.Error("expected no extension queryables for unknown collections")
	}
}

func TestCollections(t *testing.T) {
	f := newFixture(t,
		&domain.Collection{ID: "a"},
		&domain.Collection{ID: "b"},
	)
	collections, err := f.service.Collections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collections) != 2 {
		t.Errorf("expected 2 collections, got %d", len(collections))
	}
}
