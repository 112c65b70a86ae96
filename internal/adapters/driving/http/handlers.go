package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error  string              `json:"error" example:"invalid search request"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness, checking database and cache connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Search endpoints

// handleSearchGet godoc
// @Summary      Search items
// @Description  STAC item search via query parameters
// @Tags         Search
// @Produce      json
// @Param        bbox         query  string  false  "Bounding box: minLon,minLat,maxLon,maxLat"
// @Param        datetime     query  string  false  "RFC-3339 instant or interval"
// @Param        collections  query  string  false  "Comma-separated collection ids"
// @Param        ids          query  string  false  "Comma-separated item ids"
// @Param        filter       query  string  false  "CQL2-JSON filter expression"
// @Param        sortby       query  string  false  "Sort spec, e.g. -datetime,id"
// @Param        limit        query  int     false  "Page size"
// @Param        token        query  string  false  "Pagination token"
// @Success      200  {object}  domain.FeatureCollection
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /search [get]
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchQuery(r)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	s.runSearch(w, r, params)
}

// handleSearchPost godoc
// @Summary      Search items
// @Description  STAC item search via JSON body
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SearchParams  true  "Search request"
// @Success      200      {object}  domain.FeatureCollection
// @Failure      400      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /search [post]
func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var params domain.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, params)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, params domain.SearchParams) {
	result, err := s.searchService.Search(r.Context(), params)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Collection endpoints

// handleListCollections godoc
// @Summary      List collections
// @Tags         Collections
// @Produce      json
// @Router       /collections [get]
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.searchService.Collections(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list collections")
		return
	}

	type collectionDoc struct {
		ID          string                            `json:"id"`
		Title       string                            `json:"title,omitempty"`
		Description string                            `json:"description,omitempty"`
		Summaries   map[string]domain.PropertySummary `json:"summaries,omitempty"`
	}
	docs := make([]collectionDoc, len(collections))
	for i, col := range collections {
		docs[i] = collectionDoc{
			ID:          col.ID,
			Title:       col.Title,
			Description: col.Description,
			Summaries:   col.Summaries,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": docs})
}

// handleQueryables godoc
// @Summary      List queryable properties
// @Description  Returns a JSON Schema of the properties a filter or sort key may reference
// @Tags         Collections
// @Produce      json
// @Param        collections  query  string  false  "Comma-separated collection ids"
// @Router       /queryables [get]
func (s *Server) handleQueryables(w http.ResponseWriter, r *http.Request) {
	var collections []string
	if raw := r.URL.Query().Get("collections"); raw != "" {
		collections = splitCSV(raw)
	}

	reg, err := s.searchService.Queryables(r.Context(), collections)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list queryables")
		return
	}

	properties := make(map[string]map[string]string)
	for _, name := range reg.Names() {
		t, _ := reg.TypeOf(name)
		properties[name] = queryableSchema(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"$schema":    "https://json-schema.org/draft/2019-09/schema",
		"type":       "object",
		"title":      "Queryables",
		"properties": properties,
	})
}

// queryableSchema maps a declared property type onto its JSON Schema fragment
func queryableSchema(t domain.PropertyType) map[string]string {
	switch t {
	case domain.TypeNumber:
		return map[string]string{"type": "number"}
	case domain.TypeTimestamp:
		return map[string]string{"type": "string", "format": "date-time"}
	case domain.TypeGeometry:
		return map[string]string{"type": "object", "format": "geometry"}
	default:
		return map[string]string{"type": "string"}
	}
}

// parseSearchQuery maps GET query parameters onto the normalized search
// request. Only syntactic conversion happens here; semantic validation is
// the core's job.
func parseSearchQuery(r *http.Request) (domain.SearchParams, error) {
	q := r.URL.Query()
	verr := &domain.ValidationError{}
	params := domain.SearchParams{
		Datetime: q.Get("datetime"),
		SortBy:   q.Get("sortby"),
		Token:    q.Get("token"),
	}

	if raw := q.Get("bbox"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				verr.Addf("bbox", "malformed number %q", part)
				continue
			}
			params.BBox = append(params.BBox, f)
		}
	}
	if raw := q.Get("collections"); raw != "" {
		params.Collections = splitCSV(raw)
	}
	if raw := q.Get("ids"); raw != "" {
		params.IDs = splitCSV(raw)
	}
	if raw := q.Get("filter"); raw != "" {
		params.Filter = json.RawMessage(raw)
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Addf("limit", "malformed number %q", raw)
		} else {
			params.Limit = n
		}
	}
	if raw := q.Get("count"); raw != "" {
		params.WithCount = raw == "true" || raw == "1"
	}

	if verr.HasErrors() {
		return domain.SearchParams{}, verr
	}
	return params, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeSearchError maps the domain error taxonomy onto HTTP statuses
func writeSearchError(w http.ResponseWriter, err error) {
	if ve, ok := domain.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid search request",
			Fields: ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "invalid pagination token")
	case errors.Is(err, domain.ErrQueryExecution):
		writeError(w, http.StatusServiceUnavailable, "search temporarily unavailable")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "search failed")
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
