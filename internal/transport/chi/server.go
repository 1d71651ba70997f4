// Package chi exposes the search subsystem over HTTP: free-text and
// structured search, book/chapter-scoped search, and the reindex trigger.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/query"
	"github.com/folioworks/folio/internal/domain/search/result"
	"github.com/folioworks/folio/internal/logger"
	"github.com/folioworks/folio/internal/repository/cache"
	"github.com/folioworks/folio/internal/usecase/health"
)

// Searcher is the query executor consumed by the transport.
type Searcher interface {
	Search(ctx context.Context, actor domain.Actor, q *query.Query, page, count int) (result.Page, error)
	SearchInBook(ctx context.Context, actor domain.Actor, q *query.Query, bookID int64) ([]result.Result, error)
	SearchInChapter(ctx context.Context, actor domain.Actor, q *query.Query, chapterID int64) ([]result.Result, error)
}

// Indexer triggers index rebuilds.
type Indexer interface {
	IndexAll(ctx context.Context) error
}

// HealthChecker aggregates component health checks.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server wires the search endpoints onto a chi router.
type Server struct {
	search   Searcher
	indexer  Indexer
	health   HealthChecker
	cache    cache.Cache
	cacheTTL time.Duration
	pageSize int
	maxPage  int
	logger   *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(
	search Searcher, indexer Indexer, healthChecker HealthChecker,
	c cache.Cache, cacheTTL time.Duration,
	pages config.SearchConfig, log *zap.Logger,
) *Server {
	return &Server{
		search:   search,
		indexer:  indexer,
		health:   healthChecker,
		cache:    c,
		cacheTTL: cacheTTL,
		pageSize: pages.DefaultPageSize,
		maxPage:  pages.MaxPageSize,
		logger:   log,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/search", func(r chi.Router) {
		r.Get("/", s.handleSearch)
		r.Get("/books/{id}", s.handleSearchInBook)
		r.Get("/chapters/{id}", s.handleSearchInChapter)
		r.Post("/reindex", s.handleReindex)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// handleSearch serves the merged multi-type search. It accepts either a
// free-text "term" string or the structured form fields ("search", "types",
// "exact", "tags", "filters[...]"); the term form wins when both appear.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := domain.ActorFromContext(ctx)
	q := queryFromRequest(r)

	page := intQueryParam(r, "page", 1)
	count := intQueryParam(r, "count", s.pageSize)
	if count > s.maxPage {
		count = s.maxPage
	}

	key := searchCacheKey(actor, q, page, count)
	if body, ok := s.cache.Get(ctx, key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	pageResult, err := s.search.Search(ctx, actor, q, page, count)
	if err != nil {
		s.handleError(ctx, w, err, "search failed")
		return
	}

	resp := searchResponse{
		Results: resultsToJSON(pageResult.Results()),
		Total:   pageResult.Total(),
		Count:   pageResult.Count(),
		HasMore: pageResult.HasMore(),
	}
	body, err := json.Marshal(resp)
	if err != nil {
		s.handleError(ctx, w, err, "encode response")
		return
	}

	s.cache.Set(ctx, key, body, s.cacheTTL)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleSearchInBook(w http.ResponseWriter, r *http.Request) {
	s.handleScoped(w, r, s.search.SearchInBook)
}

func (s *Server) handleSearchInChapter(w http.ResponseWriter, r *http.Request) {
	s.handleScoped(w, r, s.search.SearchInChapter)
}

type scopedSearch func(ctx context.Context, actor domain.Actor, q *query.Query, id int64) ([]result.Result, error)

func (s *Server) handleScoped(w http.ResponseWriter, r *http.Request, search scopedSearch) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	results, err := search(ctx, domain.ActorFromContext(ctx), queryFromRequest(r), id)
	if err != nil {
		s.handleError(ctx, w, err, "scoped search failed")
		return
	}

	writeJSON(w, http.StatusOK, scopedResponse{
		Results: resultsToJSON(results),
		Count:   len(results),
	})
}

// handleReindex triggers a full rebuild. Fast rebuilds answer 200 inline;
// anything longer detaches and answers 202. A rebuild already in flight
// answers 409.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "admin token required")
		return
	}

	errCh := make(chan error, 1)
	go func() {
		ctx := logger.ContextWithLogger(context.Background(), s.logger)
		err := s.indexer.IndexAll(ctx)
		if err != nil && !errors.Is(err, domain.ErrReindexRunning) {
			s.logger.Error("reindex failed", zap.Error(err))
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		switch {
		case errors.Is(err, domain.ErrReindexRunning):
			writeError(w, http.StatusConflict, "reindex already running")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "reindex failed")
		default:
			writeJSON(w, http.StatusOK, map[string]string{"status": "done"})
		}
	case <-time.After(100 * time.Millisecond):
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

func (s *Server) handleError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	logger.FromContext(ctx).Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

// queryFromRequest builds the structured query from either form. Parsing
// fails open, so there is no error path here.
func queryFromRequest(r *http.Request) *query.Query {
	params := r.URL.Query()

	if term := params.Get("term"); term != "" {
		q := query.Parse(term, nil)
		return &q
	}

	filters := map[string]string{}
	for key, values := range params {
		if !strings.HasPrefix(key, "filters[") || !strings.HasSuffix(key, "]") {
			continue
		}
		name := key[len("filters[") : len(key)-1]
		if name == "" || len(values) == 0 {
			continue
		}
		filters[name] = values[0]
	}

	var typeTokens []string
	for _, v := range params["types"] {
		typeTokens = append(typeTokens, strings.Split(v, ",")...)
	}

	q := query.New(
		strings.Fields(params.Get("search")),
		params["exact"],
		params["tags"],
		filters,
		typeTokens,
	)
	return &q
}

// searchCacheKey canonicalizes one search for the response cache. The
// serialized query normalizes clause order, so equivalent query strings
// share an entry.
func searchCacheKey(actor domain.Actor, q *query.Query, page, count int) string {
	types := make([]string, len(q.Types()))
	for i, t := range q.Types() {
		types[i] = string(t)
	}
	return "folio:search:" + strconv.FormatInt(actor.ID, 10) +
		":" + strconv.Itoa(page) + ":" + strconv.Itoa(count) +
		":" + strings.Join(types, "|") + ":" + q.String()
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

type resultJSON struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Preview   string    `json:"preview"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type searchResponse struct {
	Results []resultJSON `json:"results"`
	Total   int          `json:"total"`
	Count   int          `json:"count"`
	HasMore bool         `json:"has_more"`
}

type scopedResponse struct {
	Results []resultJSON `json:"results"`
	Count   int          `json:"count"`
}

type healthResponse struct {
	Status string                        `json:"status"`
	Checks map[string]health.CheckResult `json:"checks"`
}

func resultsToJSON(results []result.Result) []resultJSON {
	out := make([]resultJSON, len(results))
	for i := range results {
		r := &results[i]
		out[i] = resultJSON{
			Type:      string(r.Ref().Type),
			ID:        r.Ref().ID,
			Name:      r.Name(),
			Slug:      r.Slug(),
			Preview:   r.Preview(),
			Score:     r.Score(),
			CreatedAt: r.CreatedAt(),
			UpdatedAt: r.UpdatedAt(),
		}
	}
	return out
}
