// Package search builds and executes scored, permission-restricted search
// plans per entity type, and merges the results into one ranked page.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/folioworks/folio/internal/db"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/query"
	"github.com/folioworks/folio/internal/domain/search/result"
	"github.com/folioworks/folio/internal/metrics"
)

// Page size limits for the merged multi-type search.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// scopedLimit caps book- and chapter-scoped searches, which carry no
// pagination state.
const scopedLimit = 20

// Service is the query executor.
type Service struct {
	store   Store
	perms   Permissions
	filters map[string]filterFunc
}

// New creates a query executor. The filter registry is fixed at startup.
func New(store Store, perms Permissions) *Service {
	return &Service{store: store, perms: perms, filters: newFilterRegistry()}
}

// Search runs one plan per resolved target type, merges all hits, sorts
// them by descending score, and returns the requested window. The total
// and has-more flag are computed on the merged set, after cross-type
// reordering, not per type.
func (s *Service) Search(ctx context.Context, actor domain.Actor, q *query.Query, page, count int) (result.Page, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = DefaultPageSize
	}
	if count > MaxPageSize {
		count = MaxPageSize
	}

	var merged []result.Result
	total := 0
	for _, t := range q.Types() {
		d, ok := entity.Lookup(t)
		if !ok {
			continue
		}
		plan := s.buildEntityQuery(q, d, actor, ActionView)

		n, err := s.store.CountPlan(ctx, plan)
		if err != nil {
			return result.Page{}, fmt.Errorf("count %s results: %w", t, err)
		}
		total += n

		// Each type contributes at most the global window's worth of rows.
		plan.Limit(page * count)
		rows, err := s.store.RunPlan(ctx, t, plan)
		if err != nil {
			return result.Page{}, fmt.Errorf("search %s: %w", t, err)
		}
		merged = append(merged, rows...)
	}

	sortResults(merged)

	start := (page - 1) * count
	if start > len(merged) {
		start = len(merged)
	}
	end := start + count
	if end > len(merged) {
		end = len(merged)
	}

	metrics.CountSearch("all")
	return result.NewPage(merged[start:end], total, page, count), nil
}

// SearchInBook searches pages and chapters inside one book. Output is
// capped; there is no pagination state.
func (s *Service) SearchInBook(ctx context.Context, actor domain.Actor, q *query.Query, bookID int64) ([]result.Result, error) {
	metrics.CountSearch("book")
	return s.searchScoped(ctx, actor, q, "book_id", bookID, []entity.Type{entity.Page, entity.Chapter})
}

// SearchInChapter searches pages inside one chapter.
func (s *Service) SearchInChapter(ctx context.Context, actor domain.Actor, q *query.Query, chapterID int64) ([]result.Result, error) {
	metrics.CountSearch("chapter")
	return s.searchScoped(ctx, actor, q, "chapter_id", chapterID, []entity.Type{entity.Page})
}

func (s *Service) searchScoped(
	ctx context.Context, actor domain.Actor, q *query.Query,
	scopeColumn string, scopeID int64, scope []entity.Type,
) ([]result.Result, error) {
	var merged []result.Result
	for _, t := range scope {
		if !typeTargeted(q, t) {
			continue
		}
		d, _ := entity.Lookup(t)
		plan := s.buildEntityQuery(q, d, actor, ActionView)
		plan.Where(plan.Alias()+"."+scopeColumn+" = ?", scopeID)
		plan.Limit(scopedLimit)

		rows, err := s.store.RunPlan(ctx, t, plan)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", t, err)
		}
		merged = append(merged, rows...)
	}

	sortResults(merged)
	if len(merged) > scopedLimit {
		merged = merged[:scopedLimit]
	}
	return merged, nil
}

func typeTargeted(q *query.Query, t entity.Type) bool {
	for _, qt := range q.Types() {
		if qt == t {
			return true
		}
	}
	return false
}

// buildEntityQuery assembles the plan for one entity type: term-score
// aggregation, exact phrases, tag predicates, named filters, and finally
// the permission restriction.
func (s *Service) buildEntityQuery(q *query.Query, d entity.Descriptor, actor domain.Actor, action string) *db.SelectBuilder {
	plan := db.NewSelect(d.Table, "e")
	cols := []string{
		"e.id", "e.name", "e.slug",
		"substr(e." + d.TextField + ", 1, 500) AS preview",
		"e.created_at", "e.updated_at",
	}

	// Plain terms: sum of index scores over prefix matches, inner-joined,
	// so entities with no matching term drop out of this branch entirely.
	if terms := q.Terms(); len(terms) > 0 {
		conds := make([]string, len(terms))
		args := make([]any, 0, len(terms)+1)
		args = append(args, string(d.Type))
		for i, t := range terms {
			conds[i] = `term LIKE ? ESCAPE '\'`
			args = append(args, db.EscapeLike(t)+"%")
		}
		plan.Join(
			"JOIN (SELECT entity_id, SUM(score) AS score FROM search_terms"+
				" WHERE entity_type = ? AND ("+strings.Join(conds, " OR ")+")"+
				" GROUP BY entity_id) st ON st.entity_id = e.id",
			args...,
		)
		cols = append(cols, "st.score AS score")
		plan.OrderBy("st.score DESC")
	} else {
		cols = append(cols, "0.0 AS score")
	}
	plan.Columns(cols...)

	// Every exact phrase is required; each may land in name or body.
	for _, phrase := range q.Exacts() {
		pattern := "%" + db.EscapeLike(phrase) + "%"
		plan.Where(
			`e.name LIKE ? ESCAPE '\' OR e.`+d.TextField+` LIKE ? ESCAPE '\'`,
			pattern, pattern,
		)
	}

	for _, raw := range q.Tags() {
		cond, args := tagCondition(query.ParseTagPredicate(raw), d)
		plan.Where(cond, args...)
	}

	for _, key := range sortedFilterKeys(q.Filters()) {
		if key == query.TypeFilter {
			continue
		}
		fn, ok := s.filters[key]
		if !ok {
			continue
		}
		fn(plan, d, q.Filters()[key], actor)
	}

	// Deterministic tiebreak for equal scores.
	plan.OrderBy("e.updated_at DESC").OrderBy("e.id ASC")

	// Visibility is the final, unconditional restriction.
	s.perms.Restrict(plan, d, action, actor)
	return plan
}

// sqlNumericValue approximates "this tag value is a number" in SQLite: a
// nonzero cast, or a literal zero. Non-numeric values fall through to the
// string comparison branch.
const sqlNumericValue = "(CAST(t.value AS REAL) != 0.0 OR t.value GLOB '0*' OR t.value GLOB '-0*')"

// tagCondition renders a parsed tag predicate as an existence constraint
// against the tag relation.
func tagCondition(pred query.TagPredicate, d entity.Descriptor) (string, []any) {
	cond := "EXISTS (SELECT 1 FROM tags t WHERE t.entity_type = ?" +
		" AND t.entity_id = e.id AND t.name = ?"
	args := []any{string(d.Type), pred.Name()}

	switch {
	case !pred.HasValue():
		// Bare name predicate: any value matches.
	case pred.Operator() == "like":
		cond += ` AND t.value LIKE ? ESCAPE '\'`
		args = append(args, "%"+db.EscapeLike(pred.Value())+"%")
	case pred.IsNumeric():
		op := pred.Operator()
		cond += " AND (CASE WHEN " + sqlNumericValue +
			" THEN CAST(t.value AS REAL) " + op + " ?" +
			" ELSE t.value " + op + " ? END)"
		args = append(args, pred.NumericValue(), pred.Value())
	default:
		cond += " AND t.value " + pred.Operator() + " ?"
		args = append(args, pred.Value())
	}

	return cond + ")", args
}

func sortedFilterKeys(filters map[string]string) []string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortResults orders merged hits by descending score, breaking ties by
// recency and then by type and id so the order is reproducible.
func sortResults(results []result.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		if !a.UpdatedAt().Equal(b.UpdatedAt()) {
			return a.UpdatedAt().After(b.UpdatedAt())
		}
		if a.Ref().Type != b.Ref().Type {
			return a.Ref().Type < b.Ref().Type
		}
		return a.Ref().ID < b.Ref().ID
	})
}
