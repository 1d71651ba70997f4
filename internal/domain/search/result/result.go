// Package result holds search hit and result page value objects. Both are
// transient: they live for the duration of one request and are never
// persisted.
package result

import (
	"time"

	"github.com/folioworks/folio/internal/domain/entity"
)

// Result is a single search hit: an entity reference plus the aggregate
// relevance score attached for the duration of one query.
type Result struct {
	ref       entity.Ref
	name      string
	slug      string
	preview   string
	score     float64
	createdAt time.Time
	updatedAt time.Time
}

// New creates a search result.
func New(
	ref entity.Ref, name, slug, preview string,
	score float64, createdAt, updatedAt time.Time,
) Result {
	return Result{
		ref: ref, name: name, slug: slug, preview: preview,
		score: score, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Ref returns the polymorphic entity reference.
func (r *Result) Ref() entity.Ref { return r.ref }

// Name returns the entity display name.
func (r *Result) Name() string { return r.name }

// Slug returns the entity URL slug.
func (r *Result) Slug() string { return r.slug }

// Preview returns a truncated excerpt of the entity body.
func (r *Result) Preview() string { return r.preview }

// Score returns the aggregate relevance score. Zero when the query carried
// no plain terms.
func (r *Result) Score() float64 { return r.score }

// CreatedAt returns the entity creation time.
func (r *Result) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the entity last-update time.
func (r *Result) UpdatedAt() time.Time { return r.updatedAt }

// Page is one window of a merged, ranked multi-type result set.
type Page struct {
	results []Result
	total   int
	page    int
	size    int
}

// NewPage creates a result page. total is the merged match count across all
// target types, computed before windowing.
func NewPage(results []Result, total, page, size int) Page {
	return Page{results: results, total: total, page: page, size: size}
}

// Results returns the hits in this window.
func (p *Page) Results() []Result { return p.results }

// Total returns the merged match count across all target types.
func (p *Page) Total() int { return p.total }

// Count returns the number of hits in this window.
func (p *Page) Count() int { return len(p.results) }

// HasMore reports whether matches exist beyond this window. Computed from
// the global merged total, not per entity type.
func (p *Page) HasMore() bool { return p.page*p.size < p.total }
