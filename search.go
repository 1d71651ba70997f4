package folio

import (
	"context"
	"fmt"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/query"
	"github.com/folioworks/folio/internal/domain/search/result"
	searchuc "github.com/folioworks/folio/internal/usecase/search"
)

// SearchService executes search queries.
type SearchService struct {
	svc *searchuc.Service
}

// SearchOptions configures one search.
type SearchOptions struct {
	// UserID is the acting user; zero searches as the anonymous actor and
	// sees only unrestricted entities.
	UserID int64
	// Page and Count select the result window. Zero values take the
	// service defaults.
	Page  int
	Count int
	// Types narrows the target entity types when the query string carries
	// no {type:...} filter. Unknown names are dropped.
	Types []string
}

// SearchResult is a single search hit.
type SearchResult struct {
	Type      string
	ID        int64
	Name      string
	Slug      string
	Preview   string
	Score     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchPage is one window of a merged, ranked result set.
type SearchPage struct {
	Results []SearchResult
	// Total counts matches across all target types, after permission
	// filtering and before windowing.
	Total   int
	HasMore bool
}

// Query runs a search string such as `cat "dog" [tag=good] {is_tree}`
// against the index. Parsing fails open: no input is an error.
func (s *SearchService) Query(ctx context.Context, raw string, opts *SearchOptions) (SearchPage, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	q := query.Parse(raw, entity.Resolve(opts.Types))
	page, err := s.svc.Search(ctx, domain.Actor{ID: opts.UserID}, &q, opts.Page, opts.Count)
	if err != nil {
		return SearchPage{}, fmt.Errorf("query: %w", err)
	}
	return SearchPage{
		Results: fromResults(page.Results()),
		Total:   page.Total(),
		HasMore: page.HasMore(),
	}, nil
}

// QueryInBook searches pages and chapters inside one book.
func (s *SearchService) QueryInBook(ctx context.Context, bookID int64, raw string, opts *SearchOptions) ([]SearchResult, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	q := query.Parse(raw, entity.Resolve(opts.Types))
	results, err := s.svc.SearchInBook(ctx, domain.Actor{ID: opts.UserID}, &q, bookID)
	if err != nil {
		return nil, fmt.Errorf("query in book: %w", err)
	}
	return fromResults(results), nil
}

// QueryInChapter searches pages inside one chapter.
func (s *SearchService) QueryInChapter(ctx context.Context, chapterID int64, raw string, opts *SearchOptions) ([]SearchResult, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	q := query.Parse(raw, entity.Resolve(opts.Types))
	results, err := s.svc.SearchInChapter(ctx, domain.Actor{ID: opts.UserID}, &q, chapterID)
	if err != nil {
		return nil, fmt.Errorf("query in chapter: %w", err)
	}
	return fromResults(results), nil
}

func fromResults(results []result.Result) []SearchResult {
	out := make([]SearchResult, len(results))
	for i := range results {
		r := &results[i]
		out[i] = SearchResult{
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
