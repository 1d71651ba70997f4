package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/query"
	indexuc "github.com/folioworks/folio/internal/usecase/index"
	searchuc "github.com/folioworks/folio/internal/usecase/search"
)

type fixture struct {
	store    *Store
	search   *searchuc.Service
	indexer  *indexuc.Service
	bookID   int64
	chapter  int64
	pageID   int64
	secretID int64
}

// newFixture seeds a small wiki and rebuilds the term index over it:
// an unrestricted book, a chapter and a page inside it, and a restricted
// page owned by user 2.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := newTestStore(t)

	f := &fixture{
		store:   s,
		search:  searchuc.New(s, NewPermissionFilter()),
		indexer: indexuc.New(s),
	}

	book, _ := entity.Lookup(entity.Book)
	chapter, _ := entity.Lookup(entity.Chapter)
	page, _ := entity.Lookup(entity.Page)

	var err error
	row := testRow("Cats", "reference shelf")
	row.CreatedBy = 1
	if f.bookID, err = s.SaveEntity(ctx, book, row); err != nil {
		t.Fatalf("seed book: %v", err)
	}

	row = testRow("cat chapter", "")
	row.BookID = f.bookID
	if f.chapter, err = s.SaveEntity(ctx, chapter, row); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}

	row = testRow("cat care", "cats need care")
	row.CreatedBy = 2
	row.BookID = f.bookID
	row.ChapterID = f.chapter
	if f.pageID, err = s.SaveEntity(ctx, page, row); err != nil {
		t.Fatalf("seed page: %v", err)
	}

	row = testRow("cat secrets", "hidden")
	row.Restricted = true
	row.OwnedBy = 2
	if f.secretID, err = s.SaveEntity(ctx, page, row); err != nil {
		t.Fatalf("seed restricted page: %v", err)
	}

	if err := f.indexer.IndexAll(ctx); err != nil {
		t.Fatalf("rebuild index: %v", err)
	}
	return f
}

func TestEndToEnd_TermSearchRanking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := query.Parse("cat", nil)
	page, err := f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// The restricted page is invisible to the anonymous actor. Name
	// weighting and search factors rank book over chapter over page.
	results := page.Results()
	if page.Total() != 3 || len(results) != 3 {
		t.Fatalf("total = %d, results = %d, want 3", page.Total(), len(results))
	}
	wantOrder := []entity.Ref{
		{Type: entity.Book, ID: f.bookID},
		{Type: entity.Chapter, ID: f.chapter},
		{Type: entity.Page, ID: f.pageID},
	}
	for i, want := range wantOrder {
		if results[i].Ref() != want {
			t.Errorf("result %d = %v (score %v), want %v", i, results[i].Ref(), results[i].Score(), want)
		}
	}
	if results[0].Score() <= results[2].Score() {
		t.Errorf("book score %v should exceed page score %v", results[0].Score(), results[2].Score())
	}
}

func TestEndToEnd_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	secret := entity.Ref{Type: entity.Page, ID: f.secretID}

	q := query.Parse("secrets", nil)

	anon, err := f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if anon.Total() != 0 {
		t.Errorf("anonymous sees %d restricted hits", anon.Total())
	}

	owner, err := f.search.Search(ctx, domain.Actor{ID: 2}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if owner.Total() != 1 || owner.Results()[0].Ref() != secret {
		t.Errorf("owner results = %v", owner.Results())
	}

	if err := f.store.GrantPermission(ctx, secret, 3, "view"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	granted, err := f.search.Search(ctx, domain.Actor{ID: 3}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if granted.Total() != 1 {
		t.Errorf("granted actor sees %d hits, want 1", granted.Total())
	}

	other, err := f.search.Search(ctx, domain.Actor{ID: 4}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if other.Total() != 0 {
		t.Errorf("ungranted actor sees %d hits", other.Total())
	}
}

func TestEndToEnd_ExactPhrase(t *testing.T) {
	f := newFixture(t)

	q := query.Parse(`"need care"`, nil)
	page, err := f.search.Search(context.Background(), domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	results := page.Results()
	if len(results) != 1 || results[0].Ref() != (entity.Ref{Type: entity.Page, ID: f.pageID}) {
		t.Fatalf("results = %v", results)
	}
	if results[0].Score() != 0 {
		t.Errorf("phrase-only search should carry no term score, got %v", results[0].Score())
	}
}

func TestEndToEnd_TagPredicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.AddTag(ctx, entity.Ref{Type: entity.Page, ID: f.pageID}, "rating", "4.5")
	_ = f.store.AddTag(ctx, entity.Ref{Type: entity.Book, ID: f.bookID}, "rating", "3")
	_ = f.store.AddTag(ctx, entity.Ref{Type: entity.Book, ID: f.bookID}, "shelf", "top")

	q := query.Parse("[rating>4]", nil)
	page, err := f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total() != 1 || page.Results()[0].Ref().ID != f.pageID {
		t.Errorf("rating>4 results = %v", page.Results())
	}

	q = query.Parse("[rating]", nil)
	page, err = f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total() != 2 {
		t.Errorf("bare rating tag matched %d, want 2", page.Total())
	}

	q = query.Parse("[shelf=top]", nil)
	page, err = f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total() != 1 || page.Results()[0].Ref().Type != entity.Book {
		t.Errorf("shelf=top results = %v", page.Results())
	}
}

func TestEndToEnd_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := query.Parse("cat {created_by:2}", nil)
	page, err := f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total() != 1 || page.Results()[0].Ref().ID != f.pageID {
		t.Errorf("created_by results = %v", page.Results())
	}

	_ = f.store.RecordView(ctx, 2, entity.Ref{Type: entity.Page, ID: f.pageID})

	q = query.Parse("cat {viewed_by_me}", nil)
	viewed, err := f.search.Search(ctx, domain.Actor{ID: 2}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if viewed.Total() != 1 || viewed.Results()[0].Ref().ID != f.pageID {
		t.Errorf("viewed_by_me results = %v", viewed.Results())
	}

	anonViewed, err := f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if anonViewed.Total() != 0 {
		t.Errorf("anonymous viewed_by_me matched %d rows", anonViewed.Total())
	}
}

func TestEndToEnd_ScopedSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := query.Parse("cat", nil)
	inBook, err := f.search.SearchInBook(ctx, domain.Actor{}, &q, f.bookID)
	if err != nil {
		t.Fatalf("search in book: %v", err)
	}
	if len(inBook) != 2 {
		t.Fatalf("in-book results = %v, want the chapter and the page", inBook)
	}
	for _, r := range inBook {
		if r.Ref().ID == f.secretID {
			t.Error("restricted page leaked into scoped search")
		}
	}

	inChapter, err := f.search.SearchInChapter(ctx, domain.Actor{}, &q, f.chapter)
	if err != nil {
		t.Fatalf("search in chapter: %v", err)
	}
	if len(inChapter) != 1 || inChapter[0].Ref().ID != f.pageID {
		t.Errorf("in-chapter results = %v", inChapter)
	}
}

func TestEndToEnd_IncrementalIndexing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, _ := entity.Lookup(entity.Page)

	id, err := f.store.SaveEntity(ctx, d, testRow("zebra notes", "stripes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.indexer.IndexEntity(ctx, d, entity.Content{ID: id, Name: "zebra notes", Text: "stripes"}); err != nil {
		t.Fatalf("index: %v", err)
	}

	q := query.Parse("zebra", nil)
	page, err := f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total() != 1 {
		t.Fatalf("new page not searchable: %v", page.Results())
	}

	if err := f.indexer.DeleteEntity(ctx, entity.Ref{Type: entity.Page, ID: id}); err != nil {
		t.Fatalf("deindex: %v", err)
	}
	page, err = f.search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total() != 0 {
		t.Errorf("deindexed page still searchable: %v", page.Results())
	}
}

func TestEndToEnd_UpdatedAtTiebreak(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d, _ := entity.Lookup(entity.Page)

	older := testRow("twin", "")
	older.UpdatedAt = time.Unix(1700000000, 0)
	newer := testRow("twin", "")
	newer.UpdatedAt = time.Unix(1700005000, 0)

	olderID, _ := s.SaveEntity(ctx, d, older)
	newerID, _ := s.SaveEntity(ctx, d, newer)

	indexer := indexuc.New(s)
	if err := indexer.IndexAll(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	search := searchuc.New(s, NewPermissionFilter())
	q := query.Parse("twin", nil)
	page, err := search.Search(ctx, domain.Actor{}, &q, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	results := page.Results()
	if len(results) != 2 {
		t.Fatalf("results = %v", results)
	}
	if results[0].Ref().ID != newerID || results[1].Ref().ID != olderID {
		t.Errorf("equal scores should order by recency: %v then %v", results[0].Ref(), results[1].Ref())
	}
}
