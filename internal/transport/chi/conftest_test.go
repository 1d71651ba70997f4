package chi

import (
	"context"
	"sync"
	"time"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/query"
	"github.com/folioworks/folio/internal/domain/search/result"
	"github.com/folioworks/folio/internal/usecase/health"
)

type searchCall struct {
	actor domain.Actor
	query *query.Query
	page  int
	count int
	id    int64
}

// fakeSearcher records calls and serves canned pages.
type fakeSearcher struct {
	page    result.Page
	scoped  []result.Result
	err     error
	calls   []searchCall
	inBook  int
	inChapt int
}

func (f *fakeSearcher) Search(_ context.Context, actor domain.Actor, q *query.Query, page, count int) (result.Page, error) {
	f.calls = append(f.calls, searchCall{actor: actor, query: q, page: page, count: count})
	return f.page, f.err
}

func (f *fakeSearcher) SearchInBook(_ context.Context, actor domain.Actor, q *query.Query, bookID int64) ([]result.Result, error) {
	f.inBook++
	f.calls = append(f.calls, searchCall{actor: actor, query: q, id: bookID})
	return f.scoped, f.err
}

func (f *fakeSearcher) SearchInChapter(_ context.Context, actor domain.Actor, q *query.Query, chapterID int64) ([]result.Result, error) {
	f.inChapt++
	f.calls = append(f.calls, searchCall{actor: actor, query: q, id: chapterID})
	return f.scoped, f.err
}

// fakeIndexer blocks in IndexAll until released when gate is set.
type fakeIndexer struct {
	err   error
	gate  chan struct{}
	calls int
	mu    sync.Mutex
}

func (f *fakeIndexer) IndexAll(context.Context) error {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.err
}

// fakeHealth reports a fixed healthy system.
type fakeHealth struct{}

func (fakeHealth) Check(context.Context) health.Report {
	return health.Report{
		Status: health.Healthy,
		Checks: map[string]health.CheckResult{"database": health.CheckOK},
	}
}

// memoryCache is an in-process Cache for handler tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
}
