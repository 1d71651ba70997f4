package index

import (
	"context"
	"sync"

	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/term"
)

type listCall struct {
	typ    entity.Type
	offset int
	limit  int
}

// fakeStore implements Store in memory and records every call.
type fakeStore struct {
	mu        sync.Mutex
	replaced  map[entity.Ref]map[string]float64
	inserted  []term.Record
	deleted   []entity.Ref
	truncates int
	listCalls []listCall

	// contents backs ListForIndexing, keyed by entity type.
	contents map[entity.Type][]entity.Content

	// listGate, when set, blocks ListForIndexing until the channel closes;
	// listEntered closes once the first blocked call is inside.
	listGate    chan struct{}
	listEntered chan struct{}
	enteredOnce sync.Once

	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		replaced: map[entity.Ref]map[string]float64{},
		contents: map[entity.Type][]entity.Content{},
	}
}

func (f *fakeStore) ReplaceTerms(_ context.Context, ref entity.Ref, terms map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replaced[ref] = terms
	return nil
}

func (f *fakeStore) InsertTerms(_ context.Context, records []term.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeStore) DeleteTerms(_ context.Context, ref entity.Ref) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeStore) TruncateTerms(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.truncates++
	return nil
}

func (f *fakeStore) ListForIndexing(_ context.Context, d entity.Descriptor, offset, limit int) ([]entity.Content, error) {
	f.mu.Lock()
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		f.enteredOnce.Do(func() { close(f.listEntered) })
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.listCalls = append(f.listCalls, listCall{typ: d.Type, offset: offset, limit: limit})

	all := f.contents[d.Type]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
