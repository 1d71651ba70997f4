// Package index maintains the persisted term index: tokenization,
// per-entity upsert and delete, and the batched full rebuild.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/term"
	"github.com/folioworks/folio/internal/logger"
	"github.com/folioworks/folio/internal/metrics"
)

// Term weights. Name matches outrank body matches five to one; the
// per-type search factor then biases scores across entity types.
const (
	nameWeight = 5.0
	bodyWeight = 1.0
)

// rebuildBatchSize bounds how many entities a full rebuild tokenizes and
// inserts per round trip. Each batch stands alone; nothing accumulates
// across batches.
const rebuildBatchSize = 500

// Service is the term indexer.
type Service struct {
	store Store

	// rebuild serializes full rebuilds; concurrent triggers are rejected.
	rebuild sync.Mutex
}

// New creates a term indexer.
func New(store Store) *Service {
	return &Service{store: store}
}

// IndexEntity replaces the term set of one entity from its current name and
// body text. Called by the entity lifecycle on create and update.
func (s *Service) IndexEntity(ctx context.Context, d entity.Descriptor, c entity.Content) error {
	ref := entity.Ref{Type: d.Type, ID: c.ID}
	if err := s.store.ReplaceTerms(ctx, ref, entityTerms(d, c)); err != nil {
		return fmt.Errorf("index %s %d: %w", d.Type, c.ID, err)
	}
	return nil
}

// DeleteEntity removes an entity's terms. Called by the entity lifecycle on
// delete; the entity stops appearing in any subsequent term search.
func (s *Service) DeleteEntity(ctx context.Context, ref entity.Ref) error {
	if err := s.store.DeleteTerms(ctx, ref); err != nil {
		return fmt.Errorf("deindex %s %d: %w", ref.Type, ref.ID, err)
	}
	return nil
}

// IndexAll rebuilds the whole term index: truncate, then walk every
// searchable type in batches. Searches running concurrently see a
// transiently incomplete index until the rebuild finishes; the next full
// rebuild also self-heals any orphaned rows. Returns ErrReindexRunning if
// a rebuild is already in flight.
func (s *Service) IndexAll(ctx context.Context) error {
	if !s.rebuild.TryLock() {
		return domain.ErrReindexRunning
	}
	defer s.rebuild.Unlock()

	log := logger.FromContext(ctx)
	start := time.Now()

	if err := s.store.TruncateTerms(ctx); err != nil {
		return fmt.Errorf("truncate index: %w", err)
	}

	indexed := 0
	for _, t := range entity.All {
		d, _ := entity.Lookup(t)
		n, err := s.rebuildType(ctx, d)
		if err != nil {
			return fmt.Errorf("rebuild %s index: %w", t, err)
		}
		indexed += n
	}

	metrics.ObserveReindex(time.Since(start), indexed)
	log.Info("search index rebuilt",
		zap.Int("entities", indexed),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (s *Service) rebuildType(ctx context.Context, d entity.Descriptor) (int, error) {
	indexed := 0
	for offset := 0; ; offset += rebuildBatchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		contents, err := s.store.ListForIndexing(ctx, d, offset, rebuildBatchSize)
		if err != nil {
			return indexed, err
		}
		if len(contents) == 0 {
			break
		}

		var records []term.Record
		for _, c := range contents {
			ref := entity.Ref{Type: d.Type, ID: c.ID}
			for t, score := range entityTerms(d, c) {
				records = append(records, term.Record{Term: t, Score: score, Ref: ref})
			}
		}
		if err := s.store.InsertTerms(ctx, records); err != nil {
			return indexed, err
		}
		indexed += len(contents)

		if len(contents) < rebuildBatchSize {
			break
		}
	}
	return indexed, nil
}

// entityTerms tokenizes name and body at their respective weights and
// merges the two maps additively.
func entityTerms(d entity.Descriptor, c entity.Content) map[string]float64 {
	terms := Tokenize(c.Name, nameWeight*d.SearchFactor)
	for t, score := range Tokenize(c.Text, bodyWeight*d.SearchFactor) {
		terms[t] += score
	}
	return terms
}
