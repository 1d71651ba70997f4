// Package term defines the persisted relevance index record.
package term

import "github.com/folioworks/folio/internal/domain/entity"

// Record is one row of the term index: a normalized token, its accumulated
// weighted score, and the entity it was observed in. Records are owned by
// the indexer; reindexing deletes and re-inserts, never mutates in place.
// Duplicate (term, entity) rows are legal and are summed at query time.
type Record struct {
	Term  string
	Score float64
	Ref   entity.Ref
}
