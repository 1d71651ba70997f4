package index

import (
	"context"

	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/term"
)

// Store defines the persistence contract for the term index.
type Store interface {
	// ReplaceTerms swaps one entity's term set atomically with respect to
	// readers of that entity's terms.
	ReplaceTerms(ctx context.Context, ref entity.Ref, terms map[string]float64) error

	// InsertTerms bulk-inserts records without touching existing rows.
	InsertTerms(ctx context.Context, records []term.Record) error

	// DeleteTerms removes every term row for one entity.
	DeleteTerms(ctx context.Context, ref entity.Ref) error

	// TruncateTerms empties the whole index.
	TruncateTerms(ctx context.Context) error

	// ListForIndexing walks one entity table in stable order.
	ListForIndexing(ctx context.Context, d entity.Descriptor, offset, limit int) ([]entity.Content, error)
}
