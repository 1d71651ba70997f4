package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/term"
)

// insertBatchSize is the number of term rows per INSERT statement, bounding
// statement size during bulk reindexing.
const insertBatchSize = 500

// ReplaceTerms atomically swaps an entity's term set: all prior rows are
// deleted and the new ones inserted inside one transaction, so readers of
// that entity's terms never observe a partial set.
func (s *Store) ReplaceTerms(ctx context.Context, ref entity.Ref, terms map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: OpReplaceTerms, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM search_terms WHERE entity_type = ? AND entity_id = ?`,
		string(ref.Type), ref.ID,
	); err != nil {
		return &Error{Op: OpReplaceTerms, Err: err}
	}

	records := make([]term.Record, 0, len(terms))
	for t, score := range terms {
		records = append(records, term.Record{Term: t, Score: score, Ref: ref})
	}
	if err := insertTerms(ctx, tx, records); err != nil {
		return &Error{Op: OpReplaceTerms, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: OpReplaceTerms, Err: err}
	}
	return nil
}

// InsertTerms bulk-inserts term records in statement-sized batches. Used by
// the full rebuild, which truncates first and accumulates nothing globally.
func (s *Store) InsertTerms(ctx context.Context, records []term.Record) error {
	if err := insertTerms(ctx, s.db, records); err != nil {
		return &Error{Op: OpInsertTerms, Err: err}
	}
	return nil
}

// DeleteTerms removes every term row for one entity.
func (s *Store) DeleteTerms(ctx context.Context, ref entity.Ref) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM search_terms WHERE entity_type = ? AND entity_id = ?`,
		string(ref.Type), ref.ID,
	); err != nil {
		return &Error{Op: OpDeleteTerms, Err: err}
	}
	return nil
}

// TruncateTerms empties the whole term index.
func (s *Store) TruncateTerms(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_terms`); err != nil {
		return &Error{Op: OpTruncateTerms, Err: err}
	}
	return nil
}

// CountTerms returns the number of rows in the term index.
func (s *Store) CountTerms(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_terms`).Scan(&n); err != nil {
		return 0, &Error{Op: OpListTerms, Err: err}
	}
	return n, nil
}

// TermsFor returns the indexed terms of one entity, for diagnostics.
func (s *Store) TermsFor(ctx context.Context, ref entity.Ref) ([]term.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, score FROM search_terms WHERE entity_type = ? AND entity_id = ? ORDER BY term`,
		string(ref.Type), ref.ID,
	)
	if err != nil {
		return nil, &Error{Op: OpListTerms, Err: err}
	}
	defer rows.Close()

	var records []term.Record
	for rows.Next() {
		r := term.Record{Ref: ref}
		if err := rows.Scan(&r.Term, &r.Score); err != nil {
			return nil, &Error{Op: OpListTerms, Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: OpListTerms, Err: err}
	}
	return records, nil
}

// execer covers *sql.DB and *sql.Tx for the shared insert path.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTerms(ctx context.Context, db execer, records []term.Record) error {
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO search_terms (term, score, entity_type, entity_id) VALUES `)
		args := make([]any, 0, len(batch)*4)
		for i, r := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, r.Term, r.Score, string(r.Ref.Type), r.Ref.ID)
		}

		if _, err := db.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}
