package sqlite

import (
	"context"
	"time"

	"github.com/folioworks/folio/internal/db"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/search/result"
)

// RunPlan executes a search plan for one entity type. The plan's select
// list is expected to be the executor's standard result columns: id, name,
// slug, preview, created_at, updated_at, score.
func (s *Store) RunPlan(ctx context.Context, t entity.Type, plan *db.SelectBuilder) ([]result.Result, error) {
	stmt, args := plan.SQL()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &Error{Op: OpRunPlan, Err: err}
	}
	defer rows.Close()

	var results []result.Result
	for rows.Next() {
		var (
			id                   int64
			name, slug, preview  string
			createdAt, updatedAt int64
			score                float64
		)
		if err := rows.Scan(&id, &name, &slug, &preview, &createdAt, &updatedAt, &score); err != nil {
			return nil, &Error{Op: OpRunPlan, Err: err}
		}
		results = append(results, result.New(
			entity.Ref{Type: t, ID: id}, name, slug, preview,
			score, time.Unix(createdAt, 0), time.Unix(updatedAt, 0),
		))
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: OpRunPlan, Err: err}
	}
	return results, nil
}

// CountPlan executes the COUNT(*) form of a search plan.
func (s *Store) CountPlan(ctx context.Context, plan *db.SelectBuilder) (int, error) {
	stmt, args := plan.CountSQL()
	var n int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, &Error{Op: OpCountPlan, Err: err}
	}
	return n, nil
}
