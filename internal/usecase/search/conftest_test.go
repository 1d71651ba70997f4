package search

import (
	"context"
	"strings"

	"github.com/folioworks/folio/internal/db"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/search/result"
)

// fakeStore serves canned rows and counts per entity type and captures
// every plan it executes.
type fakeStore struct {
	rows   map[entity.Type][]result.Result
	counts map[entity.Type]int

	runPlans   map[entity.Type]*db.SelectBuilder
	countPlans map[entity.Type]*db.SelectBuilder

	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:       map[entity.Type][]result.Result{},
		counts:     map[entity.Type]int{},
		runPlans:   map[entity.Type]*db.SelectBuilder{},
		countPlans: map[entity.Type]*db.SelectBuilder{},
	}
}

func (f *fakeStore) RunPlan(_ context.Context, t entity.Type, plan *db.SelectBuilder) ([]result.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.runPlans[t] = plan
	return f.rows[t], nil
}

func (f *fakeStore) CountPlan(_ context.Context, plan *db.SelectBuilder) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	t := planEntityType(plan)
	f.countPlans[t] = plan
	return f.counts[t], nil
}

// planEntityType recovers the entity type a plan targets from its table.
func planEntityType(plan *db.SelectBuilder) entity.Type {
	sql, _ := plan.CountSQL()
	for _, t := range entity.All {
		d, _ := entity.Lookup(t)
		if strings.Contains(sql, " FROM "+d.Table+" ") || strings.HasSuffix(sql, " FROM "+d.Table) {
			return t
		}
	}
	return ""
}

// fakePermissions tags every plan with a recognizable trailing condition.
type fakePermissions struct {
	restricted []entity.Type
}

func (f *fakePermissions) Restrict(plan *db.SelectBuilder, d entity.Descriptor, _ string, actor domain.Actor) {
	f.restricted = append(f.restricted, d.Type)
	plan.Where("visible_to = ?", actor.ID)
}
