package search

import (
	"strconv"
	"time"

	"github.com/folioworks/folio/internal/db"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
)

// filterFunc applies one named filter to a plan. Filters fail open: a value
// that cannot be interpreted leaves the plan untouched, except that
// actor-dependent filters with no actor match nothing rather than erroring.
type filterFunc func(plan *db.SelectBuilder, d entity.Descriptor, value string, actor domain.Actor)

// newFilterRegistry builds the fixed filter-key dispatch table. Unknown
// keys are simply absent and get ignored at dispatch time.
func newFilterRegistry() map[string]filterFunc {
	return map[string]filterFunc{
		"updated_after":  dateFilter("updated_at", ">="),
		"updated_before": dateFilter("updated_at", "<"),
		"created_after":  dateFilter("created_at", ">="),
		"created_before": dateFilter("created_at", "<"),

		"created_by": userFilter("created_by"),
		"updated_by": userFilter("updated_by"),

		"in_name":  nameFilter,
		"in_title": nameFilter, // alias
		"in_body":  bodyFilter,

		"is_restricted": restrictedFilter,

		"viewed_by_me":     viewedFilter(true),
		"not_viewed_by_me": viewedFilter(false),

		"sort_by": sortFilter,
	}
}

// dateLayouts are tried in order when parsing date filter values.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func dateFilter(column, op string) filterFunc {
	return func(plan *db.SelectBuilder, _ entity.Descriptor, value string, _ domain.Actor) {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				plan.Where(plan.Alias()+"."+column+" "+op+" ?", t.Unix())
				return
			}
		}
		// Unparseable date: no constraint.
	}
}

func userFilter(column string) filterFunc {
	return func(plan *db.SelectBuilder, _ entity.Descriptor, value string, actor domain.Actor) {
		if value == "me" {
			if actor.Anonymous() {
				plan.WhereNever()
				return
			}
			plan.Where(plan.Alias()+"."+column+" = ?", actor.ID)
			return
		}
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			plan.Where(plan.Alias()+"."+column+" = ?", id)
		}
		// Anything else is ignored.
	}
}

func nameFilter(plan *db.SelectBuilder, _ entity.Descriptor, value string, _ domain.Actor) {
	plan.Where(plan.Alias()+`.name LIKE ? ESCAPE '\'`, "%"+db.EscapeLike(value)+"%")
}

func bodyFilter(plan *db.SelectBuilder, d entity.Descriptor, value string, _ domain.Actor) {
	plan.Where(plan.Alias()+"."+d.TextField+` LIKE ? ESCAPE '\'`, "%"+db.EscapeLike(value)+"%")
}

func restrictedFilter(plan *db.SelectBuilder, _ entity.Descriptor, _ string, _ domain.Actor) {
	plan.Where(plan.Alias() + ".restricted = 1")
}

func viewedFilter(viewed bool) filterFunc {
	return func(plan *db.SelectBuilder, d entity.Descriptor, _ string, actor domain.Actor) {
		if actor.Anonymous() {
			plan.WhereNever()
			return
		}
		exists := "EXISTS"
		if !viewed {
			exists = "NOT EXISTS"
		}
		plan.Where(
			exists+" (SELECT 1 FROM views v WHERE v.user_id = ?"+
				" AND v.entity_type = ? AND v.entity_id = "+plan.Alias()+".id)",
			actor.ID, string(d.Type),
		)
	}
}

// sortFilter dispatches to a secondary named sort strategy. Unknown sort
// names are no-ops.
func sortFilter(plan *db.SelectBuilder, d entity.Descriptor, value string, _ domain.Actor) {
	switch value {
	case "last_commented":
		plan.OrderBy(
			"(SELECT MAX(c.created_at) FROM comments c"+
				" WHERE c.entity_type = ? AND c.entity_id = "+plan.Alias()+".id) DESC",
			string(d.Type),
		)
	}
}
