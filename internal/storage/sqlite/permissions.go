package sqlite

import (
	"github.com/folioworks/folio/internal/db"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
)

// PermissionFilter is the row-level visibility predicate over the
// entity_permissions schema. It is stateless: it only narrows plans, so it
// needs no database handle of its own.
type PermissionFilter struct{}

// NewPermissionFilter creates the schema-backed permission predicate.
func NewPermissionFilter() *PermissionFilter {
	return &PermissionFilter{}
}

// Restrict narrows a plan to rows the actor may access for the given
// action. Unrestricted rows are visible to everyone; restricted rows
// require ownership or an explicit grant. The anonymous actor sees only
// unrestricted rows. Restrict always narrows, never widens.
func (f *PermissionFilter) Restrict(plan *db.SelectBuilder, d entity.Descriptor, action string, actor domain.Actor) {
	a := plan.Alias()
	if actor.Anonymous() {
		plan.Where(a + ".restricted = 0")
		return
	}
	plan.Where(
		a+".restricted = 0 OR "+a+".owned_by = ? OR EXISTS ("+
			"SELECT 1 FROM entity_permissions ep"+
			" WHERE ep.entity_type = ? AND ep.entity_id = "+a+".id"+
			" AND ep.user_id = ? AND ep.action = ?)",
		actor.ID, string(d.Type), actor.ID, action,
	)
}
