package search

import (
	"context"

	"github.com/folioworks/folio/internal/db"
	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/domain/entity"
	"github.com/folioworks/folio/internal/domain/search/result"
)

// ActionView is the permission action every search runs under.
const ActionView = "view"

// Store defines the storage contract for executing search plans.
type Store interface {
	// RunPlan executes one entity type's plan and returns its scored rows.
	RunPlan(ctx context.Context, t entity.Type, plan *db.SelectBuilder) ([]result.Result, error)

	// CountPlan executes the COUNT(*) form of a plan.
	CountPlan(ctx context.Context, plan *db.SelectBuilder) (int, error)
}

// Permissions narrows a plan to rows the actor may access for an action.
// It is applied last and unconditionally to every plan the executor builds.
type Permissions interface {
	Restrict(plan *db.SelectBuilder, d entity.Descriptor, action string, actor domain.Actor)
}
