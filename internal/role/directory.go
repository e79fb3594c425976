// Package role resolves which actors hold which pipeline roles, optionally
// scoped to an organizational unit, and manages full-set assignment
// replacement through the compensating executor.
package role

import (
	"context"
	"sort"

	"expenditure-workflow/internal/role/domain"
	rolerepo "expenditure-workflow/internal/role/repository"
)

// Directory is the pure lookup side of role assignments. It never mutates.
type Directory struct {
	repo rolerepo.Repository
}

// NewDirectory returns a Directory reading from repo.
func NewDirectory(repo rolerepo.Repository) *Directory {
	return &Directory{repo: repo}
}

// ActorsHolding returns the distinct actor IDs that validly hold the role.
// For a scope-bound role only assignments scoped to the given unit count;
// for other roles scope is ignored. Invalid assignments (scope-bound with no
// scope) never authorize and are skipped. The result is sorted for
// deterministic fan-out.
func (d *Directory) ActorsHolding(ctx context.Context, role domain.Role, scope string) ([]string, error) {
	assignments, err := d.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, a := range assignments {
		if !a.Valid() {
			continue
		}
		if domain.ScopeBound(role) && a.Scope != scope {
			continue
		}
		if !seen[a.ActorID] {
			seen[a.ActorID] = true
			out = append(out, a.ActorID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// GrantsFor returns every assignment stored for the actor, valid or not.
// Guard checks decide validity themselves.
func (d *Directory) GrantsFor(ctx context.Context, actorID string) ([]domain.Assignment, error) {
	return d.repo.ListByActor(ctx, actorID)
}
