package repository

import (
	"context"
	"sort"
	"sync"

	"expenditure-workflow/internal/role/domain"
)

// MemoryRepository is an in-memory Repository for tests and local wiring.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Assignment

	// Fault injection for tests.
	CreateErr        error
	DeleteByActorErr error
	DeleteByIDErr    error
}

// NewMemoryRepository returns an empty in-memory role assignment repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]domain.Assignment)}
}

// ListByActor returns all assignments for the actor ordered by creation.
func (r *MemoryRepository) ListByActor(ctx context.Context, actorID string) ([]domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Assignment
	for _, a := range r.byID {
		if a.ActorID == actorID {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

// ListByRole returns all assignments of the role across actors.
func (r *MemoryRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Assignment
	for _, a := range r.byID {
		if a.Role == role {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

// Create stores the assignment; duplicate (actor, role, scope) tuples are rejected.
func (r *MemoryRepository) Create(ctx context.Context, a *domain.Assignment) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ActorID == a.ActorID && existing.Role == a.Role && existing.Scope == a.Scope {
			return ErrDuplicateAssignment
		}
	}
	r.byID[a.ID] = *a
	return nil
}

// DeleteByID removes one assignment.
func (r *MemoryRepository) DeleteByID(ctx context.Context, id string) error {
	if r.DeleteByIDErr != nil {
		return r.DeleteByIDErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// DeleteByActor removes all assignments for the actor and returns the deleted rows.
func (r *MemoryRepository) DeleteByActor(ctx context.Context, actorID string) ([]domain.Assignment, error) {
	if r.DeleteByActorErr != nil {
		return nil, r.DeleteByActorErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted []domain.Assignment
	for id, a := range r.byID {
		if a.ActorID == actorID {
			deleted = append(deleted, a)
			delete(r.byID, id)
		}
	}
	sortAssignments(deleted)
	return deleted, nil
}

func sortAssignments(items []domain.Assignment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
