package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenditure-workflow/internal/audit"
	"expenditure-workflow/internal/compensate"
	"expenditure-workflow/internal/role/domain"
	rolerepo "expenditure-workflow/internal/role/repository"
)

// ResourceKind is the audit resource kind for role assignment mutations.
const ResourceKind = "role_assignment"

// Service mutates role assignment sets. Reads go through role.Directory.
type Service struct {
	repo     rolerepo.Repository
	exec     *compensate.Executor
	recorder *audit.Recorder
	nowF     func() time.Time
}

// NewService returns a Service replacing assignments through exec and
// auditing through recorder.
func NewService(repo rolerepo.Repository, exec *compensate.Executor, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, exec: exec, recorder: recorder, nowF: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock. Test helper.
func (s *Service) WithNow(nowF func() time.Time) *Service {
	s.nowF = nowF
	return s
}

// ReplaceAssignments swaps the actor's full assignment set for next as two
// compensated steps: delete all current rows (compensated by re-inserting
// them), then insert the new set (compensated by deleting the just-inserted
// rows). If the insert fails and the re-insert compensation also fails, the
// actor may be left with zero assignments; that state is escalated as a
// rollback_failed audit record and surfaced as a CompensationFailure.
//
// A replacement whose inserted set equals the deleted set by normalized key
// writes no audit record.
func (s *Service) ReplaceAssignments(ctx context.Context, actorID string, next []domain.Assignment, changedBy string) error {
	if err := validateSet(actorID, next); err != nil {
		return err
	}
	now := s.nowF()
	prepared := make([]domain.Assignment, len(next))
	for i, a := range next {
		a.ActorID = actorID
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		prepared[i] = a
	}

	current, err := s.repo.ListByActor(ctx, actorID)
	if err != nil {
		return fmt.Errorf("role: list current assignments: %w", err)
	}

	var inserted []string
	mutation := compensate.Mutation{
		ResourceKind: ResourceKind,
		ResourceID:   actorID,
		ActorID:      changedBy,
		Attempted:    prepared,
		Steps: []compensate.Step{
			{
				Name:     "delete_current",
				Snapshot: current,
				Forward: func(ctx context.Context) error {
					_, err := s.repo.DeleteByActor(ctx, actorID)
					return err
				},
				Compensate: func(ctx context.Context) error {
					for i := range current {
						if err := s.repo.Create(ctx, &current[i]); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{
				Name:     "insert_new",
				Snapshot: prepared,
				Forward: func(ctx context.Context) error {
					for i := range prepared {
						err := s.repo.Create(ctx, &prepared[i])
						if err == nil {
							inserted = append(inserted, prepared[i].ID)
							continue
						}
						// The executor only compensates completed steps, so a
						// partially inserted set is this step's own mess to
						// undo before failing.
						for _, id := range inserted {
							if delErr := s.repo.DeleteByID(ctx, id); delErr != nil {
								return errors.Join(err, delErr)
							}
						}
						inserted = nil
						return err
					}
					return nil
				},
				Compensate: func(ctx context.Context) error {
					for _, id := range inserted {
						if err := s.repo.DeleteByID(ctx, id); err != nil {
							return err
						}
					}
					return nil
				},
			},
		},
	}

	if err := s.exec.Run(ctx, mutation); err != nil {
		return err
	}

	if _, err := s.recorder.RecordSetChange(ctx, ResourceKind, actorID, toKeyed(current), toKeyed(prepared), changedBy); err != nil {
		return err
	}
	return nil
}

func validateSet(actorID string, next []domain.Assignment) error {
	seen := make(map[string]bool, len(next))
	for _, a := range next {
		if _, ok := domain.NormalizeRole(string(a.Role)); !ok {
			return fmt.Errorf("role: unknown role %q", a.Role)
		}
		key := a.DiffKey()
		if seen[key] {
			return fmt.Errorf("role: duplicate assignment %s for actor %s: %w", key, actorID, rolerepo.ErrDuplicateAssignment)
		}
		seen[key] = true
	}
	return nil
}

func toKeyed(assignments []domain.Assignment) []audit.Keyed {
	out := make([]audit.Keyed, len(assignments))
	for i, a := range assignments {
		out[i] = a
	}
	return out
}
