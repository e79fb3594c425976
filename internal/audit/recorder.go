// Package audit computes before/after diffs for mutations and persists
// immutable audit records. Recording failures on best-effort side streams
// (Kafka, OTel) never affect the caller; a failure to append to the repository
// is returned, because the audit trail is the system of record.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenditure-workflow/internal/audit/domain"
	auditrepo "expenditure-workflow/internal/audit/repository"
	"expenditure-workflow/internal/telemetry"
)

// Recorder writes audit records and fans them out to optional emitters.
type Recorder struct {
	repo     auditrepo.Repository
	emitters []telemetry.EventEmitter
	nowF     func() time.Time
}

// NewRecorder returns a Recorder persisting to repo. emitters may be empty;
// each one receives every written record asynchronously, best-effort.
func NewRecorder(repo auditrepo.Repository, emitters ...telemetry.EventEmitter) *Recorder {
	return &Recorder{repo: repo, emitters: emitters, nowF: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock. Test helper.
func (r *Recorder) WithNow(nowF func() time.Time) *Recorder {
	r.nowF = nowF
	return r
}

// Record writes one audit record for a scalar-field mutation. before and after
// are stored as JSON snapshots; either may be nil (create has no before,
// delete has no after).
func (r *Recorder) Record(ctx context.Context, action domain.ActionKind, resourceKind, resourceID string, before, after any, actorID string) error {
	beforeRaw, err := marshalSnapshot(before)
	if err != nil {
		return fmt.Errorf("audit: before snapshot: %w", err)
	}
	afterRaw, err := marshalSnapshot(after)
	if err != nil {
		return fmt.Errorf("audit: after snapshot: %w", err)
	}
	return r.append(ctx, &domain.Record{
		Action:       action,
		ResourceKind: resourceKind,
		ResourceID:   resourceID,
		Before:       beforeRaw,
		After:        afterRaw,
		ActorID:      actorID,
	})
}

// RecordSetChange writes one role_change record for a set-valued mutation,
// with added/removed/unchanged computed by normalized key. When the mutation
// is a no-op (nothing added, nothing removed) no record is written and
// recorded is false: audit volume reflects actual change, not
// attempted-but-identical writes.
func (r *Recorder) RecordSetChange(ctx context.Context, resourceKind, resourceID string, before, after []Keyed, actorID string) (recorded bool, err error) {
	diff := DiffSets(before, after)
	if diff.Empty() {
		return false, nil
	}
	beforeRaw, err := marshalSnapshot(before)
	if err != nil {
		return false, fmt.Errorf("audit: before snapshot: %w", err)
	}
	afterRaw, err := marshalSnapshot(after)
	if err != nil {
		return false, fmt.Errorf("audit: after snapshot: %w", err)
	}
	diffRaw, err := json.Marshal(struct {
		Added     []Keyed `json:"added"`
		Removed   []Keyed `json:"removed"`
		Unchanged []Keyed `json:"unchanged"`
	}{diff.Added, diff.Removed, diff.Unchanged})
	if err != nil {
		return false, fmt.Errorf("audit: diff: %w", err)
	}
	err = r.append(ctx, &domain.Record{
		Action:       domain.ActionRoleChange,
		ResourceKind: resourceKind,
		ResourceID:   resourceID,
		Before:       beforeRaw,
		After:        afterRaw,
		Diff:         diffRaw,
		ActorID:      actorID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordRollbackFailure escalates a failed compensation: the attempted new
// state goes in the after snapshot and the snapshot that could not be restored
// in the before snapshot. Satisfies compensate.FailureRecorder.
func (r *Recorder) RecordRollbackFailure(ctx context.Context, resourceKind, resourceID string, attempted, unrestored any, actorID string) error {
	return r.Record(ctx, domain.ActionRollbackFailed, resourceKind, resourceID, unrestored, attempted, actorID)
}

func (r *Recorder) append(ctx context.Context, rec *domain.Record) error {
	rec.ID = uuid.New().String()
	rec.CreatedAt = r.nowF()
	if err := r.repo.Append(ctx, rec); err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	for _, e := range r.emitters {
		telemetry.EmitAsync(e, ctx, rec)
	}
	return nil
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
