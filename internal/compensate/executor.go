// Package compensate executes ordered multi-step mutations with
// compensating rollback. Every multi-step write in the system goes through
// Run so failure escalation is uniform instead of bespoke per feature.
package compensate

import (
	"context"
	"fmt"
	"log"
)

// Step is one write in an ordered mutation. Forward performs the write;
// Compensate restores the pre-step snapshot. Snapshot is the state Compensate
// restores; it is attached to the rollback_failed audit record when
// compensation fails.
type Step struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	Snapshot   any
}

// Mutation is a named, ordered sequence of dependent steps against one resource.
type Mutation struct {
	ResourceKind string
	ResourceID   string
	ActorID      string
	// Attempted describes the end state the mutation was trying to reach; it
	// is recorded when compensation fails.
	Attempted any
	Steps     []Step
}

// StepFailure is returned when a forward step failed and every compensation
// for the completed steps succeeded: the resource is back in its prior state.
type StepFailure struct {
	Step string
	Err  error
}

func (f *StepFailure) Error() string {
	return fmt.Sprintf("compensate: step %s failed (prior state restored): %v", f.Step, f.Err)
}

func (f *StepFailure) Unwrap() error { return f.Err }

// CompensationFailure is returned when a forward step failed and a
// compensating action also failed. The resource is in a known-inconsistent
// state requiring manual reconciliation; a rollback_failed audit record has
// been written.
type CompensationFailure struct {
	Step           string
	CompensateStep string
	Err            error
	CompensateErr  error
}

func (f *CompensationFailure) Error() string {
	return fmt.Sprintf("compensate: step %s failed and compensation of %s also failed, manual reconciliation required: %v (compensation: %v)",
		f.Step, f.CompensateStep, f.Err, f.CompensateErr)
}

func (f *CompensationFailure) Unwrap() error { return f.Err }

// FailureRecorder escalates a failed compensation to the audit trail.
// Implemented by audit.Recorder.
type FailureRecorder interface {
	RecordRollbackFailure(ctx context.Context, resourceKind, resourceID string, attempted, unrestored any, actorID string) error
}

// Executor runs compensated mutations. Steps always execute sequentially;
// later steps may depend on the side effects of earlier ones.
type Executor struct {
	recorder FailureRecorder
}

// NewExecutor returns an Executor escalating compensation failures to recorder.
func NewExecutor(recorder FailureRecorder) *Executor {
	return &Executor{recorder: recorder}
}

// Run executes the mutation's steps strictly in order. If step k fails, the
// compensating actions for steps 1..k-1 replay in reverse order and a
// StepFailure is returned. Each compensating action is attempted exactly once;
// if one fails, the remaining compensations are still attempted, a
// rollback_failed audit record is written for each failure, and a
// CompensationFailure surfaces to the caller. Nothing is retried and nothing
// is swallowed.
func (e *Executor) Run(ctx context.Context, m Mutation) error {
	for k, step := range m.Steps {
		err := step.Forward(ctx)
		if err == nil {
			continue
		}

		var compFailure *CompensationFailure
		for i := k - 1; i >= 0; i-- {
			prev := m.Steps[i]
			compErr := prev.Compensate(ctx)
			if compErr == nil {
				continue
			}
			log.Printf("compensate: %s/%s: compensation of step %s failed: %v", m.ResourceKind, m.ResourceID, prev.Name, compErr)
			if e.recorder != nil {
				if recErr := e.recorder.RecordRollbackFailure(ctx, m.ResourceKind, m.ResourceID, m.Attempted, prev.Snapshot, m.ActorID); recErr != nil {
					log.Printf("compensate: recording rollback failure for %s/%s: %v", m.ResourceKind, m.ResourceID, recErr)
				}
			}
			if compFailure == nil {
				compFailure = &CompensationFailure{Step: step.Name, CompensateStep: prev.Name, Err: err, CompensateErr: compErr}
			}
		}
		if compFailure != nil {
			return compFailure
		}
		return &StepFailure{Step: step.Name, Err: err}
	}
	return nil
}
