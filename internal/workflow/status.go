// Package workflow is the finite-state machine for expenditure documents.
// Apply is a pure function over (document, target status, actor); it never
// touches storage. Persistence and the concurrency token live in the per-feature
// repositories; services map their conflict error to RejectConcurrentModification.
package workflow

import "time"

// DocumentKind selects which adjacency table governs a document.
type DocumentKind string

const (
	KindExpenditureRequest DocumentKind = "expenditure_request"
	KindPaymentOrder       DocumentKind = "payment_order"
)

// Status is a document workflow state. The two document kinds use disjoint
// status sets; both are kept in one type so audit and notification code can
// treat them uniformly.
type Status string

// ExpenditureRequest statuses, in forward order.
const (
	StatusDraft         Status = "draft"
	StatusSubmitted     Status = "submitted"
	StatusStage1Review  Status = "stage1_review"
	StatusStage2Review  Status = "stage2_review"
	StatusStage3Review  Status = "stage3_review"
	StatusStage4Review  Status = "stage4_review"
	StatusFinalReview   Status = "final_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusNeedsRevision Status = "needs_revision"
)

// PaymentOrder statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusIssued     Status = "issued"
	StatusSettled    Status = "settled"
	StatusFailed     Status = "failed"
)

// StageRecord is the timestamp/note pair stamped when a stage is passed
// through. Re-entering a stage overwrites its record; records for stages from
// an earlier cycle are retained as history.
type StageRecord struct {
	At   time.Time
	Note string
}

// Stamp names the fields that must be written atomically together with the new
// status: the stage being exited gets the current timestamp and supplied note.
type Stamp struct {
	Stage Status
	At    time.Time
	Note  string
}

// Document is the read snapshot a transition is validated against. The Status
// read here doubles as the optimistic-concurrency token at write time.
type Document struct {
	Kind        DocumentKind
	ID          string
	UnitID      string
	Status      Status
	SubmitterID string
	// Verified is the one-time-code verification marker; only meaningful for
	// payment orders, where it gates issued -> settled.
	Verified bool
}
