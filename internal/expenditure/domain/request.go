package domain

import (
	"time"

	"expenditure-workflow/internal/workflow"
)

// PaymentCategory is the fixed set of disbursement categories an expenditure
// request (SPM) can carry.
type PaymentCategory string

const (
	// CategoryAdvance (UP) funds a unit's petty-cash advance.
	CategoryAdvance PaymentCategory = "UP"
	// CategoryReplenishment (GU) replenishes a spent advance.
	CategoryReplenishment PaymentCategory = "GU"
	// CategorySupplementary (TU) covers needs beyond the standing advance.
	CategorySupplementary PaymentCategory = "TU"
	// CategoryDirect (LS) pays a third party directly.
	CategoryDirect PaymentCategory = "LS"
)

// NormalizeCategory validates and normalizes a payment category string.
func NormalizeCategory(value string) (PaymentCategory, bool) {
	switch PaymentCategory(value) {
	case CategoryAdvance, CategoryReplenishment, CategorySupplementary, CategoryDirect:
		return PaymentCategory(value), true
	default:
		return "", false
	}
}

// Request is an expenditure request (SPM) routed through the review pipeline.
// Requests are never physically deleted; they are only superseded by status.
type Request struct {
	ID          string
	UnitID      string // organizational unit (OPD)
	Amount      int64  // minor currency units, non-negative
	Category    PaymentCategory
	Status      workflow.Status
	SubmitterID string
	// QueueNumber is the optional document number assigned at treasury intake.
	QueueNumber string
	// Stages holds the timestamp/note pair for every stage passed through,
	// keyed by the exited stage. Records from an earlier cycle survive a
	// needs_revision round-trip and are overwritten only when the stage is
	// re-entered.
	Stages map[workflow.Status]workflow.StageRecord
	// Consumed is set when a payment order has been issued against the
	// approved request.
	Consumed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkflowDocument returns the snapshot the transition engine validates against.
func (r *Request) WorkflowDocument() workflow.Document {
	return workflow.Document{
		Kind:        workflow.KindExpenditureRequest,
		ID:          r.ID,
		UnitID:      r.UnitID,
		Status:      r.Status,
		SubmitterID: r.SubmitterID,
	}
}
