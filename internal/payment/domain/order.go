package domain

import (
	"time"

	"expenditure-workflow/internal/workflow"
)

// DeductionCategory identifies a withholding type on a payment order.
type DeductionCategory string

const (
	// DeductionVAT is value-added tax (PPN).
	DeductionVAT DeductionCategory = "PPN"
	// DeductionIncomeArt21 is income tax article 21 (PPh 21).
	DeductionIncomeArt21 DeductionCategory = "PPh21"
	// DeductionIncomeArt22 is income tax article 22 (PPh 22).
	DeductionIncomeArt22 DeductionCategory = "PPh22"
	// DeductionIncomeArt23 is income tax article 23 (PPh 23).
	DeductionIncomeArt23 DeductionCategory = "PPh23"
	// DeductionOther covers local levies outside the tax articles.
	DeductionOther DeductionCategory = "other"
)

// NormalizeDeductionCategory maps raw input to a known category.
func NormalizeDeductionCategory(raw string) (DeductionCategory, bool) {
	switch DeductionCategory(raw) {
	case DeductionVAT, DeductionIncomeArt21, DeductionIncomeArt22, DeductionIncomeArt23, DeductionOther:
		return DeductionCategory(raw), true
	}
	return "", false
}

// DeductionLine is one itemized withholding on a payment order. Rate is in
// basis points so fractional percentages stay exact integers. Amount is the
// computed withholding in minor currency units.
type DeductionLine struct {
	ID       string
	OrderID  string
	Category DeductionCategory
	RateBP   int64
	Base     int64
	Amount   int64
}

// Order is a payment instruction (SP2D) issued against exactly one approved
// expenditure request. Amounts are integer minor currency units.
type Order struct {
	ID             string
	RequestID      string
	UnitID         string
	GrossAmount    int64
	TotalDeduction int64
	NetAmount      int64
	Lines          []DeductionLine
	Status         workflow.Status
	Verified       bool
	SubmitterID    string
	Stages         map[workflow.Status]workflow.StageRecord
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkflowDocument projects the order into the shape the transition engine
// guards on.
func (o *Order) WorkflowDocument() workflow.Document {
	return workflow.Document{
		Kind:        workflow.KindPaymentOrder,
		ID:          o.ID,
		UnitID:      o.UnitID,
		Status:      o.Status,
		SubmitterID: o.SubmitterID,
		Verified:    o.Verified,
	}
}
