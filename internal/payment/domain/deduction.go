package domain

import (
	"errors"
	"fmt"
)

// ErrNegativeNet is returned when deductions exceed the gross amount.
var ErrNegativeNet = errors.New("payment: total deduction exceeds gross amount")

// Deductions is the computed withholding summary for a payment order.
type Deductions struct {
	Lines          []DeductionLine
	TotalDeduction int64
	NetAmount      int64
}

// ComputeDeductions fills each line's Amount from its base and rate, then
// derives the total and the net payable amount. Line amounts truncate toward
// zero; there are no fractional currency units. The computation happens before
// any write, so a negative net rejects the whole order untouched.
func ComputeDeductions(grossAmount int64, lines []DeductionLine) (Deductions, error) {
	if grossAmount < 0 {
		return Deductions{}, fmt.Errorf("payment: gross amount must be non-negative, got %d", grossAmount)
	}

	out := make([]DeductionLine, len(lines))
	var total int64
	for i, line := range lines {
		if line.RateBP < 0 || line.RateBP > 10000 {
			return Deductions{}, fmt.Errorf("payment: rate for %s out of range: %d basis points", line.Category, line.RateBP)
		}
		if line.Base < 0 {
			return Deductions{}, fmt.Errorf("payment: base for %s must be non-negative, got %d", line.Category, line.Base)
		}
		line.Amount = line.Base * line.RateBP / 10000
		out[i] = line
		total += line.Amount
	}

	net := grossAmount - total
	if net < 0 {
		return Deductions{}, fmt.Errorf("%w: gross %d, deducted %d", ErrNegativeNet, grossAmount, total)
	}
	return Deductions{Lines: out, TotalDeduction: total, NetAmount: net}, nil
}
