package domain

import (
	"errors"
	"testing"
)

func TestComputeDeductions_SingleVATLine(t *testing.T) {
	got, err := ComputeDeductions(10_000_000, []DeductionLine{
		{Category: DeductionVAT, RateBP: 200, Base: 10_000_000},
	})
	if err != nil {
		t.Fatalf("ComputeDeductions: %v", err)
	}
	if got.TotalDeduction != 200_000 {
		t.Fatalf("TotalDeduction = %d, want 200000", got.TotalDeduction)
	}
	if got.NetAmount != 9_800_000 {
		t.Fatalf("NetAmount = %d, want 9800000", got.NetAmount)
	}
	if got.Lines[0].Amount != 200_000 {
		t.Fatalf("line amount = %d, want 200000", got.Lines[0].Amount)
	}
}

func TestComputeDeductions_TruncatesTowardZero(t *testing.T) {
	// 1.5% of 333 = 4.995, truncated to 4.
	got, err := ComputeDeductions(333, []DeductionLine{
		{Category: DeductionIncomeArt22, RateBP: 150, Base: 333},
	})
	if err != nil {
		t.Fatalf("ComputeDeductions: %v", err)
	}
	if got.TotalDeduction != 4 {
		t.Fatalf("TotalDeduction = %d, want 4", got.TotalDeduction)
	}
	if got.NetAmount != 329 {
		t.Fatalf("NetAmount = %d, want 329", got.NetAmount)
	}
}

func TestComputeDeductions_MultipleLines(t *testing.T) {
	got, err := ComputeDeductions(5_000_000, []DeductionLine{
		{Category: DeductionVAT, RateBP: 1100, Base: 5_000_000},
		{Category: DeductionIncomeArt23, RateBP: 200, Base: 5_000_000},
	})
	if err != nil {
		t.Fatalf("ComputeDeductions: %v", err)
	}
	if got.TotalDeduction != 650_000 {
		t.Fatalf("TotalDeduction = %d, want 650000", got.TotalDeduction)
	}
	if got.NetAmount+got.TotalDeduction != 5_000_000 {
		t.Fatalf("net %d + total %d != gross", got.NetAmount, got.TotalDeduction)
	}
}

func TestComputeDeductions_RejectsNegativeNet(t *testing.T) {
	_, err := ComputeDeductions(100, []DeductionLine{
		{Category: DeductionVAT, RateBP: 10000, Base: 100},
		{Category: DeductionOther, RateBP: 100, Base: 100},
	})
	if !errors.Is(err, ErrNegativeNet) {
		t.Fatalf("err = %v, want ErrNegativeNet", err)
	}
}

func TestComputeDeductions_RejectsRateOutOfRange(t *testing.T) {
	_, err := ComputeDeductions(100, []DeductionLine{
		{Category: DeductionVAT, RateBP: 10001, Base: 100},
	})
	if err == nil {
		t.Fatal("want error for rate above 100%")
	}
}

func TestComputeDeductions_EmptyLines(t *testing.T) {
	got, err := ComputeDeductions(1_000, nil)
	if err != nil {
		t.Fatalf("ComputeDeductions: %v", err)
	}
	if got.TotalDeduction != 0 || got.NetAmount != 1_000 {
		t.Fatalf("got %+v, want zero deduction and full net", got)
	}
}
