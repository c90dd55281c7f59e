package services

import (
	"math"
	"testing"

	"github.com/vsinha/captable/pkg/domain/entities"
)

func TestSimpleInterest(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		start     string
		end       string
		expected  float64
	}{
		{"zero_rate", 100_000, 0, "2023-01-01", "2024-01-01", 0},
		{"end_before_start", 100_000, 0.08, "2024-01-01", "2023-01-01", 0},
		{"same_day", 100_000, 0.08, "2024-01-01", "2024-01-01", 0},
		{"one_leap_year", 100_000, 0.08, "2024-01-01", "2025-01-01", 100_000 * 0.08 * 366 / 365.25},
		{"half_year", 500_000, 0.06, "2023-01-01", "2023-07-01", 500_000 * 0.06 * 181 / 365.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimpleInterest(tt.principal, tt.rate, entities.MustDate(tt.start), entities.MustDate(tt.end))
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("SimpleInterest = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAccruedInterest(t *testing.T) {
	loan := mustTx(entities.NewConvertibleLoanTransaction("loan", entities.MustDate("2023-01-01"), entities.ConvertibleLoan{
		InvestorName: "Angel", StakeholderID: "angel", Amount: 100_000, InterestRate: 0.08,
	}))
	debt := mustTx(entities.NewDebtInstrumentTransaction("debt", entities.MustDate("2023-01-01"), entities.DebtInstrument{
		LenderName: "Bank", Amount: 500_000, InterestRate: 0.06,
	}))
	founding := mustTx(entities.NewFoundingTransaction("f", entities.MustDate("2023-01-01"), entities.Founding{CompanyName: "Acme"}))

	asOf := entities.MustDate("2024-01-01")

	if got, want := AccruedInterest(&loan, asOf), 100_000*0.08*365/365.25; math.Abs(got-want) > 1e-6 {
		t.Errorf("loan interest = %v, want %v", got, want)
	}
	if got, want := AccruedInterest(&debt, asOf), 500_000*0.06*365/365.25; math.Abs(got-want) > 1e-6 {
		t.Errorf("debt interest = %v, want %v", got, want)
	}
	if got := AccruedInterest(&founding, asOf); got != 0 {
		t.Errorf("founding accrues nothing, got %v", got)
	}
	if got := AccruedInterest(nil, asOf); got != 0 {
		t.Errorf("nil instrument accrues nothing, got %v", got)
	}
	if Principal(&loan) != 100_000 || Principal(&debt) != 500_000 || Principal(&founding) != 0 {
		t.Error("unexpected principal")
	}
}

func TestEqualizationInterest(t *testing.T) {
	reference := mustTx(entities.NewFoundingTransaction("f", entities.MustDate("2023-01-01"), entities.Founding{CompanyName: "Acme"}))
	purchase := mustTx(entities.NewEqualizationPurchaseTransaction("eq", entities.MustDate("2024-01-01"), entities.EqualizationPurchase{
		NewStakeholderID: "late", NewStakeholderName: "Late Investor", PurchasedShares: 1000,
		ShareClassID: "common", PricePerShare: 10, EqualizationInterestRate: 0.05, ReferenceTransactionID: "f",
	}))

	want := 10_000 * 0.05 * 365 / 365.25
	if got := EqualizationInterest(&purchase, &reference); math.Abs(got-want) > 1e-6 {
		t.Errorf("EqualizationInterest = %v, want %v", got, want)
	}
	if got := EqualizationInterest(&purchase, nil); got != 0 {
		t.Errorf("missing reference accrues nothing, got %v", got)
	}
}
