package services

import (
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// DaysPerYear is the day-count basis for simple interest
const DaysPerYear = 365.25

// SimpleInterest accrues non-compounding interest on principal from start to end
func SimpleInterest(principal, rate float64, start, end time.Time) float64 {
	if rate == 0 || end.Before(start) {
		return 0
	}
	years := end.Sub(start).Hours() / 24 / DaysPerYear
	return principal * rate * years
}

// AccruedInterest returns the interest a convertible loan or debt instrument
// has accrued from its issue date to asOf; other transactions accrue nothing
func AccruedInterest(instrument *entities.Transaction, asOf time.Time) float64 {
	if instrument == nil {
		return 0
	}
	switch instrument.Type {
	case entities.ConvertibleLoanType:
		if instrument.ConvertibleLoan == nil {
			return 0
		}
		loan := instrument.ConvertibleLoan
		return SimpleInterest(loan.Amount, loan.InterestRate, instrument.Date, asOf)
	case entities.DebtInstrumentType:
		if instrument.DebtInstrument == nil {
			return 0
		}
		debt := instrument.DebtInstrument
		return SimpleInterest(debt.Amount, debt.InterestRate, instrument.Date, asOf)
	default:
		return 0
	}
}

// Principal returns the face amount of a convertible loan or debt instrument
func Principal(instrument *entities.Transaction) float64 {
	if instrument == nil {
		return 0
	}
	switch {
	case instrument.Type == entities.ConvertibleLoanType && instrument.ConvertibleLoan != nil:
		return instrument.ConvertibleLoan.Amount
	case instrument.Type == entities.DebtInstrumentType && instrument.DebtInstrument != nil:
		return instrument.DebtInstrument.Amount
	default:
		return 0
	}
}

// EqualizationInterest is the interest a late investor pays on the purchase
// price for the time elapsed since the reference transaction. A missing
// reference accrues nothing.
func EqualizationInterest(purchase, reference *entities.Transaction) float64 {
	if purchase == nil || reference == nil || purchase.EqualizationPurchase == nil {
		return 0
	}
	p := purchase.EqualizationPurchase
	base := p.PricePerShare * float64(p.PurchasedShares)
	return SimpleInterest(base, p.EqualizationInterestRate, reference.Date, purchase.Date)
}
