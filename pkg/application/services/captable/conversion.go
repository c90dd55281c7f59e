package captable

import (
	"math"

	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
)

// ConversionPrice is the price per share at which a convertible loan converts
// into a round priced at roundPrice with preRoundShares outstanding.
// A zero result means the loan converts into no shares.
func ConversionPrice(loan entities.ConvertibleLoan, roundPrice float64, preRoundShares entities.Shares) float64 {
	switch loan.Mechanism {
	case entities.CapAndDiscount:
		discounted := roundPrice * (1 - loan.Discount)
		capPrice := math.Inf(1)
		if loan.ValuationCap > 0 && preRoundShares > 0 {
			capPrice = loan.ValuationCap / float64(preRoundShares)
		}
		return min(discounted, capPrice, roundPrice)
	case entities.FixedPrice:
		return loan.FixedConversionPrice
	case entities.FixedRatio:
		sharesPerUnit := services.SafeDiv(loan.RatioShares, loan.RatioAmount)
		return services.SafeDiv(1, sharesPerUnit)
	default:
		return roundPrice
	}
}

// ConversionShares is the number of shares a conversion amount buys at price
func ConversionShares(amount, price float64) entities.Shares {
	if price <= 0 {
		return 0
	}
	return services.RoundShares(amount / price)
}
