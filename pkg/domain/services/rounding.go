package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// RoundShares rounds a fractional share count half away from zero. NaN and
// infinities resolve to zero.
func RoundShares(v float64) entities.Shares {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return entities.Shares(decimal.NewFromFloat(v).Round(0).IntPart())
}

// SafeDiv returns a/b, or 0 when b is zero or the result is not finite
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}
