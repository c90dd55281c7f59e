package captable

import (
	"fmt"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
)

// AdjustedPrice returns the protected holder's new effective price per share
// after a down round.
//
//	FullRatchet: the round price.
//	BroadBased and NarrowBased: originalPrice * (A + B) / (A + C), where A is
//	the outstanding share base, B the shares newMoney buys at originalPrice
//	and C the shares it buys at roundPrice.
func AdjustedPrice(
	protection entities.AntiDilutionProtection,
	originalPrice, roundPrice float64,
	outstanding entities.Shares,
	newMoney float64,
) float64 {
	switch protection {
	case entities.FullRatchet:
		return roundPrice
	case entities.BroadBased, entities.NarrowBased:
		a := float64(outstanding)
		b := services.SafeDiv(newMoney, originalPrice)
		c := services.SafeDiv(newMoney, roundPrice)
		return services.SafeDiv(originalPrice*(a+b), a+c)
	case entities.NoAntiDilution:
		return originalPrice
	default:
		return originalPrice
	}
}

// antiDilutionTopUps computes the zero-cost shares owed to protected holders
// of the pre-round table when the round is priced below what they paid
func antiDilutionTopUps(
	roundID string,
	before *dto.CapTable,
	classes *services.ShareClassRegistry,
	roundPrice, newMoney float64,
) []entities.Shareholding {
	if roundPrice <= 0 {
		return nil
	}

	topUps := make([]entities.Shareholding, 0)
	for _, entry := range before.Entries {
		sc, ok := classes.Get(entry.ShareClassID)
		if !ok || sc.AntiDilutionProtection == entities.NoAntiDilution || entry.Investment <= 0 {
			continue
		}

		originalPrice := entry.PricePerShare()
		if originalPrice == 0 || roundPrice >= originalPrice {
			continue
		}

		outstanding := before.TotalShares
		if sc.AntiDilutionProtection == entities.NarrowBased {
			outstanding = sharesAtOrAboveRank(before, classes, sc.LiquidationPreferenceRank)
		}

		newPrice := AdjustedPrice(sc.AntiDilutionProtection, originalPrice, roundPrice, outstanding, newMoney)
		if newPrice <= 0 {
			continue
		}
		additional := services.RoundShares(entry.Investment/newPrice - float64(entry.Shares))
		if additional <= 0 {
			continue
		}

		topUps = append(topUps, entities.Shareholding{
			ID:                fmt.Sprintf("ad-%s-%s-%s", roundID, entry.StakeholderID, entry.ShareClassID),
			StakeholderID:     entry.StakeholderID,
			StakeholderName:   entry.StakeholderName,
			ShareClassID:      entry.ShareClassID,
			Shares:            additional,
			VestingScheduleID: entry.VestingScheduleID,
		})
	}
	return topUps
}

func sharesAtOrAboveRank(table *dto.CapTable, classes *services.ShareClassRegistry, rank int) entities.Shares {
	var total entities.Shares
	for _, e := range table.Entries {
		if sc, ok := classes.Get(e.ShareClassID); ok && sc.LiquidationPreferenceRank >= rank {
			total += e.Shares
		}
	}
	return total
}
