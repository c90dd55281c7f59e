package captable

import (
	"sort"
	"time"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
)

const unknownShareClassName = "Unknown"

// holdingKey identifies one (stakeholder, share class) balance
type holdingKey struct {
	stakeholderID string
	shareClassID  string
}

// ledger accumulates shareholdings during a replay. Tranches of the same key
// are merged when they share an original price per share, so differently
// priced tranches stay distinguishable.
type ledger struct {
	order    []holdingKey
	tranches map[holdingKey][]entities.Shareholding
	names    map[string]string
}

func newLedger() *ledger {
	return &ledger{
		tranches: make(map[holdingKey][]entities.Shareholding),
		names:    make(map[string]string),
	}
}

func (l *ledger) add(sh entities.Shareholding) {
	if sh.StakeholderName != "" {
		l.names[sh.StakeholderID] = sh.StakeholderName
	} else if _, known := l.names[sh.StakeholderID]; !known {
		l.names[sh.StakeholderID] = sh.StakeholderID
	}

	key := holdingKey{stakeholderID: sh.StakeholderID, shareClassID: sh.ShareClassID}
	list, exists := l.tranches[key]
	if !exists {
		l.order = append(l.order, key)
	}

	for i := range list {
		if list[i].OriginalPricePerShare == sh.OriginalPricePerShare {
			list[i].Shares += sh.Shares
			list[i].Investment += sh.Investment
			return
		}
	}
	l.tranches[key] = append(list, sh)
}

// remove takes shares out of the oldest tranches first, reducing each
// tranche's investment in proportion. It never goes below zero and returns
// how many shares were actually removed.
func (l *ledger) remove(stakeholderID, shareClassID string, shares entities.Shares) entities.Shares {
	list := l.tranches[holdingKey{stakeholderID: stakeholderID, shareClassID: shareClassID}]

	remaining := shares
	for i := range list {
		if remaining <= 0 {
			break
		}
		t := &list[i]
		if t.Shares <= 0 {
			continue
		}
		take := min(remaining, t.Shares)
		t.Investment = max(0, t.Investment-t.Investment*float64(take)/float64(t.Shares))
		t.Shares -= take
		remaining -= take
	}
	return shares - max(0, remaining)
}

func (l *ledger) balance(key holdingKey) entities.Shares {
	var total entities.Shares
	for _, t := range l.tranches[key] {
		total += t.Shares
	}
	return total
}

// finalize turns the ledger into cap-table entries sorted by share count
func (l *ledger) finalize(
	asOf time.Time,
	classes *services.ShareClassRegistry,
	schedules map[string]entities.VestingSchedule,
	rounds []dto.RoundPricing,
) *dto.CapTable {
	table := &dto.CapTable{
		AsOfDate: asOf,
		Entries:  make([]dto.CapTableEntry, 0, len(l.order)),
		Rounds:   rounds,
	}

	for _, key := range l.order {
		shares := l.balance(key)
		if shares <= 0 {
			continue
		}

		tranches := l.tranches[key]
		var representative entities.Shareholding
		for _, t := range tranches {
			if t.Shares > 0 {
				representative = t
				break
			}
		}
		var investment float64
		for _, t := range tranches {
			investment += t.Investment
		}

		representative.Shares = shares
		vested := services.VestedShares(representative, schedules, asOf)

		className := unknownShareClassName
		if sc, ok := classes.Get(key.shareClassID); ok && sc.Name != "" {
			className = sc.Name
		}

		table.TotalShares += shares
		table.TotalVestedShares += vested
		table.TotalInvestment += investment
		table.Entries = append(table.Entries, dto.CapTableEntry{
			StakeholderID:     key.stakeholderID,
			StakeholderName:   l.names[key.stakeholderID],
			ShareClassID:      key.shareClassID,
			ShareClassName:    className,
			Shares:            shares,
			VestedShares:      vested,
			Investment:        investment,
			VestingScheduleID: representative.VestingScheduleID,
		})
	}

	for i := range table.Entries {
		table.Entries[i].Percentage = services.SafeDiv(float64(table.Entries[i].Shares), float64(table.TotalShares)) * 100
	}

	sort.SliceStable(table.Entries, func(i, j int) bool {
		return table.Entries[i].Shares > table.Entries[j].Shares
	})

	return table
}
