package services

import (
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// VestingSchedulesAsOf collects the vesting schedules declared by founding
// transactions dated on or before asOf
func VestingSchedulesAsOf(transactions []entities.Transaction, asOf time.Time) map[string]entities.VestingSchedule {
	schedules := make(map[string]entities.VestingSchedule)
	for _, tx := range ReplayOrder(transactions, asOf, "") {
		if tx.Type != entities.FoundingType || tx.Founding == nil {
			continue
		}
		for _, vs := range tx.Founding.VestingSchedules {
			schedules[vs.ID] = vs
		}
	}
	return schedules
}

// MonthsBetween is the calendar month difference from start to end, ignoring
// the day of month
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// VestedShares returns how many of the holding's shares are vested on asOf.
// Holdings without a (known) schedule are fully vested. Vesting is linear in
// whole months after the cliff and rounded down.
func VestedShares(holding entities.Shareholding, schedules map[string]entities.VestingSchedule, asOf time.Time) entities.Shares {
	if holding.VestingScheduleID == "" {
		return holding.Shares
	}
	schedule, ok := schedules[holding.VestingScheduleID]
	if !ok {
		return holding.Shares
	}

	if asOf.Before(schedule.GrantDate) {
		return 0
	}

	elapsed := MonthsBetween(schedule.GrantDate, asOf)
	if elapsed < schedule.CliffMonths {
		return 0
	}
	if schedule.VestingPeriodMonths == 0 {
		return holding.Shares
	}

	vestedMonths := min(elapsed, schedule.VestingPeriodMonths)
	// integer arithmetic is the exact floor of vestedMonths/period * shares
	return entities.Shares(int64(vestedMonths) * int64(holding.Shares) / int64(schedule.VestingPeriodMonths))
}
