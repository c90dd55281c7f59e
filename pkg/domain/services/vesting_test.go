package services

import (
	"testing"
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"same_day", "2023-01-01", "2023-01-01", 0},
		{"ignores_day_of_month", "2023-01-31", "2023-02-01", 1},
		{"across_years", "2023-11-15", "2025-02-01", 15},
		{"end_before_start", "2023-05-01", "2023-01-01", -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthsBetween(entities.MustDate(tt.start), entities.MustDate(tt.end))
			if got != tt.expected {
				t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestVestedShares(t *testing.T) {
	schedules := map[string]entities.VestingSchedule{
		"std": {
			ID:                  "std",
			GrantDate:           entities.MustDate("2023-01-01"),
			VestingPeriodMonths: 48,
			CliffMonths:         12,
		},
		"instant": {
			ID:                  "instant",
			GrantDate:           entities.MustDate("2023-01-01"),
			VestingPeriodMonths: 0,
		},
	}

	holding := entities.Shareholding{StakeholderID: "f1", Shares: 480000, VestingScheduleID: "std"}

	tests := []struct {
		name     string
		holding  entities.Shareholding
		asOf     string
		expected entities.Shares
	}{
		{"before_grant", holding, "2022-12-31", 0},
		{"inside_cliff", holding, "2023-06-01", 0},
		{"one_month_before_cliff", holding, "2023-12-31", 0},
		{"at_cliff", holding, "2024-01-01", 120000},
		{"linear_after_cliff", holding, "2024-07-15", 180000},
		{"at_period_end", holding, "2027-01-01", 480000},
		{"after_period_end", holding, "2030-01-01", 480000},
		{"no_schedule", entities.Shareholding{Shares: 1000}, "2000-01-01", 1000},
		{"unknown_schedule", entities.Shareholding{Shares: 1000, VestingScheduleID: "missing"}, "2000-01-01", 1000},
		{"zero_period", entities.Shareholding{Shares: 1000, VestingScheduleID: "instant"}, "2023-01-01", 1000},
		{"floor_rounding", entities.Shareholding{Shares: 100, VestingScheduleID: "std"}, "2024-02-01", 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VestedShares(tt.holding, schedules, entities.MustDate(tt.asOf))
			if got != tt.expected {
				t.Errorf("VestedShares as of %s = %d, want %d", tt.asOf, got, tt.expected)
			}
		})
	}
}

func TestVestedShares_MonotonicBetweenCliffAndEnd(t *testing.T) {
	schedules := map[string]entities.VestingSchedule{
		"std": {ID: "std", GrantDate: entities.MustDate("2023-01-01"), VestingPeriodMonths: 48, CliffMonths: 12},
	}
	holding := entities.Shareholding{Shares: 1_000_000, VestingScheduleID: "std"}

	previous := entities.Shares(-1)
	for asOf := entities.MustDate("2024-01-01"); !asOf.After(entities.MustDate("2027-01-01")); asOf = asOf.AddDate(0, 1, 0) {
		got := VestedShares(holding, schedules, asOf)
		if got <= previous {
			t.Fatalf("vested shares not increasing at %s: %d after %d", asOf.Format(entities.DateLayout), got, previous)
		}
		previous = got
	}
	if previous != holding.Shares {
		t.Errorf("expected full vesting at period end, got %d", previous)
	}
}

func TestVestingSchedulesAsOf(t *testing.T) {
	founding, err := entities.NewFoundingTransaction("f", entities.MustDate("2023-01-01"), entities.Founding{
		CompanyName:      "Acme",
		ShareClasses:     []entities.ShareClass{{ID: "common", Name: "Common", VotesPerShare: 1}},
		VestingSchedules: []entities.VestingSchedule{{ID: "std", VestingPeriodMonths: 48, CliffMonths: 12}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	txs := []entities.Transaction{*founding}

	if got := VestingSchedulesAsOf(txs, entities.MustDate("2022-12-31")); len(got) != 0 {
		t.Errorf("expected no schedules before founding, got %d", len(got))
	}
	if got := VestingSchedulesAsOf(txs, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)); len(got) != 1 {
		t.Errorf("expected 1 schedule on founding date, got %d", len(got))
	}
}
