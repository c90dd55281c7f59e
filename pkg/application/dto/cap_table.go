package dto

import (
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// CapTable is the point-in-time ownership ledger produced by replaying the
// transaction log
type CapTable struct {
	AsOfDate          time.Time       `json:"as_of_date"`
	TotalShares       entities.Shares `json:"total_shares"`
	TotalVestedShares entities.Shares `json:"total_vested_shares"`
	TotalInvestment   float64         `json:"total_investment"`
	Entries           []CapTableEntry `json:"entries"`
	Rounds            []RoundPricing  `json:"rounds,omitempty"`
}

// CapTableEntry is one (stakeholder, share class) balance
type CapTableEntry struct {
	StakeholderID     string          `json:"stakeholder_id"`
	StakeholderName   string          `json:"stakeholder_name"`
	ShareClassID      string          `json:"share_class_id"`
	ShareClassName    string          `json:"share_class_name"`
	Shares            entities.Shares `json:"shares"`
	VestedShares      entities.Shares `json:"vested_shares"`
	Percentage        float64         `json:"percentage"`
	Investment        float64         `json:"investment"`
	VestingScheduleID string          `json:"vesting_schedule_id,omitempty"`
}

// PricePerShare is the average price paid for the entry's shares
func (e CapTableEntry) PricePerShare() float64 {
	if e.Shares == 0 {
		return 0
	}
	return e.Investment / float64(e.Shares)
}

// RoundPricing records how a financing round was priced during the replay
type RoundPricing struct {
	TransactionID      string          `json:"transaction_id"`
	RoundName          string          `json:"round_name"`
	Date               time.Time       `json:"date"`
	ShareClassID       string          `json:"share_class_id"`
	PreMoneyValuation  float64         `json:"pre_money_valuation"`
	PreRoundShares     entities.Shares `json:"pre_round_shares"`
	PricePerShare      float64         `json:"price_per_share"`
	NewMoney           float64         `json:"new_money"`
	SharesIssued       entities.Shares `json:"shares_issued"`
	ConvertedShares    entities.Shares `json:"converted_shares"`
	AntiDilutionShares entities.Shares `json:"anti_dilution_shares"`
	PostMoneyValuation float64         `json:"post_money_valuation"`
}

// LatestRound returns the most recent priced round, or nil when none exists
func (ct *CapTable) LatestRound() *RoundPricing {
	if ct == nil || len(ct.Rounds) == 0 {
		return nil
	}
	return &ct.Rounds[len(ct.Rounds)-1]
}

// StakeholderShares sums a stakeholder's shares across all classes
func (ct *CapTable) StakeholderShares(stakeholderID string) entities.Shares {
	var total entities.Shares
	for _, e := range ct.Entries {
		if e.StakeholderID == stakeholderID {
			total += e.Shares
		}
	}
	return total
}
