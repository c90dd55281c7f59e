package dto

import "github.com/vsinha/captable/pkg/domain/entities"

// DebtShareClassID marks the synthetic distribution rows of debt lenders
const DebtShareClassID = "debt"

// WaterfallDistribution is the payout to one (stakeholder, share class) pair,
// or to one lender for debt rows
type WaterfallDistribution struct {
	StakeholderID   string          `json:"stakeholder_id"`
	StakeholderName string          `json:"stakeholder_name"`
	ShareClassID    string          `json:"share_class_id"`
	ShareClassName  string          `json:"share_class_name"`
	Shares          entities.Shares `json:"shares"`
	Investment      float64         `json:"investment"`

	FromDebtRepayment         float64 `json:"from_debt_repayment"`
	FromLiquidationPreference float64 `json:"from_liquidation_preference"`
	FromParticipation         float64 `json:"from_participation"`
	FromConvertedShares       float64 `json:"from_converted_shares"`

	TotalProceeds float64 `json:"total_proceeds"`
	Multiple      float64 `json:"multiple"`
}

// IsDebt reports whether the row belongs to a lender
func (d WaterfallDistribution) IsDebt() bool {
	return d.ShareClassID == DebtShareClassID
}

// WaterfallResult is the outcome of an exit simulation
type WaterfallResult struct {
	ExitProceeds     float64                 `json:"exit_proceeds"`
	TransactionCosts float64                 `json:"transaction_costs"`
	NetExitProceeds  float64                 `json:"net_exit_proceeds"`
	Distributions    []WaterfallDistribution `json:"distributions"`
	TotalDistributed float64                 `json:"total_distributed"`
	RemainingValue   float64                 `json:"remaining_value"`
	CalculationLog   []string                `json:"calculation_log"`
}
