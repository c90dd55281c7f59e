package dto

import (
	"fmt"
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// PayoutSummaryEntry is a stakeholder's total payout across all rows
type PayoutSummaryEntry struct {
	StakeholderID     string  `json:"stakeholder_id"`
	StakeholderName   string  `json:"stakeholder_name"`
	TotalPayout       float64 `json:"total_payout"`
	Investment        float64 `json:"investment"`
	Multiple          float64 `json:"multiple"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

// PayoutSummary groups a waterfall result by stakeholder
type PayoutSummary struct {
	Entries     []PayoutSummaryEntry `json:"entries"`
	TotalPayout float64              `json:"total_payout"`
}

// InstrumentType classifies a row of the total capitalization view
type InstrumentType int

const (
	Equity InstrumentType = iota
	Hybrid
	Debt
)

// String method for InstrumentType enum
func (t InstrumentType) String() string {
	switch t {
	case Equity:
		return "Equity"
	case Hybrid:
		return "Hybrid"
	case Debt:
		return "Debt"
	default:
		return fmt.Sprintf("InstrumentType(%d)", int(t))
	}
}

// MarshalText encodes the instrument type by name
func (t InstrumentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// CapitalizationEntry is one instrument in the total capitalization view
type CapitalizationEntry struct {
	Key             string          `json:"key"`
	StakeholderName string          `json:"stakeholder_name"`
	InstrumentName  string          `json:"instrument_name"`
	InstrumentType  InstrumentType  `json:"instrument_type"`
	Shares          entities.Shares `json:"shares,omitempty"`
	Principal       float64         `json:"principal,omitempty"`
	Interest        float64         `json:"interest,omitempty"`
	Value           float64         `json:"value"`
}

// TotalCapitalization values equity, unconverted hybrid instruments and debt
// as of a date
type TotalCapitalization struct {
	AsOfDate      time.Time             `json:"as_of_date"`
	Currency      string                `json:"currency"`
	PricePerShare float64               `json:"price_per_share"`
	Entries       []CapitalizationEntry `json:"entries"`
	EquityValue   float64               `json:"equity_value"`
	HybridValue   float64               `json:"hybrid_value"`
	DebtValue     float64               `json:"debt_value"`
	TotalValue    float64               `json:"total_value"`
}

// CashflowEntry is one cash movement into the company
type CashflowEntry struct {
	Key         string                   `json:"key"`
	Date        time.Time                `json:"date"`
	Type        entities.TransactionType `json:"type"`
	Description string                   `json:"description"`
	CashIn      float64                  `json:"cash_in"`
	Balance     float64                  `json:"balance"`
}

// Cashflow is the company's cash-in ledger up to a date
type Cashflow struct {
	Currency     string          `json:"currency"`
	Entries      []CashflowEntry `json:"entries"`
	FinalBalance float64         `json:"final_balance"`
}

// Severity grades an assessment finding
type Severity int

const (
	Danger Severity = iota
	Warning
	Info
)

// String method for Severity enum
func (s Severity) String() string {
	switch s {
	case Danger:
		return "danger"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finding is a single rule hit of the project assessment
type Finding struct {
	Severity      Severity `json:"severity"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	TransactionID string   `json:"transaction_id,omitempty"`
}

// Assessment is the rule-based scan of a project's terms
type Assessment struct {
	AsOfDate time.Time `json:"as_of_date"`
	Findings []Finding `json:"findings"`
}
