package entities

import "fmt"

// Seniority orders creditors in a liquidation
type Seniority int

const (
	SeniorSecured Seniority = iota
	SeniorUnsecured
	Subordinated
)

var seniorityNames = []string{"SENIOR_SECURED", "SENIOR_UNSECURED", "SUBORDINATED"}

// String method for Seniority enum
func (s Seniority) String() string {
	if int(s) < 0 || int(s) >= len(seniorityNames) {
		return "UNKNOWN"
	}
	return seniorityNames[s]
}

// RepaymentOrder is lower for creditors that are repaid first
func (s Seniority) RepaymentOrder() int {
	return int(s)
}

// ParseSeniority parses SENIOR_SECURED, SENIOR_UNSECURED or SUBORDINATED
func ParseSeniority(s string) (Seniority, error) {
	idx := lookupEnum(seniorityNames, s)
	if idx < 0 {
		return Subordinated, fmt.Errorf("invalid seniority: %s (expected: SENIOR_SECURED, SENIOR_UNSECURED or SUBORDINATED)", s)
	}
	return Seniority(idx), nil
}

func (s Seniority) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Seniority) UnmarshalText(text []byte) error {
	parsed, err := ParseSeniority(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ConversionMechanism determines the price at which a convertible loan converts
type ConversionMechanism int

const (
	CapAndDiscount ConversionMechanism = iota
	FixedPrice
	FixedRatio
)

var conversionMechanismNames = []string{"CAP_AND_DISCOUNT", "FIXED_PRICE", "FIXED_RATIO"}

// String method for ConversionMechanism enum
func (c ConversionMechanism) String() string {
	if int(c) < 0 || int(c) >= len(conversionMechanismNames) {
		return "UNKNOWN"
	}
	return conversionMechanismNames[c]
}

// ParseConversionMechanism parses CAP_AND_DISCOUNT, FIXED_PRICE or FIXED_RATIO
func ParseConversionMechanism(s string) (ConversionMechanism, error) {
	idx := lookupEnum(conversionMechanismNames, s)
	if idx < 0 {
		return CapAndDiscount, fmt.Errorf("invalid conversion mechanism: %s", s)
	}
	return ConversionMechanism(idx), nil
}

func (c ConversionMechanism) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ConversionMechanism) UnmarshalText(text []byte) error {
	parsed, err := ParseConversionMechanism(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ConvertibleLoan is a hybrid instrument that converts into the class of a
// later financing round
type ConvertibleLoan struct {
	InvestorName  string              `json:"investor_name"`
	StakeholderID string              `json:"stakeholder_id"`
	Amount        float64             `json:"amount"`
	InterestRate  float64             `json:"interest_rate,omitempty"`
	Mechanism     ConversionMechanism `json:"conversion_mechanism"`

	// CapAndDiscount
	ValuationCap float64 `json:"valuation_cap,omitempty"`
	Discount     float64 `json:"discount,omitempty"`

	// FixedPrice
	FixedConversionPrice float64 `json:"fixed_conversion_price,omitempty"`

	// FixedRatio: RatioShares shares per RatioAmount of principal
	RatioShares float64 `json:"ratio_shares,omitempty"`
	RatioAmount float64 `json:"ratio_amount,omitempty"`

	Seniority Seniority `json:"seniority"`
}

func (l *ConvertibleLoan) validate() error {
	if l.StakeholderID == "" {
		return fmt.Errorf("stakeholder id cannot be empty")
	}
	if l.Amount < 0 {
		return fmt.Errorf("amount cannot be negative, got %v", l.Amount)
	}
	if l.InterestRate < 0 {
		return fmt.Errorf("interest rate cannot be negative, got %v", l.InterestRate)
	}
	if l.Discount < 0 || l.Discount >= 1 {
		return fmt.Errorf("discount must be in [0, 1), got %v", l.Discount)
	}
	return nil
}

// DebtInstrument is plain debt repaid ahead of all equity
type DebtInstrument struct {
	LenderName   string    `json:"lender_name"`
	Amount       float64   `json:"amount"`
	InterestRate float64   `json:"interest_rate"`
	Seniority    Seniority `json:"seniority"`
}

func (d *DebtInstrument) validate() error {
	if d.LenderName == "" {
		return fmt.Errorf("lender name cannot be empty")
	}
	if d.Amount < 0 {
		return fmt.Errorf("amount cannot be negative, got %v", d.Amount)
	}
	if d.InterestRate < 0 {
		return fmt.Errorf("interest rate cannot be negative, got %v", d.InterestRate)
	}
	return nil
}
