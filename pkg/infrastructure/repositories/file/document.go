package file

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// amount accepts plain numbers as well as quoted figures with thousands
// separators, such as "1,000,000" or "2_500.50"
type amount float64

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected a number, got %s", node.Tag)
	}
	raw := strings.NewReplacer(",", "", "_", "", " ", "").Replace(node.Value)
	if raw == "" {
		*a = 0
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid number %q", node.Value)
	}
	*a = amount(d.InexactFloat64())
	return nil
}

type projectDocument struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	Currency     string                `yaml:"currency"`
	Stakeholders []stakeholderDocument `yaml:"stakeholders"`
	Transactions []transactionDocument `yaml:"transactions"`
}

type stakeholderDocument struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type shareClassDocument struct {
	ID                          string   `yaml:"id"`
	Name                        string   `yaml:"name"`
	LiquidationPreferenceRank   int      `yaml:"liquidationPreferenceRank"`
	LiquidationPreferenceFactor *amount  `yaml:"liquidationPreferenceFactor"`
	LiquidationPreferenceType   string   `yaml:"liquidationPreferenceType"`
	ParticipationCapFactor      amount   `yaml:"participationCapFactor"`
	AntiDilutionProtection      string   `yaml:"antiDilutionProtection"`
	VotesPerShare               *amount  `yaml:"votesPerShare"`
	ProtectiveProvisions        []string `yaml:"protectiveProvisions"`
}

type shareClassPatchDocument struct {
	Name                        *string  `yaml:"name"`
	LiquidationPreferenceRank   *int     `yaml:"liquidationPreferenceRank"`
	LiquidationPreferenceFactor *amount  `yaml:"liquidationPreferenceFactor"`
	LiquidationPreferenceType   *string  `yaml:"liquidationPreferenceType"`
	ParticipationCapFactor      *amount  `yaml:"participationCapFactor"`
	AntiDilutionProtection      *string  `yaml:"antiDilutionProtection"`
	VotesPerShare               *amount  `yaml:"votesPerShare"`
	ProtectiveProvisions        []string `yaml:"protectiveProvisions"`
}

type shareholdingDocument struct {
	ID                    string `yaml:"id"`
	StakeholderID         string `yaml:"stakeholderId"`
	StakeholderName       string `yaml:"stakeholderName"`
	ShareClassID          string `yaml:"shareClassId"`
	Shares                int64  `yaml:"shares"`
	Investment            amount `yaml:"investment"`
	OriginalPricePerShare amount `yaml:"originalPricePerShare"`
	VestingScheduleID     string `yaml:"vestingScheduleId"`
}

type vestingScheduleDocument struct {
	ID                  string `yaml:"id"`
	Name                string `yaml:"name"`
	GrantDate           string `yaml:"grantDate"`
	VestingPeriodMonths int    `yaml:"vestingPeriodMonths"`
	CliffMonths         int    `yaml:"cliffMonths"`
	Acceleration        string `yaml:"acceleration"`
}

type additionalPaymentDocument struct {
	Amount      amount `yaml:"amount"`
	Description string `yaml:"description"`
}

// transactionDocument is the flat exported record; only the fields of its
// type are read
type transactionDocument struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	Date      string `yaml:"date"`
	Status    string `yaml:"status"`
	ValidFrom string `yaml:"validFrom"`
	ValidTo   string `yaml:"validTo"`

	// FOUNDING
	CompanyName      string                    `yaml:"companyName"`
	LegalForm        string                    `yaml:"legalForm"`
	Currency         string                    `yaml:"currency"`
	ShareClasses     []shareClassDocument      `yaml:"shareClasses"`
	Shareholdings    []shareholdingDocument    `yaml:"shareholdings"`
	VestingSchedules []vestingScheduleDocument `yaml:"vestingSchedules"`

	// CONVERTIBLE_LOAN
	InvestorName         string `yaml:"investorName"`
	StakeholderID        string `yaml:"stakeholderId"`
	ConversionMechanism  string `yaml:"conversionMechanism"`
	ValuationCap         amount `yaml:"valuationCap"`
	Discount             amount `yaml:"discount"`
	FixedConversionPrice amount `yaml:"fixedConversionPrice"`
	RatioShares          amount `yaml:"ratioShares"`
	RatioAmount          amount `yaml:"ratioAmount"`

	// CONVERTIBLE_LOAN and DEBT_INSTRUMENT
	Amount       amount `yaml:"amount"`
	InterestRate amount `yaml:"interestRate"`
	Seniority    string `yaml:"seniority"`
	LenderName   string `yaml:"lenderName"`

	// FINANCING_ROUND
	RoundName         string                 `yaml:"roundName"`
	PreMoneyValuation amount                 `yaml:"preMoneyValuation"`
	NewShareClass     *shareClassDocument    `yaml:"newShareClass"`
	NewShareholdings  []shareholdingDocument `yaml:"newShareholdings"`
	ConvertsLoanIDs   []string               `yaml:"convertsLoanIds"`

	// EQUALIZATION_PURCHASE
	NewStakeholderID         string `yaml:"newStakeholderId"`
	NewStakeholderName       string `yaml:"newStakeholderName"`
	PurchasedShares          int64  `yaml:"purchasedShares"`
	EqualizationInterestRate amount `yaml:"equalizationInterestRate"`
	ReferenceTransactionID   string `yaml:"referenceTransactionId"`

	// EQUALIZATION_PURCHASE and SHARE_TRANSFER
	ShareClassID  string `yaml:"shareClassId"`
	PricePerShare amount `yaml:"pricePerShare"`

	// SHARE_TRANSFER
	SellerStakeholderID  string                     `yaml:"sellerStakeholderId"`
	BuyerStakeholderID   string                     `yaml:"buyerStakeholderId"`
	BuyerStakeholderName string                     `yaml:"buyerStakeholderName"`
	NumberOfShares       int64                      `yaml:"numberOfShares"`
	AdditionalPayment    *additionalPaymentDocument `yaml:"additionalPayment"`

	// UPDATE_SHARE_CLASS
	ShareClassIDToUpdate string                   `yaml:"shareClassIdToUpdate"`
	UpdatedProperties    *shareClassPatchDocument `yaml:"updatedProperties"`
}
