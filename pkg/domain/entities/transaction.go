package entities

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date layout used for every transaction date
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// MustDate parses a YYYY-MM-DD date and panics on malformed input.
// Intended for fixtures and examples.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TransactionType identifies which payload a Transaction carries
type TransactionType int

const (
	FoundingType TransactionType = iota
	ConvertibleLoanType
	FinancingRoundType
	EqualizationPurchaseType
	ShareTransferType
	DebtInstrumentType
	UpdateShareClassType
)

var transactionTypeNames = []string{
	"FOUNDING",
	"CONVERTIBLE_LOAN",
	"FINANCING_ROUND",
	"EQUALIZATION_PURCHASE",
	"SHARE_TRANSFER",
	"DEBT_INSTRUMENT",
	"UPDATE_SHARE_CLASS",
}

// String method for TransactionType enum
func (t TransactionType) String() string {
	if int(t) < 0 || int(t) >= len(transactionTypeNames) {
		return "UNKNOWN"
	}
	return transactionTypeNames[t]
}

// ParseTransactionType accepts FINANCING_ROUND, financing-round or FinancingRound
func ParseTransactionType(s string) (TransactionType, error) {
	idx := lookupEnum(transactionTypeNames, s)
	if idx < 0 {
		return FoundingType, fmt.Errorf("invalid transaction type: %s", s)
	}
	return TransactionType(idx), nil
}

func (t TransactionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(text []byte) error {
	parsed, err := ParseTransactionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TransactionStatus is the lifecycle state of a transaction
type TransactionStatus int

const (
	Draft TransactionStatus = iota
	Active
	Archived
)

var transactionStatusNames = []string{"DRAFT", "ACTIVE", "ARCHIVED"}

// String method for TransactionStatus enum
func (s TransactionStatus) String() string {
	if int(s) < 0 || int(s) >= len(transactionStatusNames) {
		return "UNKNOWN"
	}
	return transactionStatusNames[s]
}

// ParseTransactionStatus parses DRAFT, ACTIVE or ARCHIVED (case-insensitive)
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	idx := lookupEnum(transactionStatusNames, s)
	if idx < 0 {
		return Draft, fmt.Errorf("invalid status: %s (expected: DRAFT, ACTIVE or ARCHIVED)", s)
	}
	return TransactionStatus(idx), nil
}

func (s TransactionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransactionStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseTransactionStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Transaction is one immutable entry of the corporate-finance event log.
// Exactly one payload pointer is set, the one matching Type.
type Transaction struct {
	ID        string            `json:"id"`
	Type      TransactionType   `json:"type"`
	Date      time.Time         `json:"date"`
	Status    TransactionStatus `json:"status"`
	ValidFrom time.Time         `json:"valid_from"`
	ValidTo   *time.Time        `json:"valid_to,omitempty"`

	Founding             *Founding             `json:"founding,omitempty"`
	ConvertibleLoan      *ConvertibleLoan      `json:"convertible_loan,omitempty"`
	FinancingRound       *FinancingRound       `json:"financing_round,omitempty"`
	EqualizationPurchase *EqualizationPurchase `json:"equalization_purchase,omitempty"`
	ShareTransfer        *ShareTransfer        `json:"share_transfer,omitempty"`
	DebtInstrument       *DebtInstrument       `json:"debt_instrument,omitempty"`
	ShareClassUpdate     *ShareClassUpdate     `json:"share_class_update,omitempty"`
}

// IsActive reports whether the transaction participates in projections
func (tx *Transaction) IsActive() bool {
	return tx.Status == Active
}

// InEffect reports whether asOf falls inside the validity window
func (tx *Transaction) InEffect(asOf time.Time) bool {
	if asOf.Before(tx.ValidFrom) {
		return false
	}
	return tx.ValidTo == nil || !asOf.After(*tx.ValidTo)
}

// Validate checks that the header is complete and that exactly the payload
// matching Type is present
func (tx *Transaction) Validate() error {
	if strings.TrimSpace(tx.ID) == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("transaction %s: date cannot be empty", tx.ID)
	}
	if tx.ValidTo != nil && tx.ValidTo.Before(tx.ValidFrom) {
		return fmt.Errorf("transaction %s: valid_to %s is before valid_from %s",
			tx.ID, tx.ValidTo.Format(DateLayout), tx.ValidFrom.Format(DateLayout))
	}

	payloads := 0
	for _, set := range []bool{
		tx.Founding != nil,
		tx.ConvertibleLoan != nil,
		tx.FinancingRound != nil,
		tx.EqualizationPurchase != nil,
		tx.ShareTransfer != nil,
		tx.DebtInstrument != nil,
		tx.ShareClassUpdate != nil,
	} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return fmt.Errorf("transaction %s: expected exactly one payload, got %d", tx.ID, payloads)
	}

	var err error
	switch tx.Type {
	case FoundingType:
		err = requirePayload(tx.Founding != nil, tx)
		if err == nil {
			err = tx.Founding.validate()
		}
	case ConvertibleLoanType:
		err = requirePayload(tx.ConvertibleLoan != nil, tx)
		if err == nil {
			err = tx.ConvertibleLoan.validate()
		}
	case FinancingRoundType:
		err = requirePayload(tx.FinancingRound != nil, tx)
		if err == nil {
			err = tx.FinancingRound.validate()
		}
	case EqualizationPurchaseType:
		err = requirePayload(tx.EqualizationPurchase != nil, tx)
		if err == nil {
			err = tx.EqualizationPurchase.validate()
		}
	case ShareTransferType:
		err = requirePayload(tx.ShareTransfer != nil, tx)
		if err == nil {
			err = tx.ShareTransfer.validate()
		}
	case DebtInstrumentType:
		err = requirePayload(tx.DebtInstrument != nil, tx)
		if err == nil {
			err = tx.DebtInstrument.validate()
		}
	case UpdateShareClassType:
		err = requirePayload(tx.ShareClassUpdate != nil, tx)
		if err == nil {
			err = tx.ShareClassUpdate.validate()
		}
	default:
		err = fmt.Errorf("unknown transaction type %d", tx.Type)
	}
	if err != nil {
		return fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	return nil
}

func requirePayload(ok bool, tx *Transaction) error {
	if !ok {
		return fmt.Errorf("payload does not match type %s", tx.Type)
	}
	return nil
}

// newTransaction builds an active transaction whose validity starts on its date
func newTransaction(id string, date time.Time, txType TransactionType) Transaction {
	return Transaction{
		ID:        id,
		Type:      txType,
		Date:      date,
		Status:    Active,
		ValidFrom: date,
	}
}

func finish(tx Transaction) (*Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// NewFoundingTransaction creates a validated, active founding transaction
func NewFoundingTransaction(id string, date time.Time, founding Founding) (*Transaction, error) {
	tx := newTransaction(id, date, FoundingType)
	tx.Founding = &founding
	return finish(tx)
}

// NewConvertibleLoanTransaction creates a validated, active convertible loan
func NewConvertibleLoanTransaction(id string, date time.Time, loan ConvertibleLoan) (*Transaction, error) {
	tx := newTransaction(id, date, ConvertibleLoanType)
	tx.ConvertibleLoan = &loan
	return finish(tx)
}

// NewFinancingRoundTransaction creates a validated, active financing round
func NewFinancingRoundTransaction(id string, date time.Time, round FinancingRound) (*Transaction, error) {
	tx := newTransaction(id, date, FinancingRoundType)
	tx.FinancingRound = &round
	return finish(tx)
}

// NewEqualizationPurchaseTransaction creates a validated, active equalization purchase
func NewEqualizationPurchaseTransaction(id string, date time.Time, purchase EqualizationPurchase) (*Transaction, error) {
	tx := newTransaction(id, date, EqualizationPurchaseType)
	tx.EqualizationPurchase = &purchase
	return finish(tx)
}

// NewShareTransferTransaction creates a validated, active secondary transfer
func NewShareTransferTransaction(id string, date time.Time, transfer ShareTransfer) (*Transaction, error) {
	tx := newTransaction(id, date, ShareTransferType)
	tx.ShareTransfer = &transfer
	return finish(tx)
}

// NewDebtInstrumentTransaction creates a validated, active debt instrument
func NewDebtInstrumentTransaction(id string, date time.Time, debt DebtInstrument) (*Transaction, error) {
	tx := newTransaction(id, date, DebtInstrumentType)
	tx.DebtInstrument = &debt
	return finish(tx)
}

// NewUpdateShareClassTransaction creates a validated, active share-class amendment
func NewUpdateShareClassTransaction(id string, date time.Time, update ShareClassUpdate) (*Transaction, error) {
	tx := newTransaction(id, date, UpdateShareClassType)
	tx.ShareClassUpdate = &update
	return finish(tx)
}

// Founding creates the company with its initial classes and holdings
type Founding struct {
	CompanyName      string            `json:"company_name"`
	LegalForm        string            `json:"legal_form,omitempty"`
	Currency         string            `json:"currency,omitempty"`
	ShareClasses     []ShareClass      `json:"share_classes"`
	Shareholdings    []Shareholding    `json:"shareholdings"`
	VestingSchedules []VestingSchedule `json:"vesting_schedules,omitempty"`
}

func (f *Founding) validate() error {
	for _, sc := range f.ShareClasses {
		if err := sc.Validate(); err != nil {
			return err
		}
	}
	for _, sh := range f.Shareholdings {
		if err := sh.Validate(); err != nil {
			return err
		}
	}
	for _, vs := range f.VestingSchedules {
		if err := vs.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FinancingRound prices new shares off the pre-money valuation and may
// convert outstanding convertible loans
type FinancingRound struct {
	RoundName         string         `json:"round_name"`
	PreMoneyValuation float64        `json:"pre_money_valuation"`
	NewShareClass     ShareClass     `json:"new_share_class"`
	NewShareholdings  []Shareholding `json:"new_shareholdings"`
	ConvertsLoanIDs   []string       `json:"converts_loan_ids,omitempty"`
}

func (r *FinancingRound) validate() error {
	if r.PreMoneyValuation < 0 {
		return fmt.Errorf("pre-money valuation cannot be negative, got %v", r.PreMoneyValuation)
	}
	if err := r.NewShareClass.Validate(); err != nil {
		return err
	}
	for _, sh := range r.NewShareholdings {
		if err := sh.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EqualizationPurchase lets a late stakeholder buy in at a historical price
// plus interest accrued since the reference transaction
type EqualizationPurchase struct {
	NewStakeholderID         string  `json:"new_stakeholder_id"`
	NewStakeholderName       string  `json:"new_stakeholder_name"`
	PurchasedShares          Shares  `json:"purchased_shares"`
	ShareClassID             string  `json:"share_class_id"`
	PricePerShare            float64 `json:"price_per_share"`
	EqualizationInterestRate float64 `json:"equalization_interest_rate"`
	ReferenceTransactionID   string  `json:"reference_transaction_id"`
}

func (p *EqualizationPurchase) validate() error {
	if p.NewStakeholderID == "" {
		return fmt.Errorf("stakeholder id cannot be empty")
	}
	if p.ShareClassID == "" {
		return fmt.Errorf("share class id cannot be empty")
	}
	if p.PurchasedShares < 0 {
		return fmt.Errorf("purchased shares cannot be negative, got %d", p.PurchasedShares)
	}
	if p.PricePerShare < 0 {
		return fmt.Errorf("price per share cannot be negative, got %v", p.PricePerShare)
	}
	return nil
}

// AdditionalPayment is cash that changes hands alongside a transfer
type AdditionalPayment struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// ShareTransfer is a secondary sale between stakeholders
type ShareTransfer struct {
	SellerStakeholderID  string             `json:"seller_stakeholder_id"`
	BuyerStakeholderID   string             `json:"buyer_stakeholder_id"`
	BuyerStakeholderName string             `json:"buyer_stakeholder_name"`
	ShareClassID         string             `json:"share_class_id"`
	NumberOfShares       Shares             `json:"number_of_shares"`
	PricePerShare        float64            `json:"price_per_share"`
	AdditionalPayment    *AdditionalPayment `json:"additional_payment,omitempty"`
}

func (t *ShareTransfer) validate() error {
	if t.SellerStakeholderID == "" || t.BuyerStakeholderID == "" {
		return fmt.Errorf("seller and buyer cannot be empty")
	}
	if t.SellerStakeholderID == t.BuyerStakeholderID {
		return fmt.Errorf("seller and buyer cannot be the same: %s", t.SellerStakeholderID)
	}
	if t.ShareClassID == "" {
		return fmt.Errorf("share class id cannot be empty")
	}
	if t.NumberOfShares < 0 {
		return fmt.Errorf("number of shares cannot be negative, got %d", t.NumberOfShares)
	}
	if t.PricePerShare < 0 {
		return fmt.Errorf("price per share cannot be negative, got %v", t.PricePerShare)
	}
	return nil
}

// ShareClassUpdate amends an existing share class from its date onwards
type ShareClassUpdate struct {
	ShareClassID string          `json:"share_class_id"`
	Patch        ShareClassPatch `json:"patch"`
}

func (u *ShareClassUpdate) validate() error {
	if u.ShareClassID == "" {
		return fmt.Errorf("share class id to update cannot be empty")
	}
	return nil
}

// lookupEnum matches s against canonical SCREAMING_SNAKE names, ignoring case,
// dashes, spaces and underscores
func lookupEnum(names []string, s string) int {
	normalized := normalizeEnum(s)
	for i, name := range names {
		if normalizeEnum(name) == normalized {
			return i
		}
	}
	return -1
}

func normalizeEnum(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
