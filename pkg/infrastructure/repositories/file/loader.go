// Package file loads projects from YAML or JSON project files.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// ImportError reports the file and field that could not be imported
type ImportError struct {
	File  string
	Field string
	Err   error
}

func (e *ImportError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("import %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("import %s: %s: %v", e.File, e.Field, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Loader reads project files
type Loader struct{}

// NewLoader creates a new project file loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadProject reads and parses the project file at path
func (l *Loader) LoadProject(path string) (*entities.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImportError{File: path, Err: fmt.Errorf("failed to read project file: %w", err)}
	}
	project, err := l.ParseProject(path, data)
	if err != nil {
		return nil, err
	}
	if project.Name == "" {
		project.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return project, nil
}

// ParseProject parses a YAML or JSON project document. name identifies the
// source in errors. Transactions without an id get a random one.
func (l *Loader) ParseProject(name string, data []byte) (*entities.Project, error) {
	var doc projectDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ImportError{File: name, Err: fmt.Errorf("failed to decode project: %w", err)}
	}
	if len(doc.Transactions) == 0 {
		return nil, &ImportError{File: name, Field: "transactions", Err: fmt.Errorf("no transactions found")}
	}

	project := &entities.Project{
		ID:           doc.ID,
		Name:         doc.Name,
		Currency:     doc.Currency,
		Transactions: make([]entities.Transaction, 0, len(doc.Transactions)),
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	for _, s := range doc.Stakeholders {
		project.Stakeholders = append(project.Stakeholders, entities.Stakeholder(s))
	}

	for i, td := range doc.Transactions {
		tx, field, err := convertTransaction(td)
		if err != nil {
			prefix := fmt.Sprintf("transactions[%d]", i)
			if field != "" {
				prefix += "." + field
			}
			return nil, &ImportError{File: name, Field: prefix, Err: err}
		}
		project.Transactions = append(project.Transactions, tx)
	}
	return project, nil
}

// fieldError carries the name of the offending field up to ParseProject
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.err.Error() }

func fieldErr(field string, err error) error {
	return &fieldError{field: field, err: err}
}

func convertTransaction(td transactionDocument) (tx entities.Transaction, field string, err error) {
	defer func() {
		var fe *fieldError
		if errors.As(err, &fe) {
			field, err = fe.field, fe.err
		}
	}()

	if td.ID == "" {
		td.ID = uuid.NewString()
	}
	txType, err := entities.ParseTransactionType(td.Type)
	if err != nil {
		return tx, "", fieldErr("type", err)
	}
	date, err := entities.ParseDate(td.Date)
	if err != nil {
		return tx, "", fieldErr("date", err)
	}

	tx = entities.Transaction{
		ID:        td.ID,
		Type:      txType,
		Date:      date,
		Status:    entities.Active,
		ValidFrom: date,
	}
	if td.Status != "" {
		if tx.Status, err = entities.ParseTransactionStatus(td.Status); err != nil {
			return tx, "", fieldErr("status", err)
		}
	}
	if td.ValidFrom != "" {
		if tx.ValidFrom, err = entities.ParseDate(td.ValidFrom); err != nil {
			return tx, "", fieldErr("validFrom", err)
		}
	}
	if td.ValidTo != "" {
		validTo, err := entities.ParseDate(td.ValidTo)
		if err != nil {
			return tx, "", fieldErr("validTo", err)
		}
		tx.ValidTo = &validTo
	}

	switch txType {
	case entities.FoundingType:
		err = convertFounding(&tx, td)
	case entities.ConvertibleLoanType:
		err = convertLoan(&tx, td)
	case entities.FinancingRoundType:
		err = convertRound(&tx, td)
	case entities.EqualizationPurchaseType:
		tx.EqualizationPurchase = &entities.EqualizationPurchase{
			NewStakeholderID:         td.NewStakeholderID,
			NewStakeholderName:       td.NewStakeholderName,
			PurchasedShares:          entities.Shares(td.PurchasedShares),
			ShareClassID:             td.ShareClassID,
			PricePerShare:            float64(td.PricePerShare),
			EqualizationInterestRate: float64(td.EqualizationInterestRate),
			ReferenceTransactionID:   td.ReferenceTransactionID,
		}
	case entities.ShareTransferType:
		transfer := &entities.ShareTransfer{
			SellerStakeholderID:  td.SellerStakeholderID,
			BuyerStakeholderID:   td.BuyerStakeholderID,
			BuyerStakeholderName: td.BuyerStakeholderName,
			ShareClassID:         td.ShareClassID,
			NumberOfShares:       entities.Shares(td.NumberOfShares),
			PricePerShare:        float64(td.PricePerShare),
		}
		if td.AdditionalPayment != nil {
			transfer.AdditionalPayment = &entities.AdditionalPayment{
				Amount:      float64(td.AdditionalPayment.Amount),
				Description: td.AdditionalPayment.Description,
			}
		}
		tx.ShareTransfer = transfer
	case entities.DebtInstrumentType:
		seniority, perr := parseOrDefault(td.Seniority, entities.ParseSeniority)
		if perr != nil {
			return tx, "", fieldErr("seniority", perr)
		}
		tx.DebtInstrument = &entities.DebtInstrument{
			LenderName:   td.LenderName,
			Amount:       float64(td.Amount),
			InterestRate: float64(td.InterestRate),
			Seniority:    seniority,
		}
	case entities.UpdateShareClassType:
		err = convertUpdate(&tx, td)
	}
	if err != nil {
		return tx, "", err
	}

	if err := tx.Validate(); err != nil {
		return tx, "", err
	}
	return tx, "", nil
}

func convertFounding(tx *entities.Transaction, td transactionDocument) error {
	f := &entities.Founding{
		CompanyName: td.CompanyName,
		LegalForm:   td.LegalForm,
		Currency:    td.Currency,
	}
	for i, sd := range td.ShareClasses {
		sc, err := convertShareClass(sd)
		if err != nil {
			return prefixed(fmt.Sprintf("shareClasses[%d]", i), err)
		}
		f.ShareClasses = append(f.ShareClasses, sc)
	}
	f.Shareholdings = convertHoldings(td.Shareholdings)
	for i, vd := range td.VestingSchedules {
		grant, err := entities.ParseDate(vd.GrantDate)
		if err != nil {
			return fieldErr(fmt.Sprintf("vestingSchedules[%d].grantDate", i), err)
		}
		acceleration, err := entities.ParseAcceleration(vd.Acceleration)
		if err != nil {
			return fieldErr(fmt.Sprintf("vestingSchedules[%d].acceleration", i), err)
		}
		f.VestingSchedules = append(f.VestingSchedules, entities.VestingSchedule{
			ID:                  vd.ID,
			Name:                vd.Name,
			GrantDate:           grant,
			VestingPeriodMonths: vd.VestingPeriodMonths,
			CliffMonths:         vd.CliffMonths,
			Acceleration:        acceleration,
		})
	}
	tx.Founding = f
	return nil
}

func convertLoan(tx *entities.Transaction, td transactionDocument) error {
	mechanism, err := parseOrDefault(td.ConversionMechanism, entities.ParseConversionMechanism)
	if err != nil {
		return fieldErr("conversionMechanism", err)
	}
	seniority, err := parseOrDefault(td.Seniority, entities.ParseSeniority)
	if err != nil {
		return fieldErr("seniority", err)
	}
	tx.ConvertibleLoan = &entities.ConvertibleLoan{
		InvestorName:         td.InvestorName,
		StakeholderID:        td.StakeholderID,
		Amount:               float64(td.Amount),
		InterestRate:         float64(td.InterestRate),
		Mechanism:            mechanism,
		ValuationCap:         float64(td.ValuationCap),
		Discount:             float64(td.Discount),
		FixedConversionPrice: float64(td.FixedConversionPrice),
		RatioShares:          float64(td.RatioShares),
		RatioAmount:          float64(td.RatioAmount),
		Seniority:            seniority,
	}
	return nil
}

func convertRound(tx *entities.Transaction, td transactionDocument) error {
	if td.NewShareClass == nil {
		return fieldErr("newShareClass", fmt.Errorf("is required"))
	}
	sc, err := convertShareClass(*td.NewShareClass)
	if err != nil {
		return prefixed("newShareClass", err)
	}
	tx.FinancingRound = &entities.FinancingRound{
		RoundName:         td.RoundName,
		PreMoneyValuation: float64(td.PreMoneyValuation),
		NewShareClass:     sc,
		NewShareholdings:  convertHoldings(td.NewShareholdings),
		ConvertsLoanIDs:   td.ConvertsLoanIDs,
	}
	return nil
}

func convertUpdate(tx *entities.Transaction, td transactionDocument) error {
	update := &entities.ShareClassUpdate{ShareClassID: td.ShareClassIDToUpdate}
	if p := td.UpdatedProperties; p != nil {
		patch := entities.ShareClassPatch{
			Name:                        p.Name,
			LiquidationPreferenceRank:   p.LiquidationPreferenceRank,
			LiquidationPreferenceFactor: floatPtr(p.LiquidationPreferenceFactor),
			ParticipationCapFactor:      floatPtr(p.ParticipationCapFactor),
			VotesPerShare:               floatPtr(p.VotesPerShare),
			ProtectiveProvisions:        p.ProtectiveProvisions,
		}
		if p.LiquidationPreferenceType != nil {
			v, err := entities.ParseLiquidationPreferenceType(*p.LiquidationPreferenceType)
			if err != nil {
				return fieldErr("updatedProperties.liquidationPreferenceType", err)
			}
			patch.LiquidationPreferenceType = &v
		}
		if p.AntiDilutionProtection != nil {
			v, err := entities.ParseAntiDilutionProtection(*p.AntiDilutionProtection)
			if err != nil {
				return fieldErr("updatedProperties.antiDilutionProtection", err)
			}
			patch.AntiDilutionProtection = &v
		}
		update.Patch = patch
	}
	tx.ShareClassUpdate = update
	return nil
}

func convertShareClass(sd shareClassDocument) (entities.ShareClass, error) {
	prefType, err := parseOrDefault(sd.LiquidationPreferenceType, entities.ParseLiquidationPreferenceType)
	if err != nil {
		return entities.ShareClass{}, fieldErr("liquidationPreferenceType", err)
	}
	protection, err := entities.ParseAntiDilutionProtection(sd.AntiDilutionProtection)
	if err != nil {
		return entities.ShareClass{}, fieldErr("antiDilutionProtection", err)
	}
	sc := entities.ShareClass{
		ID:                          sd.ID,
		Name:                        sd.Name,
		LiquidationPreferenceRank:   sd.LiquidationPreferenceRank,
		LiquidationPreferenceFactor: 1,
		LiquidationPreferenceType:   prefType,
		ParticipationCapFactor:      float64(sd.ParticipationCapFactor),
		AntiDilutionProtection:      protection,
		VotesPerShare:               1,
		ProtectiveProvisions:        sd.ProtectiveProvisions,
	}
	if sd.LiquidationPreferenceFactor != nil {
		sc.LiquidationPreferenceFactor = float64(*sd.LiquidationPreferenceFactor)
	}
	if sd.VotesPerShare != nil {
		sc.VotesPerShare = float64(*sd.VotesPerShare)
	}
	return sc, nil
}

func convertHoldings(docs []shareholdingDocument) []entities.Shareholding {
	holdings := make([]entities.Shareholding, 0, len(docs))
	for _, hd := range docs {
		id := hd.ID
		if id == "" {
			id = uuid.NewString()
		}
		holdings = append(holdings, entities.Shareholding{
			ID:                    id,
			StakeholderID:         hd.StakeholderID,
			StakeholderName:       hd.StakeholderName,
			ShareClassID:          hd.ShareClassID,
			Shares:                entities.Shares(hd.Shares),
			Investment:            float64(hd.Investment),
			OriginalPricePerShare: float64(hd.OriginalPricePerShare),
			VestingScheduleID:     hd.VestingScheduleID,
		})
	}
	return holdings
}

func parseOrDefault[T any](s string, parse func(string) (T, error)) (T, error) {
	if strings.TrimSpace(s) == "" {
		var zero T
		return zero, nil
	}
	return parse(s)
}

func prefixed(prefix string, err error) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fieldErr(prefix+"."+fe.field, fe.err)
	}
	return fieldErr(prefix, err)
}

func floatPtr(a *amount) *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}
