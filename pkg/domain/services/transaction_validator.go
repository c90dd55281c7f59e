package services

import (
	"fmt"
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// TransactionValidator reports structural problems in a transaction log.
// Projections stay lenient; the report is advisory.
type TransactionValidator struct{}

// NewTransactionValidator creates a new transaction validator
func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{}
}

// ValidationResult contains the results of transaction log validation
type ValidationResult struct {
	DuplicateIDs      []string `json:"duplicate_ids,omitempty"`
	UnknownReferences []string `json:"unknown_references,omitempty"`
	CyclicReferences  []string `json:"cyclic_references,omitempty"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// IsValid reports whether no errors were found; warnings are allowed
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateTransactions checks every transaction's structure and the references
// between transactions
func (v *TransactionValidator) ValidateTransactions(transactions []entities.Transaction) *ValidationResult {
	result := &ValidationResult{
		DuplicateIDs:      make([]string, 0),
		UnknownReferences: make([]string, 0),
		CyclicReferences:  make([]string, 0),
		Errors:            make([]string, 0),
		Warnings:          make([]string, 0),
	}

	byID := make(map[string]*entities.Transaction, len(transactions))
	for i := range transactions {
		tx := &transactions[i]
		if _, exists := byID[tx.ID]; exists {
			result.DuplicateIDs = append(result.DuplicateIDs, tx.ID)
			continue
		}
		byID[tx.ID] = tx
	}
	if len(result.DuplicateIDs) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Duplicate transaction ids found: %v", result.DuplicateIDs))
	}

	for i := range transactions {
		if err := transactions[i].Validate(); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	v.checkConversions(transactions, byID, result)
	v.checkClassUpdates(transactions, result)
	v.checkFoundingFirst(transactions, result)
	v.checkEqualizationReferences(transactions, byID, result)

	return result
}

// checkConversions flags unknown loan ids, loans created after the round that
// converts them and loans claimed by more than one round
func (v *TransactionValidator) checkConversions(
	transactions []entities.Transaction,
	byID map[string]*entities.Transaction,
	result *ValidationResult,
) {
	convertedBy := make(map[string]string)

	for _, tx := range transactions {
		if tx.Type != entities.FinancingRoundType || tx.FinancingRound == nil {
			continue
		}
		for _, loanID := range tx.FinancingRound.ConvertsLoanIDs {
			loan, ok := byID[loanID]
			if !ok || loan.Type != entities.ConvertibleLoanType {
				result.UnknownReferences = append(result.UnknownReferences, loanID)
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Round %s converts unknown loan %s", tx.ID, loanID))
				continue
			}
			if loan.Date.After(tx.Date) {
				result.CyclicReferences = append(result.CyclicReferences, loanID)
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Round %s (%s) converts loan %s dated later (%s)",
						tx.ID, tx.Date.Format(entities.DateLayout), loanID, loan.Date.Format(entities.DateLayout)))
			}
			if first, seen := convertedBy[loanID]; seen {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Loan %s is converted by both %s and %s; only the first replayed conversion applies", loanID, first, tx.ID))
				continue
			}
			convertedBy[loanID] = tx.ID
		}
	}
}

func (v *TransactionValidator) checkClassUpdates(transactions []entities.Transaction, result *ValidationResult) {
	for _, tx := range transactions {
		if tx.Type != entities.UpdateShareClassType || tx.ShareClassUpdate == nil {
			continue
		}
		// the registry fold includes updates on the same date, so look as of the update itself
		registry := BuildShareClassRegistry(transactions, tx.Date)
		if _, ok := registry.Get(tx.ShareClassUpdate.ShareClassID); !ok {
			result.UnknownReferences = append(result.UnknownReferences, tx.ShareClassUpdate.ShareClassID)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Update %s targets unknown share class %s", tx.ID, tx.ShareClassUpdate.ShareClassID))
		}
	}
}

func (v *TransactionValidator) checkFoundingFirst(transactions []entities.Transaction, result *ValidationResult) {
	var founded bool
	for _, tx := range ReplayOrder(transactions, maxDate(transactions), "") {
		switch tx.Type {
		case entities.FoundingType:
			founded = true
		case entities.FinancingRoundType, entities.ShareTransferType, entities.EqualizationPurchaseType:
			if !founded {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s %s precedes the founding", tx.Type, tx.ID))
			}
		case entities.ConvertibleLoanType, entities.DebtInstrumentType, entities.UpdateShareClassType:
		}
	}
}

func (v *TransactionValidator) checkEqualizationReferences(
	transactions []entities.Transaction,
	byID map[string]*entities.Transaction,
	result *ValidationResult,
) {
	for _, tx := range transactions {
		if tx.Type != entities.EqualizationPurchaseType || tx.EqualizationPurchase == nil {
			continue
		}
		ref := tx.EqualizationPurchase.ReferenceTransactionID
		if ref == "" {
			continue
		}
		if _, ok := byID[ref]; !ok {
			result.UnknownReferences = append(result.UnknownReferences, ref)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Equalization purchase %s references unknown transaction %s", tx.ID, ref))
		}
	}
}

func maxDate(transactions []entities.Transaction) (latest time.Time) {
	for _, tx := range transactions {
		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	return latest
}
