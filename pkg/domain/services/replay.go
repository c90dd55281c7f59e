package services

import (
	"sort"
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// ActiveAsOf returns the active transactions dated on or before asOf, in log
// order, leaving out excludeID when it is non-empty
func ActiveAsOf(transactions []entities.Transaction, asOf time.Time, excludeID string) []entities.Transaction {
	active := make([]entities.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.IsActive() || tx.Date.After(asOf) {
			continue
		}
		if excludeID != "" && tx.ID == excludeID {
			continue
		}
		active = append(active, tx)
	}
	return active
}

// ReplayOrder is ActiveAsOf sorted ascending by date; transactions on the same
// date keep their log order
func ReplayOrder(transactions []entities.Transaction, asOf time.Time, excludeID string) []entities.Transaction {
	ordered := ActiveAsOf(transactions, asOf, excludeID)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})
	return ordered
}

// FindTransaction returns the transaction with the given id, or nil
func FindTransaction(transactions []entities.Transaction, id string) *entities.Transaction {
	for i := range transactions {
		if transactions[i].ID == id {
			return &transactions[i]
		}
	}
	return nil
}

// CompanyCurrency returns the currency declared by the founding transaction,
// or fallback when none is declared
func CompanyCurrency(transactions []entities.Transaction, fallback string) string {
	for _, tx := range transactions {
		if tx.Type == entities.FoundingType && tx.Founding != nil && tx.Founding.Currency != "" {
			return tx.Founding.Currency
		}
	}
	return fallback
}
