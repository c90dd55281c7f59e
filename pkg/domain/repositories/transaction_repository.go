package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// ErrTransactionNotFound is returned when no transaction has the requested id
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository provides access to the transaction log.
// Transactions come back in log order; saving an existing id replaces the
// whole record and keeps its position.
type TransactionRepository interface {
	GetTransactions(ctx context.Context) ([]entities.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*entities.Transaction, error)
	SaveTransaction(ctx context.Context, tx entities.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	LoadTransactions(ctx context.Context, txs []entities.Transaction) error
}
