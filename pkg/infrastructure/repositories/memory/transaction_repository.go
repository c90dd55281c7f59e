package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/repositories"
)

// TransactionRepository provides in-memory transaction log storage
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions []entities.Transaction
	index        map[string]int
	revisions    map[string]int
}

// NewTransactionRepository creates a new in-memory transaction repository
func NewTransactionRepository(expectedTransactions int) *TransactionRepository {
	return &TransactionRepository{
		transactions: make([]entities.Transaction, 0, expectedTransactions),
		index:        make(map[string]int, expectedTransactions),
		revisions:    make(map[string]int, expectedTransactions),
	}
}

// Verify interface compliance
var _ repositories.TransactionRepository = (*TransactionRepository)(nil)

// LoadTransactions appends transactions in order, replacing any with a known id
func (r *TransactionRepository) LoadTransactions(ctx context.Context, txs []entities.Transaction) error {
	for _, tx := range txs {
		if err := r.SaveTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransaction stores tx. An existing id is replaced in place so the log
// order is preserved.
func (r *TransactionRepository) SaveTransaction(_ context.Context, tx entities.Transaction) error {
	if strings.TrimSpace(tx.ID) == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[tx.ID]; exists {
		r.transactions[i] = tx
	} else {
		r.index[tx.ID] = len(r.transactions)
		r.transactions = append(r.transactions, tx)
	}
	r.revisions[tx.ID]++
	return nil
}

// GetTransaction returns a copy of the transaction with the given id
func (r *TransactionRepository) GetTransaction(_ context.Context, id string) (*entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTransactionNotFound, id)
	}
	tx := r.transactions[i]
	return &tx, nil
}

// GetTransactions returns a copy of the log in order
func (r *TransactionRepository) GetTransactions(_ context.Context) ([]entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Transaction, len(r.transactions))
	copy(out, r.transactions)
	return out, nil
}

// DeleteTransaction removes a transaction from the log
func (r *TransactionRepository) DeleteTransaction(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[id]
	if !exists {
		return fmt.Errorf("%w: %s", repositories.ErrTransactionNotFound, id)
	}

	r.transactions = append(r.transactions[:i], r.transactions[i+1:]...)
	delete(r.index, id)
	delete(r.revisions, id)
	for j := i; j < len(r.transactions); j++ {
		r.index[r.transactions[j].ID] = j
	}
	return nil
}

// Revision returns how many times id has been saved, 0 when unknown
func (r *TransactionRepository) Revision(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revisions[id]
}

// Len returns the number of stored transactions
func (r *TransactionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transactions)
}
