package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/repositories"
)

func newLoan(t *testing.T, id, date string, amount float64) entities.Transaction {
	t.Helper()
	tx, err := entities.NewConvertibleLoanTransaction(id, entities.MustDate(date), entities.ConvertibleLoan{
		InvestorName: "Angel", StakeholderID: "angel", Amount: amount,
	})
	if err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}
	return *tx
}

func TestTransactionRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(4)

	if err := repo.LoadTransactions(ctx, []entities.Transaction{
		newLoan(t, "a", "2023-01-01", 100),
		newLoan(t, "b", "2023-02-01", 200),
		newLoan(t, "c", "2023-03-01", 300),
	}); err != nil {
		t.Fatalf("Failed to load transactions: %v", err)
	}

	retrieved, err := repo.GetTransaction(ctx, "b")
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}
	if retrieved.ConvertibleLoan.Amount != 200 {
		t.Errorf("Expected amount 200, got %v", retrieved.ConvertibleLoan.Amount)
	}

	// replacing keeps the original position
	if err := repo.SaveTransaction(ctx, newLoan(t, "a", "2023-01-01", 150)); err != nil {
		t.Fatalf("Failed to save transaction: %v", err)
	}
	all, _ := repo.GetTransactions(ctx)
	if len(all) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(all))
	}
	if all[0].ID != "a" || all[0].ConvertibleLoan.Amount != 150 {
		t.Errorf("Expected replaced transaction a first with amount 150, got %s %v", all[0].ID, all[0].ConvertibleLoan.Amount)
	}
	if repo.Revision("a") != 2 || repo.Revision("b") != 1 {
		t.Errorf("Unexpected revisions: a=%d b=%d", repo.Revision("a"), repo.Revision("b"))
	}
}

func TestTransactionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(0)
	_ = repo.LoadTransactions(ctx, []entities.Transaction{
		newLoan(t, "a", "2023-01-01", 100),
		newLoan(t, "b", "2023-02-01", 200),
		newLoan(t, "c", "2023-03-01", 300),
	})

	if err := repo.DeleteTransaction(ctx, "a"); err != nil {
		t.Fatalf("Failed to delete transaction: %v", err)
	}
	if repo.Len() != 2 {
		t.Errorf("Expected 2 transactions, got %d", repo.Len())
	}

	retrieved, err := repo.GetTransaction(ctx, "c")
	if err != nil {
		t.Fatalf("Index not rebuilt after delete: %v", err)
	}
	if retrieved.ID != "c" {
		t.Errorf("Expected c, got %s", retrieved.ID)
	}

	err = repo.DeleteTransaction(ctx, "a")
	if !errors.Is(err, repositories.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactionRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(0)

	err := repo.SaveTransaction(ctx, entities.Transaction{})
	if err == nil || err.Error() != "transaction id cannot be empty" {
		t.Errorf("Expected empty id error, got %v", err)
	}

	_, err = repo.GetTransaction(ctx, "missing")
	if err == nil || err.Error() != "transaction not found: missing" {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestTransactionRepository_GetTransactionsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(1)
	_ = repo.SaveTransaction(ctx, newLoan(t, "a", "2023-01-01", 100))

	all, _ := repo.GetTransactions(ctx)
	all[0].ID = "mutated"

	if _, err := repo.GetTransaction(ctx, "a"); err != nil {
		t.Errorf("Stored log was mutated through returned slice: %v", err)
	}
}
