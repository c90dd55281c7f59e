package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/vsinha/captable/pkg/application/services/testing"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/repositories"
)

func openTempRepo(t *testing.T) *TransactionRepository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "captable.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func ids(txs []entities.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestTransactionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTempRepo(t)
	want := testhelpers.SeedRoundScenario()

	require.NoError(t, repo.LoadTransactions(ctx, want))

	got, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	loan, err := repo.GetTransaction(ctx, "tx-2")
	require.NoError(t, err)
	require.NotNil(t, loan.ConvertibleLoan)
	assert.Equal(t, entities.CapAndDiscount, loan.ConvertibleLoan.Mechanism)
	assert.Equal(t, entities.Subordinated, loan.ConvertibleLoan.Seniority)
}

func TestTransactionRepository_SaveReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := openTempRepo(t)
	require.NoError(t, repo.LoadTransactions(ctx, testhelpers.GovernanceScenario()))

	edited, err := repo.GetTransaction(ctx, "tx-g-1")
	require.NoError(t, err)
	edited.Status = entities.Archived
	require.NoError(t, repo.SaveTransaction(ctx, *edited))

	txs, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx-g-1", "tx-g-2", "tx-g-3"}, ids(txs))
	assert.Equal(t, entities.Archived, txs[0].Status)
}

func TestTransactionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := openTempRepo(t)
	require.NoError(t, repo.LoadTransactions(ctx, testhelpers.GovernanceScenario()))

	require.NoError(t, repo.DeleteTransaction(ctx, "tx-g-2"))
	require.NoError(t, repo.SaveTransaction(ctx, testhelpers.GovernanceScenario()[1]))

	txs, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx-g-1", "tx-g-3", "tx-g-2"}, ids(txs), "a re-added transaction goes to the end")

	err = repo.DeleteTransaction(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
	_, err = repo.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func TestTransactionRepository_RejectsEmptyID(t *testing.T) {
	repo := openTempRepo(t)
	tx := testhelpers.GovernanceScenario()[0]
	tx.ID = ""

	assert.EqualError(t, repo.SaveTransaction(context.Background(), tx), "transaction id cannot be empty")
}

func TestTransactionRepository_LoadIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := openTempRepo(t)
	txs := testhelpers.GovernanceScenario()
	txs[2].ID = ""

	assert.Error(t, repo.LoadTransactions(ctx, txs))

	got, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTransactionRepository_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "captable.db")

	repo, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.LoadTransactions(ctx, testhelpers.DownRoundScenario()))
	require.NoError(t, repo.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	txs, err := reopened.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx-d-1", "tx-d-2", "tx-d-3"}, ids(txs))
}

func TestTransactionRepository_InMemory(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.LoadTransactions(ctx, testhelpers.AdvancedWaterfallScenario()))
	txs, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 4)
}
