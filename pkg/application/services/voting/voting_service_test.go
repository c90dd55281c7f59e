package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/application/services/captable"
	testhelpers "github.com/vsinha/captable/pkg/application/services/testing"
	"github.com/vsinha/captable/pkg/domain/entities"
)

func vote(txs []entities.Transaction, asOf string) *dto.VotingResult {
	table := captable.NewCapTableService().BuildCapTable(txs, testhelpers.Date(asOf), "")
	return NewVotingService().SimulateVote(table, txs)
}

func TestSimulateVote_Governance(t *testing.T) {
	tests := []struct {
		name  string
		asOf  string
		total float64
		want  []dto.VoteDistributionEntry
	}{
		{
			name:  "before the amendment",
			asOf:  "2023-03-01",
			total: 1000000,
			want: []dto.VoteDistributionEntry{
				{StakeholderID: "founder-d", Votes: 500000, Percentage: 50},
				{StakeholderID: "founder-e", Votes: 500000, Percentage: 50},
			},
		},
		{
			name:  "after the amendment and the secondary sale",
			asOf:  "2024-06-01",
			total: 10000000,
			want: []dto.VoteDistributionEntry{
				{StakeholderID: "founder-d", Votes: 5000000, Percentage: 50},
				{StakeholderID: "founder-e", Votes: 4000000, Percentage: 40},
				{StakeholderID: "new-investor-f", Votes: 1000000, Percentage: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := vote(testhelpers.GovernanceScenario(), tt.asOf)

			assert.InDelta(t, tt.total, result.TotalVotes, 1e-9)
			require.Len(t, result.VoteDistribution, len(tt.want))
			for i, want := range tt.want {
				got := result.VoteDistribution[i]
				assert.Equal(t, want.StakeholderID, got.StakeholderID)
				assert.InDelta(t, want.Votes, got.Votes, 1e-9)
				assert.InDelta(t, want.Percentage, got.Percentage, 1e-9)
				assert.Equal(t, "Common Stock", got.ShareClassNames)
			}
		})
	}
}

func TestSimulateVote_OnlyVestedSharesVote(t *testing.T) {
	result := vote(testhelpers.SeedRoundScenario(), "2023-06-01")

	// five months into a twelve month cliff
	require.Len(t, result.VoteDistribution, 2)
	assert.Equal(t, "founder-2", result.VoteDistribution[0].StakeholderID)
	assert.InDelta(t, 100.0, result.VoteDistribution[0].Percentage, 1e-9)
	assert.Zero(t, result.VoteDistribution[1].Votes)
}

func TestSimulateVote_PercentagesClose(t *testing.T) {
	for _, asOf := range []string{"2024-01-01", "2025-06-01", "2027-01-01"} {
		result := vote(testhelpers.SeedRoundScenario(), asOf)

		var sum, classSum float64
		for _, e := range result.VoteDistribution {
			sum += e.Percentage
		}
		for _, c := range result.ByShareClass {
			classSum += c.Percentage
		}
		assert.InDelta(t, 100.0, sum, 1e-9, asOf)
		assert.InDelta(t, 100.0, classSum, 1e-9, asOf)
	}
}

func TestSimulateVote_JoinsClassNamesPerStakeholder(t *testing.T) {
	txs := []entities.Transaction{
		testhelpers.Founding("f", "2022-01-01", "common",
			testhelpers.Holding("f-sh", "angel", "Angel", "common", 1000, 10)),
		testhelpers.Round("r", "2023-01-01", 10000,
			testhelpers.PreferredClass("pref", "Series A", 1, 1, entities.NonParticipating, entities.NoAntiDilution),
			"angel", "Angel", 5000),
	}

	result := vote(txs, "2024-01-01")

	require.Len(t, result.VoteDistribution, 1)
	assert.Equal(t, "Common Stock, Series A", result.VoteDistribution[0].ShareClassNames)
	assert.InDelta(t, 1500.0, result.VoteDistribution[0].Votes, 1e-9)
	require.Len(t, result.ByShareClass, 2)
	assert.Equal(t, 1, result.ByShareClass[1].Holders)
}

func TestBlockers(t *testing.T) {
	class := testhelpers.PreferredClass("pref", "Series A", 1, 1, entities.NonParticipating, entities.NoAntiDilution)
	class.ProtectiveProvisions = []string{"New share issuance", "Sale of the company"}
	txs := []entities.Transaction{
		testhelpers.Founding("f", "2022-01-01", "common",
			testhelpers.Holding("f-sh", "founder", "Founder", "common", 1000, 10)),
		testhelpers.Round("r", "2023-01-01", 10000, class, "vc", "VC", 5000),
	}

	result := vote(txs, "2024-01-01")

	assert.Equal(t, []string{"Series A"}, Blockers(result, "sale of the company"))
	assert.Empty(t, Blockers(result, "dividends"))
}
