package waterfall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/application/services/captable"
	testhelpers "github.com/vsinha/captable/pkg/application/services/testing"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
)

func simulate(t *testing.T, txs []entities.Transaction, asOf string, exit, costs float64) *dto.WaterfallResult {
	t.Helper()
	table := captable.NewCapTableService().BuildCapTable(txs, testhelpers.Date(asOf), "")
	return NewWaterfallService().Simulate(table, txs, exit, costs)
}

func rowFor(t *testing.T, result *dto.WaterfallResult, stakeholderID, classID string) dto.WaterfallDistribution {
	t.Helper()
	for _, d := range result.Distributions {
		if d.StakeholderID == stakeholderID && d.ShareClassID == classID {
			return d
		}
	}
	t.Fatalf("no distribution for %s/%s", stakeholderID, classID)
	return dto.WaterfallDistribution{}
}

func assertConservation(t *testing.T, result *dto.WaterfallResult) {
	t.Helper()
	var sum float64
	for _, d := range result.Distributions {
		components := d.FromDebtRepayment + d.FromLiquidationPreference + d.FromParticipation + d.FromConvertedShares
		assert.InDelta(t, d.TotalProceeds, components, 1e-6, "components of %s must sum to its total", d.StakeholderID)
		sum += d.TotalProceeds
	}
	assert.InDelta(t, result.NetExitProceeds, sum+result.RemainingValue, 1e-6)
	assert.InDelta(t, result.TotalDistributed, sum, 1e-6)
}

func preferenceLog() []entities.Transaction {
	return []entities.Transaction{
		testhelpers.Founding("f", "2022-01-01", "common",
			testhelpers.Holding("f-sh", "founder", "Founder", "common", 1000000, 10000)),
		testhelpers.Round("r", "2023-01-01", 5000000,
			testhelpers.PreferredClass("pref", "Preferred", 1, 2, entities.NonParticipating, entities.NoAntiDilution),
			"investor", "Investor", 1000000),
		testhelpers.Must(entities.NewDebtInstrumentTransaction("loan", testhelpers.Date("2023-01-01"), entities.DebtInstrument{
			LenderName: "Bank", Amount: 500000, InterestRate: 0.06, Seniority: entities.SeniorSecured,
		})),
	}
}

func TestSimulate_DebtThenPreference(t *testing.T) {
	result := simulate(t, preferenceLog(), "2024-01-01", 1200000, 0)

	owed := 500000 + 500000*0.06*365/365.25
	debt := rowFor(t, result, "debt-loan", dto.DebtShareClassID)
	assert.True(t, debt.IsDebt())
	assert.Equal(t, "Bank", debt.StakeholderName)
	assert.InDelta(t, owed, debt.FromDebtRepayment, 1e-6)
	assert.InDelta(t, owed/500000, debt.Multiple, 1e-9)

	pref := rowFor(t, result, "investor", "pref")
	assert.InDelta(t, 1200000-owed, pref.FromLiquidationPreference, 1e-6)
	assert.Zero(t, pref.FromParticipation, "non-participating")

	founder := rowFor(t, result, "founder", "common")
	assert.Zero(t, founder.TotalProceeds, "nothing reaches common")

	assert.InDelta(t, 0.0, result.RemainingValue, 1e-6)
	assertConservation(t, result)
}

func TestSimulate_PreferenceThenCommon(t *testing.T) {
	result := simulate(t, preferenceLog(), "2024-01-01", 5000000, 200000)

	assert.InDelta(t, 4800000.0, result.NetExitProceeds, 1e-9)
	pref := rowFor(t, result, "investor", "pref")
	assert.InDelta(t, 2000000.0, pref.FromLiquidationPreference, 1e-6, "2x of 1,000,000 paid in full")

	founder := rowFor(t, result, "founder", "common")
	assert.Positive(t, founder.FromConvertedShares)
	assert.Zero(t, founder.FromLiquidationPreference)
	assert.InDelta(t, 0.0, result.RemainingValue, 1e-6, "all of the residual goes to common")
	assertConservation(t, result)
}

func TestSimulate_FullParticipationDoubleDips(t *testing.T) {
	result := simulate(t, testhelpers.AdvancedWaterfallScenario(), "2024-06-01", 10000000, 0)

	require.GreaterOrEqual(t, len(result.Distributions), 4)
	bank := rowFor(t, result, "debt-tx-w-3", dto.DebtShareClassID)
	sub := rowFor(t, result, "debt-tx-w-4", dto.DebtShareClassID)
	assert.Positive(t, bank.FromDebtRepayment)
	assert.Positive(t, sub.FromDebtRepayment)
	assert.Contains(t, result.CalculationLog[1], "Big Bank", "senior secured debt is repaid first")

	pref := rowFor(t, result, "pref-investor", "sc-w-pref")
	assert.InDelta(t, 2000000.0, pref.FromLiquidationPreference, 1e-6)
	assert.Positive(t, pref.FromParticipation)

	founder := rowFor(t, result, "founder-c", "sc-w-common")
	// 1,000,000 of 1,200,000 participating shares
	assert.InDelta(t, 5.0, founder.FromConvertedShares/pref.FromParticipation, 1e-9)
	assert.InDelta(t, 0.0, result.RemainingValue, 1e-6)
	assertConservation(t, result)
}

func TestSimulate_CappedParticipationLeavesExcess(t *testing.T) {
	class := testhelpers.PreferredClass("capped", "Capped Preferred", 1, 1, entities.CappedParticipating, entities.NoAntiDilution)
	class.ParticipationCapFactor = 2
	txs := []entities.Transaction{
		testhelpers.Founding("f", "2022-01-01", "common",
			testhelpers.Holding("f-sh", "founder", "Founder", "common", 1000000, 10000)),
		testhelpers.Round("r", "2023-01-01", 5000000, class, "investor", "Investor", 1000000),
	}

	result := simulate(t, txs, "2024-01-01", 10000000, 0)

	capped := rowFor(t, result, "investor", "capped")
	assert.InDelta(t, 1000000.0, capped.FromLiquidationPreference, 1e-6)
	assert.InDelta(t, 1000000.0, capped.FromParticipation, 1e-6, "capped at 2x in total")
	assert.InDelta(t, 2.0, capped.Multiple, 1e-9)

	founder := rowFor(t, result, "founder", "common")
	assert.InDelta(t, 7500000.0, founder.FromConvertedShares, 1e-6)

	assert.InDelta(t, 500000.0, result.RemainingValue, 1e-6, "excess above the cap is not redistributed")
	assertConservation(t, result)
}

func TestSimulate_SameRankSharesProRataByInvestment(t *testing.T) {
	class := testhelpers.PreferredClass("pref", "Preferred", 1, 1, entities.NonParticipating, entities.NoAntiDilution)
	txs := []entities.Transaction{
		testhelpers.Founding("f", "2022-01-01", "common",
			testhelpers.Holding("f-sh", "founder", "Founder", "common", 1000000, 10000)),
		testhelpers.Must(entities.NewFinancingRoundTransaction("r", testhelpers.Date("2023-01-01"), entities.FinancingRound{
			PreMoneyValuation: 1000000,
			NewShareClass:     class,
			NewShareholdings: []entities.Shareholding{
				testhelpers.Holding("a", "small", "Small", "pref", 0, 1000000),
				testhelpers.Holding("b", "large", "Large", "pref", 0, 3000000),
			},
		})),
	}

	result := simulate(t, txs, "2024-01-01", 2000000, 0)
	assert.InDelta(t, 500000.0, rowFor(t, result, "small", "pref").FromLiquidationPreference, 1e-6)
	assert.InDelta(t, 1500000.0, rowFor(t, result, "large", "pref").FromLiquidationPreference, 1e-6)
	assertConservation(t, result)
}

func TestSimulate_NegativeNetProceeds(t *testing.T) {
	result := simulate(t, preferenceLog(), "2024-01-01", 100, 300)

	assert.InDelta(t, -200.0, result.NetExitProceeds, 1e-9)
	assert.InDelta(t, -200.0, result.RemainingValue, 1e-9)
	for _, d := range result.Distributions {
		assert.Zero(t, d.TotalProceeds)
	}
	assertConservation(t, result)
}

func TestSimulate_ConservationAcrossExits(t *testing.T) {
	scenarios := map[string][]entities.Transaction{
		"seed":       testhelpers.SeedRoundScenario(),
		"down_round": testhelpers.DownRoundScenario(),
		"advanced":   testhelpers.AdvancedWaterfallScenario(),
		"governance": testhelpers.GovernanceScenario(),
		"preference": preferenceLog(),
	}
	exits := []float64{0, 1000, 250000, 600000, 1200000, 3000000, 10000000, 250000000}

	for name, txs := range scenarios {
		t.Run(name, func(t *testing.T) {
			for _, exit := range exits {
				result := simulate(t, txs, "2025-01-01", exit, 0)
				assertConservation(t, result)
				assert.GreaterOrEqual(t, result.RemainingValue, -1e-6)
			}
		})
	}
}

func TestSimulate_CalculationLogIsLocalized(t *testing.T) {
	txs := preferenceLog()
	table := captable.NewCapTableService().BuildCapTable(txs, testhelpers.Date("2024-01-01"), "")

	english := NewWaterfallService(WithLanguage(language.English)).Simulate(table, txs, 1200000, 0)
	require.NotEmpty(t, english.CalculationLog)
	assert.Contains(t, english.CalculationLog[0], "1,200,000.00")
	assert.Contains(t, english.CalculationLog[1], "SENIOR_SECURED debt holder Bank")
}

func TestSimulate_DebtOrder(t *testing.T) {
	debt := func(id, date, lender string, seniority entities.Seniority) entities.Transaction {
		return testhelpers.Must(entities.NewDebtInstrumentTransaction(id, testhelpers.Date(date), entities.DebtInstrument{
			LenderName: lender, Amount: 100, Seniority: seniority,
		}))
	}
	txs := []entities.Transaction{
		debt("sub", "2023-01-01", "Sub", entities.Subordinated),
		debt("uns-2", "2023-03-01", "Unsecured B", entities.SeniorUnsecured),
		debt("uns-1", "2023-02-01", "Unsecured A", entities.SeniorUnsecured),
		debt("sec", "2023-04-01", "Secured", entities.SeniorSecured),
	}
	table := captable.NewCapTableService().BuildCapTable(txs, testhelpers.Date("2024-01-01"), "")

	result := NewWaterfallService().Simulate(table, txs, 250, 0)

	// ties keep log order, not date order
	order := []string{"debt-sec", "debt-uns-2", "debt-uns-1", "debt-sub"}
	paid := []float64{100, 100, 50, 0}
	require.Len(t, result.Distributions, 4)
	for i, id := range order {
		assert.Equal(t, id, result.Distributions[i].StakeholderID)
		assert.InDelta(t, paid[i], result.Distributions[i].FromDebtRepayment, 1e-9)
	}
	assert.Equal(t, services.SafeDiv(0, 100), result.Distributions[3].Multiple)
}

func TestSimulate_UnpaidLendersKeepTheirRows(t *testing.T) {
	result := simulate(t, testhelpers.AdvancedWaterfallScenario(), "2024-06-01", 100000, 0)

	bank := rowFor(t, result, "debt-tx-w-3", dto.DebtShareClassID)
	assert.InDelta(t, 100000.0, bank.FromDebtRepayment, 1e-6)

	sub := rowFor(t, result, "debt-tx-w-4", dto.DebtShareClassID)
	assert.Equal(t, "Subordinated Lender", sub.StakeholderName)
	assert.InDelta(t, 250000.0, sub.Investment, 1e-9)
	assert.Zero(t, sub.TotalProceeds)
	assert.Zero(t, sub.Multiple)
	assertConservation(t, result)
}
