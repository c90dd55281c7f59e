package testing

import (
	"context"
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/infrastructure/repositories/memory"
)

// Must is a helper for tests - panics on validation error
func Must(tx *entities.Transaction, err error) entities.Transaction {
	if err != nil {
		panic(err)
	}
	return *tx
}

// Date is shorthand for entities.MustDate
func Date(s string) time.Time {
	return entities.MustDate(s)
}

// CommonClass returns a rank-0 class with one vote per share
func CommonClass(id, name string) entities.ShareClass {
	return entities.ShareClass{
		ID:                          id,
		Name:                        name,
		LiquidationPreferenceFactor: 1,
		VotesPerShare:               1,
	}
}

// PreferredClass returns a preferred class of the given rank and terms
func PreferredClass(
	id, name string,
	rank int,
	factor float64,
	prefType entities.LiquidationPreferenceType,
	protection entities.AntiDilutionProtection,
) entities.ShareClass {
	return entities.ShareClass{
		ID:                          id,
		Name:                        name,
		LiquidationPreferenceRank:   rank,
		LiquidationPreferenceFactor: factor,
		LiquidationPreferenceType:   prefType,
		AntiDilutionProtection:      protection,
		VotesPerShare:               1,
	}
}

// Holding returns a shareholding of shares for investment
func Holding(id, stakeholderID, name, classID string, shares entities.Shares, investment float64) entities.Shareholding {
	return entities.Shareholding{
		ID:              id,
		StakeholderID:   stakeholderID,
		StakeholderName: name,
		ShareClassID:    classID,
		Shares:          shares,
		Investment:      investment,
	}
}

// Founding returns a founding transaction with one common class
func Founding(id, date, classID string, holdings ...entities.Shareholding) entities.Transaction {
	return Must(entities.NewFoundingTransaction(id, Date(date), entities.Founding{
		CompanyName:   "Test Co",
		LegalForm:     "GmbH",
		Currency:      "EUR",
		ShareClasses:  []entities.ShareClass{CommonClass(classID, "Common Stock")},
		Shareholdings: holdings,
	}))
}

// Round returns a financing round that issues one investment-priced holding
func Round(
	id, date string,
	preMoney float64,
	class entities.ShareClass,
	stakeholderID, name string,
	investment float64,
	convertsLoanIDs ...string,
) entities.Transaction {
	return Must(entities.NewFinancingRoundTransaction(id, Date(date), entities.FinancingRound{
		RoundName:         name + " round",
		PreMoneyValuation: preMoney,
		NewShareClass:     class,
		NewShareholdings: []entities.Shareholding{
			Holding(id+"-sh", stakeholderID, name, class.ID, 0, investment),
		},
		ConvertsLoanIDs: convertsLoanIDs,
	}))
}

// SeedRoundScenario: two founders, a capped and discounted convertible loan
// and a broad-based protected seed round that converts it
func SeedRoundScenario() []entities.Transaction {
	alice := Holding("sh-1", "founder-1", "Alice", "sc-common", 800000, 8000)
	alice.VestingScheduleID = "vs-1"

	return []entities.Transaction{
		Must(entities.NewFoundingTransaction("tx-1", Date("2023-01-01"), entities.Founding{
			CompanyName:  "Web Widgets Inc.",
			LegalForm:    "GmbH",
			Currency:     "EUR",
			ShareClasses: []entities.ShareClass{CommonClass("sc-common", "Common Stock")},
			Shareholdings: []entities.Shareholding{
				alice,
				Holding("sh-2", "founder-2", "Bob", "sc-common", 200000, 2000),
			},
			VestingSchedules: []entities.VestingSchedule{{
				ID:                  "vs-1",
				Name:                "Alice 4-Year Vest",
				GrantDate:           Date("2023-01-01"),
				VestingPeriodMonths: 48,
				CliffMonths:         12,
			}},
		})),
		Must(entities.NewConvertibleLoanTransaction("tx-2", Date("2023-06-01"), entities.ConvertibleLoan{
			InvestorName:  "Charlie",
			StakeholderID: "angel-1",
			Amount:        100000,
			InterestRate:  0.08,
			Mechanism:     entities.CapAndDiscount,
			ValuationCap:  5000000,
			Discount:      0.20,
			Seniority:     entities.Subordinated,
		})),
		Round("tx-3", "2024-01-01", 8000000,
			PreferredClass("sc-seed", "Seed Preferred", 1, 1, entities.NonParticipating, entities.BroadBased),
			"vc-1", "Valley Ventures", 1000000, "tx-2"),
	}
}

// DownRoundScenario: a full-ratchet Series A followed by a Series B priced
// at half the Series A price
func DownRoundScenario() []entities.Transaction {
	return []entities.Transaction{
		Founding("tx-d-1", "2022-01-01", "sc-d-common",
			Holding("sh-d-1", "founder-a", "Founder A", "sc-d-common", 1000000, 10000)),
		Round("tx-d-2", "2023-01-01", 10000000,
			PreferredClass("sc-series-a", "Series A Preferred", 1, 1, entities.NonParticipating, entities.FullRatchet),
			"series-a-vc", "Series A VC", 2000000),
		Round("tx-d-3", "2024-01-01", 5000000,
			PreferredClass("sc-series-b", "Series B Preferred", 2, 1, entities.NonParticipating, entities.NoAntiDilution),
			"series-b-vc", "Series B VC", 1000000),
	}
}

// AdvancedWaterfallScenario: a 2x fully participating preferred class plus
// senior secured and subordinated debt
func AdvancedWaterfallScenario() []entities.Transaction {
	return []entities.Transaction{
		Founding("tx-w-1", "2022-01-01", "sc-w-common",
			Holding("sh-w-1", "founder-c", "Founder C", "sc-w-common", 1000000, 10000)),
		Round("tx-w-2", "2023-01-01", 5000000,
			PreferredClass("sc-w-pref", "Preferred Stock", 1, 2, entities.FullParticipating, entities.NoAntiDilution),
			"pref-investor", "Pref Investor", 1000000),
		Must(entities.NewDebtInstrumentTransaction("tx-w-3", Date("2023-06-01"), entities.DebtInstrument{
			LenderName: "Big Bank", Amount: 500000, InterestRate: 0.06, Seniority: entities.SeniorSecured,
		})),
		Must(entities.NewDebtInstrumentTransaction("tx-w-4", Date("2023-09-01"), entities.DebtInstrument{
			LenderName: "Subordinated Lender", Amount: 250000, InterestRate: 0.12, Seniority: entities.Subordinated,
		})),
	}
}

// GovernanceScenario: equal founders, a 10x vote amendment of common stock
// and a secondary sale to a new investor
func GovernanceScenario() []entities.Transaction {
	votes := 10.0
	return []entities.Transaction{
		Founding("tx-g-1", "2023-01-01", "sc-g-common",
			Holding("sh-g-1", "founder-d", "Founder D", "sc-g-common", 500000, 5000),
			Holding("sh-g-2", "founder-e", "Founder E", "sc-g-common", 500000, 5000)),
		Must(entities.NewUpdateShareClassTransaction("tx-g-2", Date("2023-06-01"), entities.ShareClassUpdate{
			ShareClassID: "sc-g-common",
			Patch:        entities.ShareClassPatch{VotesPerShare: &votes},
		})),
		Must(entities.NewShareTransferTransaction("tx-g-3", Date("2024-01-01"), entities.ShareTransfer{
			SellerStakeholderID:  "founder-e",
			BuyerStakeholderID:   "new-investor-f",
			BuyerStakeholderName: "Investor F",
			ShareClassID:         "sc-g-common",
			NumberOfShares:       100000,
			PricePerShare:        5,
		})),
	}
}

// BuildRepository loads txs into a fresh in-memory repository
func BuildRepository(txs []entities.Transaction) *memory.TransactionRepository {
	repo := memory.NewTransactionRepository(len(txs))
	if err := repo.LoadTransactions(context.Background(), txs); err != nil {
		panic(err)
	}
	return repo
}
