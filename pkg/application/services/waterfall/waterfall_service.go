package waterfall

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
	"github.com/vsinha/captable/pkg/infrastructure/logger"
)

const debtShareClassName = "Debt"

// WaterfallService distributes exit proceeds across debt, liquidation
// preferences and participating equity
type WaterfallService struct {
	logger *slog.Logger
	lang   language.Tag
}

// Option configures a WaterfallService
type Option func(*WaterfallService)

// WithLogger sets the logger used for simulation diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *WaterfallService) {
		s.logger = logger.OrDiscard(l)
	}
}

// WithLanguage sets the locale used to format numbers in the calculation log
func WithLanguage(tag language.Tag) Option {
	return func(s *WaterfallService) {
		s.lang = tag
	}
}

// NewWaterfallService creates a new waterfall service
func NewWaterfallService(opts ...Option) *WaterfallService {
	s := &WaterfallService{
		logger: logger.Discard(),
		lang:   language.English,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// simulation is the mutable state of one Simulate call
type simulation struct {
	printer   *message.Printer
	remaining float64
	rows      []*dto.WaterfallDistribution
	byKey     map[string]*dto.WaterfallDistribution
	log       []string
}

func (sim *simulation) logf(format string, args ...any) {
	sim.log = append(sim.log, sim.printer.Sprintf(format, args...))
}

func rowKey(stakeholderID, shareClassID string) string {
	return stakeholderID + "\x00" + shareClassID
}

// Simulate runs the three-phase waterfall for the given exit against the cap
// table's holders and the debt outstanding on the cap table's date
func (s *WaterfallService) Simulate(
	capTable *dto.CapTable,
	transactions []entities.Transaction,
	exitProceeds, transactionCosts float64,
) *dto.WaterfallResult {
	net := exitProceeds - transactionCosts
	sim := &simulation{
		printer:   message.NewPrinter(s.lang),
		remaining: net,
		byKey:     make(map[string]*dto.WaterfallDistribution, len(capTable.Entries)),
	}
	sim.logf("Starting with net exit proceeds of %.2f", net)

	for _, e := range capTable.Entries {
		row := &dto.WaterfallDistribution{
			StakeholderID:   e.StakeholderID,
			StakeholderName: e.StakeholderName,
			ShareClassID:    e.ShareClassID,
			ShareClassName:  e.ShareClassName,
			Shares:          e.Shares,
			Investment:      e.Investment,
		}
		sim.rows = append(sim.rows, row)
		sim.byKey[rowKey(e.StakeholderID, e.ShareClassID)] = row
	}

	classes := services.BuildShareClassRegistry(transactions, capTable.AsOfDate)

	s.repayDebt(sim, transactions, capTable)
	s.payPreferences(sim, capTable, classes)
	s.distributeResidual(sim, capTable, classes)

	result := &dto.WaterfallResult{
		ExitProceeds:     exitProceeds,
		TransactionCosts: transactionCosts,
		NetExitProceeds:  net,
		Distributions:    make([]dto.WaterfallDistribution, 0, len(sim.rows)),
		RemainingValue:   sim.remaining,
		CalculationLog:   sim.log,
	}
	for _, row := range sim.rows {
		row.TotalProceeds = row.FromDebtRepayment + row.FromLiquidationPreference + row.FromParticipation + row.FromConvertedShares
		row.Multiple = services.SafeDiv(row.TotalProceeds, row.Investment)
		if row.TotalProceeds <= 0 && row.Investment <= 0 {
			continue
		}
		result.TotalDistributed += row.TotalProceeds
		result.Distributions = append(result.Distributions, *row)
	}

	s.logger.Debug("waterfall simulated",
		"as_of", capTable.AsOfDate.Format(entities.DateLayout),
		"net", net, "distributed", result.TotalDistributed, "remaining", result.RemainingValue)

	return result
}

// repayDebt pays debt instruments in seniority order, ties in log order
func (s *WaterfallService) repayDebt(sim *simulation, transactions []entities.Transaction, capTable *dto.CapTable) {
	debts := make([]entities.Transaction, 0)
	for _, tx := range services.ActiveAsOf(transactions, capTable.AsOfDate, "") {
		if tx.Type == entities.DebtInstrumentType && tx.DebtInstrument != nil {
			debts = append(debts, tx)
		}
	}
	sort.SliceStable(debts, func(i, j int) bool {
		return debts[i].DebtInstrument.Seniority.RepaymentOrder() < debts[j].DebtInstrument.Seniority.RepaymentOrder()
	})

	// every lender gets a row, unpaid ones included
	for i := range debts {
		tx := &debts[i]
		debt := tx.DebtInstrument
		owed := debt.Amount + services.AccruedInterest(tx, capTable.AsOfDate)
		payment := max(0, min(sim.remaining, owed))

		row := &dto.WaterfallDistribution{
			StakeholderID:     "debt-" + tx.ID,
			StakeholderName:   debt.LenderName,
			ShareClassID:      dto.DebtShareClassID,
			ShareClassName:    debtShareClassName,
			Investment:        debt.Amount,
			FromDebtRepayment: payment,
		}
		sim.rows = append(sim.rows, row)
		if payment == 0 {
			continue
		}

		sim.remaining -= payment
		sim.logf("Repaid %.2f of %.2f to %s debt holder %s. Remaining: %.2f",
			payment, owed, debt.Seniority, debt.LenderName, sim.remaining)
	}
}

// payPreferences pays each preference rank in ascending order. Holders of one
// rank share its payment in proportion to their claims, investment times the
// class factor.
func (s *WaterfallService) payPreferences(sim *simulation, capTable *dto.CapTable, classes *services.ShareClassRegistry) {
	ranks := make([]int, 0)
	seen := make(map[int]bool)
	for _, sc := range classes.Ordered() {
		if sc.LiquidationPreferenceRank > 0 && !seen[sc.LiquidationPreferenceRank] {
			seen[sc.LiquidationPreferenceRank] = true
			ranks = append(ranks, sc.LiquidationPreferenceRank)
		}
	}
	sort.Ints(ranks)

	for _, rank := range ranks {
		if sim.remaining <= 0 {
			break
		}

		type claim struct {
			row    *dto.WaterfallDistribution
			amount float64
		}
		claims := make([]claim, 0)
		names := make([]string, 0)
		var total float64
		for _, e := range capTable.Entries {
			sc, ok := classes.Get(e.ShareClassID)
			if !ok || sc.LiquidationPreferenceRank != rank {
				continue
			}
			amount := e.Investment * sc.LiquidationPreferenceFactor
			if amount <= 0 {
				continue
			}
			claims = append(claims, claim{row: sim.byKey[rowKey(e.StakeholderID, e.ShareClassID)], amount: amount})
			total += amount
			names = appendUnique(names, sim.printer.Sprintf("%s (%vx)", sc.Name, sc.LiquidationPreferenceFactor))
		}
		if total == 0 {
			continue
		}

		payment := min(sim.remaining, total)
		for _, c := range claims {
			c.row.FromLiquidationPreference += c.amount / total * payment
		}

		sim.remaining -= payment
		sim.logf("Paid %.2f of %.2f preference to rank %d holders of %s. Remaining: %.2f",
			payment, total, rank, strings.Join(names, ", "), sim.remaining)
	}
}

// distributeResidual splits what is left pro rata by shares among common and
// participating holders. Capped classes stop at their cap; the excess stays
// in the remaining value.
func (s *WaterfallService) distributeResidual(sim *simulation, capTable *dto.CapTable, classes *services.ShareClassRegistry) {
	if sim.remaining <= 0 {
		return
	}

	eligible := make([]dto.CapTableEntry, 0)
	var totalShares entities.Shares
	for _, e := range capTable.Entries {
		if sc, ok := classes.Get(e.ShareClassID); ok && sc.Participates() {
			eligible = append(eligible, e)
			totalShares += e.Shares
		}
	}
	if totalShares == 0 {
		sim.logf("No common or participating shares; %.2f remains undistributed", sim.remaining)
		return
	}

	pool := sim.remaining
	sim.logf("Distributing remaining %.2f among %d common and participating shares", pool, int64(totalShares))

	var paid float64
	for _, e := range eligible {
		sc, _ := classes.Get(e.ShareClassID)
		row := sim.byKey[rowKey(e.StakeholderID, e.ShareClassID)]

		payment := float64(e.Shares) / float64(totalShares) * pool
		if sc.LiquidationPreferenceType == entities.CappedParticipating && sc.ParticipationCapFactor > 0 && !sc.IsCommon() {
			capAmount := e.Investment * sc.ParticipationCapFactor
			headroom := max(0, capAmount-(row.FromLiquidationPreference+row.FromParticipation))
			if payment > headroom {
				sim.logf("%s capped at %.2f in %s; %.2f stays undistributed",
					e.StakeholderName, capAmount, sc.Name, payment-headroom)
				payment = headroom
			}
		}

		if sc.IsCommon() {
			row.FromConvertedShares += payment
		} else {
			row.FromParticipation += payment
		}
		paid += payment
	}
	sim.remaining -= paid
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
