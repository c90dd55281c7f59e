package captable

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
	"github.com/vsinha/captable/pkg/infrastructure/logger"
)

// CapTableService replays a transaction log into point-in-time cap tables.
// It holds no state between calls.
type CapTableService struct {
	logger *slog.Logger
}

// Option configures a CapTableService
type Option func(*CapTableService)

// WithLogger sets the logger used for replay diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *CapTableService) {
		s.logger = logger.OrDiscard(l)
	}
}

// NewCapTableService creates a new cap-table service
func NewCapTableService(opts ...Option) *CapTableService {
	s := &CapTableService{logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildCapTable returns the cap table as of asOf. Only active transactions
// dated on or before asOf take part; excludeID, when set, leaves one
// transaction out.
func (s *CapTableService) BuildCapTable(
	transactions []entities.Transaction,
	asOf time.Time,
	excludeID string,
) *dto.CapTable {
	r := &replay{
		logger:    s.logger,
		ordered:   services.ReplayOrder(transactions, asOf, excludeID),
		snapshots: make(map[int]*dto.CapTable),
	}
	all := make([]int, len(r.ordered))
	for i := range all {
		all[i] = i
	}
	return r.build(all, asOf)
}

// replay holds one top-level call's replay order. A financing round is priced
// off the table of everything dated on or before it except the round itself,
// so each round's snapshot is built at most once per call.
type replay struct {
	logger    *slog.Logger
	ordered   []entities.Transaction
	snapshots map[int]*dto.CapTable
}

// build replays the transactions at the given positions of ordered and
// finalizes the result as of asOf
func (r *replay) build(positions []int, asOf time.Time) *dto.CapTable {
	visible := make([]entities.Transaction, 0, len(positions))
	for _, i := range positions {
		visible = append(visible, r.ordered[i])
	}
	l := newLedger()
	converted := make(map[string]bool)
	rounds := make([]dto.RoundPricing, 0)

	for k, tx := range visible {
		i := positions[k]
		switch tx.Type {
		case entities.FoundingType:
			if tx.Founding == nil {
				continue
			}
			for _, sh := range tx.Founding.Shareholdings {
				l.add(sh)
			}
		case entities.FinancingRoundType:
			if tx.FinancingRound == nil {
				continue
			}
			rounds = append(rounds, r.applyRound(l, i, tx, visible, converted))
		case entities.ShareTransferType:
			if tx.ShareTransfer == nil {
				continue
			}
			r.applyTransfer(l, tx)
		case entities.EqualizationPurchaseType:
			if tx.EqualizationPurchase == nil {
				continue
			}
			p := tx.EqualizationPurchase
			l.add(entities.Shareholding{
				ID:                    tx.ID,
				StakeholderID:         p.NewStakeholderID,
				StakeholderName:       p.NewStakeholderName,
				ShareClassID:          p.ShareClassID,
				Shares:                p.PurchasedShares,
				Investment:            p.PricePerShare * float64(p.PurchasedShares),
				OriginalPricePerShare: p.PricePerShare,
			})
		case entities.ConvertibleLoanType, entities.DebtInstrumentType, entities.UpdateShareClassType:
			// no direct share effect
		}
	}

	return l.finalize(
		asOf,
		services.BuildShareClassRegistry(visible, asOf),
		services.VestingSchedulesAsOf(visible, asOf),
		rounds,
	)
}

// snapshot is the table the round at ordered[i] is priced against: every
// transaction dated on or before the round except the round itself. Rounds
// on the same date that follow it are left out, which keeps two same-date
// rounds from pricing off each other.
func (r *replay) snapshot(i int) *dto.CapTable {
	if table, ok := r.snapshots[i]; ok {
		return table
	}
	date := r.ordered[i].Date
	positions := make([]int, 0, len(r.ordered))
	for j, tx := range r.ordered {
		if tx.Date.After(date) {
			break
		}
		if j == i || (j > i && tx.Type == entities.FinancingRoundType) {
			continue
		}
		positions = append(positions, j)
	}
	table := r.build(positions, date)
	r.snapshots[i] = table
	return table
}

func (r *replay) applyRound(
	l *ledger,
	i int,
	tx entities.Transaction,
	visible []entities.Transaction,
	converted map[string]bool,
) dto.RoundPricing {
	round := tx.FinancingRound
	before := r.snapshot(i)
	pps := services.SafeDiv(round.PreMoneyValuation, float64(before.TotalShares))

	var newMoney float64
	for _, sh := range round.NewShareholdings {
		newMoney += sh.Investment
	}

	pricing := dto.RoundPricing{
		TransactionID:      tx.ID,
		RoundName:          round.RoundName,
		Date:               tx.Date,
		ShareClassID:       round.NewShareClass.ID,
		PreMoneyValuation:  round.PreMoneyValuation,
		PreRoundShares:     before.TotalShares,
		PricePerShare:      pps,
		NewMoney:           newMoney,
		PostMoneyValuation: round.PreMoneyValuation + newMoney,
	}

	classes := services.BuildShareClassRegistry(r.ordered, tx.Date)
	for _, topUp := range antiDilutionTopUps(tx.ID, before, classes, pps, newMoney) {
		r.logger.Debug("anti-dilution adjustment",
			"round", tx.ID, "stakeholder", topUp.StakeholderID, "class", topUp.ShareClassID, "shares", int64(topUp.Shares))
		l.add(topUp)
		pricing.AntiDilutionShares += topUp.Shares
	}

	for _, sh := range round.NewShareholdings {
		holding := sh
		if holding.ShareClassID == "" {
			holding.ShareClassID = round.NewShareClass.ID
		}
		if holding.Shares == 0 && holding.Investment > 0 {
			holding.Shares = services.RoundShares(services.SafeDiv(holding.Investment, pps))
		}
		if holding.OriginalPricePerShare == 0 {
			if holding.Shares > 0 && holding.Investment > 0 {
				holding.OriginalPricePerShare = holding.Investment / float64(holding.Shares)
			} else {
				holding.OriginalPricePerShare = pps
			}
		}
		l.add(holding)
		pricing.SharesIssued += holding.Shares
	}

	for _, loanID := range round.ConvertsLoanIDs {
		if converted[loanID] {
			r.logger.Debug("loan already converted", "round", tx.ID, "loan", loanID)
			continue
		}
		loanTx := services.FindTransaction(visible, loanID)
		if loanTx == nil || loanTx.Type != entities.ConvertibleLoanType || loanTx.ConvertibleLoan == nil {
			r.logger.Debug("conversion of unknown loan ignored", "round", tx.ID, "loan", loanID)
			continue
		}
		converted[loanID] = true

		loan := loanTx.ConvertibleLoan
		amount := loan.Amount + services.AccruedInterest(loanTx, tx.Date)
		price := ConversionPrice(*loan, pps, before.TotalShares)
		shares := ConversionShares(amount, price)

		l.add(entities.Shareholding{
			ID:                    fmt.Sprintf("conv-%s", loanID),
			StakeholderID:         loan.StakeholderID,
			StakeholderName:       loan.InvestorName,
			ShareClassID:          round.NewShareClass.ID,
			Shares:                shares,
			Investment:            loan.Amount,
			OriginalPricePerShare: price,
		})
		pricing.ConvertedShares += shares
	}

	r.logger.Debug("financing round replayed",
		"round", tx.ID, "pre_round_shares", int64(before.TotalShares), "price_per_share", pps,
		"issued", int64(pricing.SharesIssued), "converted", int64(pricing.ConvertedShares))

	return pricing
}

func (r *replay) applyTransfer(l *ledger, tx entities.Transaction) {
	t := tx.ShareTransfer
	removed := l.remove(t.SellerStakeholderID, t.ShareClassID, t.NumberOfShares)
	if removed < t.NumberOfShares {
		r.logger.Warn("transfer exceeds seller balance",
			"transaction", tx.ID, "seller", t.SellerStakeholderID, "requested", int64(t.NumberOfShares), "held", int64(removed))
	}

	l.add(entities.Shareholding{
		ID:                    tx.ID,
		StakeholderID:         t.BuyerStakeholderID,
		StakeholderName:       t.BuyerStakeholderName,
		ShareClassID:          t.ShareClassID,
		Shares:                t.NumberOfShares,
		Investment:            t.PricePerShare * float64(t.NumberOfShares),
		OriginalPricePerShare: t.PricePerShare,
	})
}
