package summary

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
	"github.com/vsinha/captable/pkg/infrastructure/logger"
)

// DefaultCurrency applies when the founding declares none
const DefaultCurrency = "EUR"

// highPreferenceFactor is the liquidation preference multiple above which a
// class is flagged
const highPreferenceFactor = 2.0

// SummaryService derives the reporting views built on top of the cap table
// and the waterfall
type SummaryService struct {
	logger   *slog.Logger
	currency string
}

// Option configures a SummaryService
type Option func(*SummaryService)

// WithLogger sets the logger used for diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *SummaryService) {
		s.logger = logger.OrDiscard(l)
	}
}

// WithDefaultCurrency overrides the currency used when the log declares none
func WithDefaultCurrency(currency string) Option {
	return func(s *SummaryService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// NewSummaryService creates a new summary service
func NewSummaryService(opts ...Option) *SummaryService {
	s := &SummaryService{
		logger:   logger.Discard(),
		currency: DefaultCurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PayoutSummary groups waterfall rows by stakeholder, highest payout first
func (s *SummaryService) PayoutSummary(result *dto.WaterfallResult) *dto.PayoutSummary {
	order := make([]string, 0)
	byStakeholder := make(map[string]*dto.PayoutSummaryEntry)
	var total float64

	for _, d := range result.Distributions {
		e, ok := byStakeholder[d.StakeholderID]
		if !ok {
			e = &dto.PayoutSummaryEntry{
				StakeholderID:   d.StakeholderID,
				StakeholderName: d.StakeholderName,
			}
			byStakeholder[d.StakeholderID] = e
			order = append(order, d.StakeholderID)
		}
		e.TotalPayout += d.TotalProceeds
		e.Investment += d.Investment
		total += d.TotalProceeds
	}

	summary := &dto.PayoutSummary{
		Entries:     make([]dto.PayoutSummaryEntry, 0, len(order)),
		TotalPayout: total,
	}
	for _, id := range order {
		e := byStakeholder[id]
		e.Multiple = services.SafeDiv(e.TotalPayout, e.Investment)
		e.PercentageOfTotal = services.SafeDiv(e.TotalPayout, total) * 100
		summary.Entries = append(summary.Entries, *e)
	}
	sort.SliceStable(summary.Entries, func(i, j int) bool {
		return summary.Entries[i].TotalPayout > summary.Entries[j].TotalPayout
	})
	return summary
}

// TotalCapitalization values every instrument outstanding on asOf. Equity is
// priced at the latest round, or at book value before the first round.
// Convertible loans that no round has converted yet count as hybrid capital.
func (s *SummaryService) TotalCapitalization(
	transactions []entities.Transaction,
	capTable *dto.CapTable,
	asOf time.Time,
) *dto.TotalCapitalization {
	result := &dto.TotalCapitalization{
		AsOfDate: asOf,
		Currency: services.CompanyCurrency(transactions, s.currency),
		Entries:  make([]dto.CapitalizationEntry, 0, len(capTable.Entries)),
	}
	if round := capTable.LatestRound(); round != nil {
		result.PricePerShare = round.PricePerShare
	}

	for _, e := range capTable.Entries {
		value := e.Investment
		if result.PricePerShare > 0 {
			value = float64(e.Shares) * result.PricePerShare
		}
		result.Entries = append(result.Entries, dto.CapitalizationEntry{
			Key:             fmt.Sprintf("equity-%s-%s", e.StakeholderID, e.ShareClassID),
			StakeholderName: e.StakeholderName,
			InstrumentName:  e.ShareClassName,
			InstrumentType:  dto.Equity,
			Shares:          e.Shares,
			Value:           value,
		})
		result.EquityValue += value
	}

	active := services.ActiveAsOf(transactions, asOf, "")
	converted := make(map[string]bool)
	for _, tx := range active {
		if tx.Type == entities.FinancingRoundType && tx.FinancingRound != nil {
			for _, id := range tx.FinancingRound.ConvertsLoanIDs {
				converted[id] = true
			}
		}
	}

	for i := range active {
		tx := &active[i]
		if !tx.InEffect(asOf) {
			continue
		}
		switch {
		case tx.Type == entities.ConvertibleLoanType && tx.ConvertibleLoan != nil:
			if converted[tx.ID] {
				continue
			}
			entry := instrumentEntry(tx, asOf, "hybrid", tx.ConvertibleLoan.InvestorName, "Convertible Loan", dto.Hybrid)
			result.Entries = append(result.Entries, entry)
			result.HybridValue += entry.Value
		case tx.Type == entities.DebtInstrumentType && tx.DebtInstrument != nil:
			name := fmt.Sprintf("Debt (%s)", tx.DebtInstrument.Seniority)
			entry := instrumentEntry(tx, asOf, "debt", tx.DebtInstrument.LenderName, name, dto.Debt)
			result.Entries = append(result.Entries, entry)
			result.DebtValue += entry.Value
		}
	}

	result.TotalValue = result.EquityValue + result.HybridValue + result.DebtValue
	return result
}

func instrumentEntry(
	tx *entities.Transaction,
	asOf time.Time,
	prefix, holder, name string,
	kind dto.InstrumentType,
) dto.CapitalizationEntry {
	principal := services.Principal(tx)
	interest := services.AccruedInterest(tx, asOf)
	return dto.CapitalizationEntry{
		Key:             prefix + "-" + tx.ID,
		StakeholderName: holder,
		InstrumentName:  name,
		InstrumentType:  kind,
		Principal:       principal,
		Interest:        interest,
		Value:           principal + interest,
	}
}

// Cashflow lists the cash the company received up to asOf in replay order.
// Share transfers are secondary sales and never reach the company.
func (s *SummaryService) Cashflow(transactions []entities.Transaction, asOf time.Time) *dto.Cashflow {
	result := &dto.Cashflow{
		Currency: services.CompanyCurrency(transactions, s.currency),
		Entries:  make([]dto.CashflowEntry, 0),
	}

	balance := decimal.Zero
	for i, tx := range services.ReplayOrder(transactions, asOf, "") {
		amount, description, ok := cashIn(&tx, transactions)
		if !ok {
			continue
		}
		balance = balance.Add(decimal.NewFromFloat(amount))
		result.Entries = append(result.Entries, dto.CashflowEntry{
			Key:         fmt.Sprintf("%s-%d", tx.ID, i),
			Date:        tx.Date,
			Type:        tx.Type,
			Description: description,
			CashIn:      amount,
			Balance:     balance.InexactFloat64(),
		})
	}

	result.FinalBalance = balance.InexactFloat64()
	s.logger.Debug("cashflow computed", "entries", len(result.Entries), "balance", result.FinalBalance)
	return result
}

func cashIn(tx *entities.Transaction, transactions []entities.Transaction) (float64, string, bool) {
	switch tx.Type {
	case entities.FoundingType:
		if tx.Founding == nil {
			return 0, "", false
		}
		var capital float64
		for _, sh := range tx.Founding.Shareholdings {
			capital += sh.Investment
		}
		return capital, "Founding capital of " + tx.Founding.CompanyName, true
	case entities.ConvertibleLoanType:
		if tx.ConvertibleLoan == nil {
			return 0, "", false
		}
		return tx.ConvertibleLoan.Amount, "Convertible loan from " + tx.ConvertibleLoan.InvestorName, true
	case entities.FinancingRoundType:
		if tx.FinancingRound == nil {
			return 0, "", false
		}
		var newMoney float64
		for _, sh := range tx.FinancingRound.NewShareholdings {
			newMoney += sh.Investment
		}
		name := tx.FinancingRound.RoundName
		if name == "" {
			name = "Financing round"
		}
		return newMoney, name + " new money", true
	case entities.DebtInstrumentType:
		if tx.DebtInstrument == nil {
			return 0, "", false
		}
		return tx.DebtInstrument.Amount, "Debt from " + tx.DebtInstrument.LenderName, true
	case entities.EqualizationPurchaseType:
		p := tx.EqualizationPurchase
		if p == nil {
			return 0, "", false
		}
		reference := services.FindTransaction(transactions, p.ReferenceTransactionID)
		amount := p.PricePerShare*float64(p.PurchasedShares) + services.EqualizationInterest(tx, reference)
		return amount, "Equalization purchase by " + p.NewStakeholderName, true
	default:
		return 0, "", false
	}
}

// Assess scans the log and the cap table for terms that deserve attention.
// Findings are ordered most severe first; an empty scan yields one info
// finding.
func (s *SummaryService) Assess(transactions []entities.Transaction, capTable *dto.CapTable) *dto.Assessment {
	findings := make([]dto.Finding, 0)
	active := services.ActiveAsOf(transactions, capTable.AsOfDate, "")

	for _, tx := range active {
		if tx.Type != entities.FoundingType || tx.Founding == nil {
			continue
		}
		flagged := make(map[string]bool)
		for _, sh := range tx.Founding.Shareholdings {
			if sh.VestingScheduleID != "" || flagged[sh.StakeholderID] {
				continue
			}
			flagged[sh.StakeholderID] = true
			findings = append(findings, dto.Finding{
				Severity: dto.Warning,
				Title:    "Founder shares without vesting",
				Description: fmt.Sprintf("%s holds founding shares that are not subject to a vesting schedule.",
					displayName(sh)),
				TransactionID: tx.ID,
			})
		}
	}

	classes := services.BuildShareClassRegistry(transactions, capTable.AsOfDate)
	for _, sc := range classes.Ordered() {
		if sc.IsCommon() {
			continue
		}
		if sc.AntiDilutionProtection == entities.FullRatchet {
			findings = append(findings, dto.Finding{
				Severity: dto.Danger,
				Title:    "Full ratchet anti-dilution",
				Description: fmt.Sprintf("%s reprices its shares to any lower later round price, "+
					"which heavily dilutes all other holders in a down round.", sc.Name),
			})
		}
		if sc.LiquidationPreferenceFactor > highPreferenceFactor {
			findings = append(findings, dto.Finding{
				Severity: dto.Warning,
				Title:    "High liquidation preference",
				Description: fmt.Sprintf("%s carries a %.1fx liquidation preference.",
					sc.Name, sc.LiquidationPreferenceFactor),
			})
		}
		if sc.LiquidationPreferenceType == entities.FullParticipating {
			findings = append(findings, dto.Finding{
				Severity:    dto.Info,
				Title:       "Uncapped participation",
				Description: fmt.Sprintf("%s takes its preference and then participates without a cap.", sc.Name),
			})
		}
	}

	for i := 1; i < len(capTable.Rounds); i++ {
		prev, cur := capTable.Rounds[i-1], capTable.Rounds[i]
		if cur.PricePerShare <= 0 || cur.PricePerShare >= prev.PricePerShare {
			continue
		}
		findings = append(findings, dto.Finding{
			Severity: dto.Danger,
			Title:    "Down round",
			Description: fmt.Sprintf("%s priced shares at %.4f, below the %.4f of %s.",
				roundLabel(cur), cur.PricePerShare, prev.PricePerShare, roundLabel(prev)),
			TransactionID: cur.TransactionID,
		})
	}

	if len(findings) == 0 {
		findings = append(findings, dto.Finding{
			Severity:    dto.Info,
			Title:       "No issues found",
			Description: "No critical terms were detected in the transaction log.",
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity < findings[j].Severity
	})

	return &dto.Assessment{AsOfDate: capTable.AsOfDate, Findings: findings}
}

func displayName(sh entities.Shareholding) string {
	if sh.StakeholderName != "" {
		return sh.StakeholderName
	}
	return sh.StakeholderID
}

func roundLabel(r dto.RoundPricing) string {
	if r.RoundName != "" {
		return r.RoundName
	}
	return r.TransactionID
}
