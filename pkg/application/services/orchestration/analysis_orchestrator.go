package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/application/services/captable"
	"github.com/vsinha/captable/pkg/application/services/summary"
	"github.com/vsinha/captable/pkg/application/services/voting"
	"github.com/vsinha/captable/pkg/application/services/waterfall"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/repositories"
	"github.com/vsinha/captable/pkg/domain/services"
	"github.com/vsinha/captable/pkg/infrastructure/logger"
)

// AnalysisOrchestrator runs the cap table, waterfall, vote and summary
// projections over one transaction log
type AnalysisOrchestrator struct {
	capTableService  *captable.CapTableService
	waterfallService *waterfall.WaterfallService
	votingService    *voting.VotingService
	summaryService   *summary.SummaryService
	validator        *services.TransactionValidator
	repo             repositories.TransactionRepository
	logger           *slog.Logger
}

// NewAnalysisOrchestrator creates a new analysis orchestrator
func NewAnalysisOrchestrator(
	capTableService *captable.CapTableService,
	waterfallService *waterfall.WaterfallService,
	votingService *voting.VotingService,
	summaryService *summary.SummaryService,
	repo repositories.TransactionRepository,
	log *slog.Logger,
) *AnalysisOrchestrator {
	return &AnalysisOrchestrator{
		capTableService:  capTableService,
		waterfallService: waterfallService,
		votingService:    votingService,
		summaryService:   summaryService,
		validator:        services.NewTransactionValidator(),
		repo:             repo,
		logger:           logger.OrDiscard(log),
	}
}

// AnalysisRequest selects the date and exit scenario to analyze
type AnalysisRequest struct {
	AsOfDate             time.Time
	ExitProceeds         float64
	TransactionCosts     float64
	ExcludeTransactionID string
}

// AnalysisResult contains every projection of one analysis run
type AnalysisResult struct {
	AsOfDate       time.Time                  `json:"as_of_date"`
	Validation     *services.ValidationResult `json:"validation"`
	CapTable       *dto.CapTable              `json:"cap_table"`
	Waterfall      *dto.WaterfallResult       `json:"waterfall"`
	Voting         *dto.VotingResult          `json:"voting"`
	Payouts        *dto.PayoutSummary         `json:"payouts"`
	Capitalization *dto.TotalCapitalization   `json:"capitalization"`
	Cashflow       *dto.Cashflow              `json:"cashflow"`
	Assessment     *dto.Assessment            `json:"assessment"`
}

// RunAnalysis loads the log and computes all projections as of the request
// date. A zero date means today.
func (o *AnalysisOrchestrator) RunAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	txs, err := o.repo.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	asOf := req.AsOfDate
	if asOf.IsZero() {
		asOf = today()
	}

	validation := o.validator.ValidateTransactions(txs)
	for _, w := range validation.Warnings {
		o.logger.Warn("transaction log warning", "detail", w)
	}
	for _, e := range validation.Errors {
		o.logger.Error("transaction log error", "detail", e)
	}

	// Every view sees the same log
	if req.ExcludeTransactionID != "" {
		txs = without(txs, req.ExcludeTransactionID)
	}

	// Step 1: cap table
	capTable := o.capTableService.BuildCapTable(txs, asOf, "")

	// Step 2: projections on top of it
	wf := o.waterfallService.Simulate(capTable, txs, req.ExitProceeds, req.TransactionCosts)
	result := &AnalysisResult{
		AsOfDate:       asOf,
		Validation:     validation,
		CapTable:       capTable,
		Waterfall:      wf,
		Voting:         o.votingService.SimulateVote(capTable, txs),
		Payouts:        o.summaryService.PayoutSummary(wf),
		Capitalization: o.summaryService.TotalCapitalization(txs, capTable, asOf),
		Cashflow:       o.summaryService.Cashflow(txs, asOf),
		Assessment:     o.summaryService.Assess(txs, capTable),
	}

	o.logger.Info("analysis complete",
		"as_of", asOf.Format(entities.DateLayout),
		"transactions", len(txs),
		"stakeholders", len(capTable.Entries),
		"total_shares", int64(capTable.TotalShares))

	return result, nil
}

// CompareAsOf builds one cap table per date. Tables are independent and are
// computed concurrently; results keep the order of dates.
func (o *AnalysisOrchestrator) CompareAsOf(ctx context.Context, dates []time.Time) ([]*dto.CapTable, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("no dates provided for comparison")
	}

	txs, err := o.repo.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	tables := make([]*dto.CapTable, len(dates))
	g, ctx := errgroup.WithContext(ctx)
	for i, date := range dates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tables[i] = o.capTableService.BuildCapTable(txs, date, "")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compare cap tables: %w", err)
	}
	return tables, nil
}

// Comparison is the cap table with and without one transaction
type Comparison struct {
	TransactionID string        `json:"transaction_id"`
	With          *dto.CapTable `json:"with"`
	Without       *dto.CapTable `json:"without"`
}

// CompareExcluding shows the effect of a single transaction on the cap table
func (o *AnalysisOrchestrator) CompareExcluding(ctx context.Context, asOf time.Time, transactionID string) (*Comparison, error) {
	if _, err := o.repo.GetTransaction(ctx, transactionID); err != nil {
		return nil, fmt.Errorf("failed to compare without %s: %w", transactionID, err)
	}
	txs, err := o.repo.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	cmp := &Comparison{TransactionID: transactionID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		cmp.With = o.capTableService.BuildCapTable(txs, asOf, "")
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		cmp.Without = o.capTableService.BuildCapTable(txs, asOf, transactionID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compare without %s: %w", transactionID, err)
	}
	return cmp, nil
}

// GetSummary returns a formatted summary of the analysis
func (r *AnalysisResult) GetSummary() string {
	summary := fmt.Sprintf("Analysis Summary (as of %s):\n", r.AsOfDate.Format(entities.DateLayout))
	summary += fmt.Sprintf("  Cap table: %d entries, %d shares, %d vested\n",
		len(r.CapTable.Entries), int64(r.CapTable.TotalShares), int64(r.CapTable.TotalVestedShares))
	summary += fmt.Sprintf("  Waterfall: %.2f distributed of %.2f net, %.2f remaining\n",
		r.Waterfall.TotalDistributed, r.Waterfall.NetExitProceeds, r.Waterfall.RemainingValue)
	summary += fmt.Sprintf("  Capitalization: %.2f %s\n", r.Capitalization.TotalValue, r.Capitalization.Currency)
	summary += fmt.Sprintf("  Findings: %d", len(r.Assessment.Findings))
	if !r.Validation.IsValid() {
		summary += fmt.Sprintf(" (log has %d errors)", len(r.Validation.Errors))
	}
	return summary
}

func without(txs []entities.Transaction, id string) []entities.Transaction {
	kept := make([]entities.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	return kept
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
