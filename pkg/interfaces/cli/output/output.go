package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/application/services/orchestration"
	"github.com/vsinha/captable/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format       string
	OutputDir    string
	Verbose      bool
	Language     language.Tag
	AnalysisTime time.Duration
	Out          io.Writer
}

func (c Config) writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate writes the analysis in the configured format
func Generate(result *orchestration.AnalysisResult, config Config) error {
	switch config.Format {
	case "", "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput writes human-readable tables
func generateTextOutput(result *orchestration.AnalysisResult, config Config) error {
	p := message.NewPrinter(config.Language)
	w := config.writer()

	p.Fprintf(w, "Cap Table as of %s\n", result.AsOfDate.Format(entities.DateLayout))
	p.Fprintf(w, "==========================\n\n")
	p.Fprintf(w, "%-24s %-22s %14s %14s %8s %14s\n",
		"Stakeholder", "Share Class", "Shares", "Vested", "%", "Investment")
	for _, e := range result.CapTable.Entries {
		p.Fprintf(w, "%-24s %-22s %14d %14d %7.2f%% %14.2f\n",
			truncate(e.StakeholderName, 24), truncate(e.ShareClassName, 22),
			int64(e.Shares), int64(e.VestedShares), e.Percentage, e.Investment)
	}
	p.Fprintf(w, "%-24s %-22s %14d %14d %8s %14.2f\n\n", "Total", "",
		int64(result.CapTable.TotalShares), int64(result.CapTable.TotalVestedShares), "", result.CapTable.TotalInvestment)

	if len(result.CapTable.Rounds) > 0 {
		p.Fprintf(w, "Rounds\n------\n")
		for _, r := range result.CapTable.Rounds {
			p.Fprintf(w, "%s %-20s pre-money %.2f, %.4f per share, %d issued, %d converted, %d anti-dilution\n",
				r.Date.Format(entities.DateLayout), truncate(r.RoundName, 20), r.PreMoneyValuation,
				r.PricePerShare, int64(r.SharesIssued), int64(r.ConvertedShares), int64(r.AntiDilutionShares))
		}
		fmt.Fprintln(w)
	}

	wf := result.Waterfall
	p.Fprintf(w, "Waterfall (exit %.2f, costs %.2f)\n", wf.ExitProceeds, wf.TransactionCosts)
	p.Fprintf(w, "-------------------------------\n")
	for _, d := range wf.Distributions {
		p.Fprintf(w, "%-24s %-22s %14.2f %6.2fx\n",
			truncate(d.StakeholderName, 24), truncate(d.ShareClassName, 22), d.TotalProceeds, d.Multiple)
	}
	p.Fprintf(w, "Distributed %.2f, remaining %.2f\n", wf.TotalDistributed, wf.RemainingValue)
	if config.Verbose {
		for _, line := range wf.CalculationLog {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w)

	p.Fprintf(w, "Votes\n-----\n")
	for _, v := range result.Voting.VoteDistribution {
		p.Fprintf(w, "%-24s %-30s %14.0f %7.2f%%\n",
			truncate(v.StakeholderName, 24), truncate(v.ShareClassNames, 30), v.Votes, v.Percentage)
	}
	fmt.Fprintln(w)

	c := result.Capitalization
	p.Fprintf(w, "Total capitalization: %.2f %s (equity %.2f, hybrid %.2f, debt %.2f)\n",
		c.TotalValue, c.Currency, c.EquityValue, c.HybridValue, c.DebtValue)
	p.Fprintf(w, "Cash received: %.2f %s\n\n", result.Cashflow.FinalBalance, result.Cashflow.Currency)

	p.Fprintf(w, "Assessment\n----------\n")
	for _, f := range result.Assessment.Findings {
		p.Fprintf(w, "[%s] %s: %s\n", strings.ToUpper(f.Severity.String()), f.Title, f.Description)
	}

	if v := result.Validation; v != nil && (len(v.Errors) > 0 || len(v.Warnings) > 0) {
		p.Fprintf(w, "\nTransaction log\n---------------\n")
		for _, e := range v.Errors {
			fmt.Fprintf(w, "ERROR %s\n", e)
		}
		for _, warn := range v.Warnings {
			fmt.Fprintf(w, "WARN  %s\n", warn)
		}
	}

	if config.Verbose && config.AnalysisTime > 0 {
		fmt.Fprintf(w, "\nAnalysis completed in %v\n", config.AnalysisTime)
	}
	return nil
}

// generateJSONOutput writes the whole analysis as JSON
func generateJSONOutput(result *orchestration.AnalysisResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "analysis.json")
	if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per view into the output directory
func generateCSVOutput(result *orchestration.AnalysisResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{"captable.csv", capTableRows(result.CapTable)},
		{"waterfall.csv", waterfallRows(result.Waterfall)},
		{"votes.csv", voteRows(result.Voting)},
		{"cashflow.csv", cashflowRows(result.Cashflow)},
	}
	for _, f := range files {
		path := filepath.Join(config.OutputDir, f.name)
		if err := writeCSV(path, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "CSV saved to: %s\n", path)
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func count(v entities.Shares) string {
	return strconv.FormatInt(int64(v), 10)
}

func capTableRows(ct *dto.CapTable) [][]string {
	rows := [][]string{{"stakeholder_id", "stakeholder_name", "share_class_id", "share_class_name",
		"shares", "vested_shares", "percentage", "investment", "vesting_schedule_id"}}
	for _, e := range ct.Entries {
		rows = append(rows, []string{e.StakeholderID, e.StakeholderName, e.ShareClassID, e.ShareClassName,
			count(e.Shares), count(e.VestedShares), strconv.FormatFloat(e.Percentage, 'f', 4, 64),
			money(e.Investment), e.VestingScheduleID})
	}
	return rows
}

func waterfallRows(wf *dto.WaterfallResult) [][]string {
	rows := [][]string{{"stakeholder_id", "stakeholder_name", "share_class_id", "share_class_name",
		"shares", "investment", "debt_repayment", "liquidation_preference", "participation",
		"converted_shares", "total_proceeds", "multiple"}}
	for _, d := range wf.Distributions {
		rows = append(rows, []string{d.StakeholderID, d.StakeholderName, d.ShareClassID, d.ShareClassName,
			count(d.Shares), money(d.Investment), money(d.FromDebtRepayment), money(d.FromLiquidationPreference),
			money(d.FromParticipation), money(d.FromConvertedShares), money(d.TotalProceeds),
			strconv.FormatFloat(d.Multiple, 'f', 4, 64)})
	}
	return rows
}

func voteRows(v *dto.VotingResult) [][]string {
	rows := [][]string{{"stakeholder_id", "stakeholder_name", "share_classes", "votes", "percentage"}}
	for _, e := range v.VoteDistribution {
		rows = append(rows, []string{e.StakeholderID, e.StakeholderName, e.ShareClassNames,
			strconv.FormatFloat(e.Votes, 'f', -1, 64), strconv.FormatFloat(e.Percentage, 'f', 4, 64)})
	}
	return rows
}

func cashflowRows(c *dto.Cashflow) [][]string {
	rows := [][]string{{"date", "type", "description", "cash_in", "balance", "currency"}}
	for _, e := range c.Entries {
		rows = append(rows, []string{e.Date.Format(entities.DateLayout), e.Type.String(), e.Description,
			money(e.CashIn), money(e.Balance), c.Currency})
	}
	return rows
}

// GenerateComparison prints cap tables side by side, one column per date
func GenerateComparison(tables []*dto.CapTable, config Config) error {
	if config.Format == "json" {
		jsonData, err := json.MarshalIndent(tables, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	p := message.NewPrinter(config.Language)
	w := config.writer()

	type key struct{ stakeholder, name string }
	order := make([]key, 0)
	shares := make(map[key][]int64)
	for i, t := range tables {
		for _, e := range t.Entries {
			k := key{e.StakeholderID, e.StakeholderName}
			if _, ok := shares[k]; !ok {
				shares[k] = make([]int64, len(tables))
				order = append(order, k)
			}
			shares[k][i] += int64(e.Shares)
		}
	}

	p.Fprintf(w, "%-24s", "Stakeholder")
	for _, t := range tables {
		p.Fprintf(w, " %14s", t.AsOfDate.Format(entities.DateLayout))
	}
	fmt.Fprintln(w)
	for _, k := range order {
		p.Fprintf(w, "%-24s", truncate(k.name, 24))
		for _, n := range shares[k] {
			p.Fprintf(w, " %14d", n)
		}
		fmt.Fprintln(w)
	}
	p.Fprintf(w, "%-24s", "Total")
	for _, t := range tables {
		p.Fprintf(w, " %14d", int64(t.TotalShares))
	}
	fmt.Fprintln(w)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
