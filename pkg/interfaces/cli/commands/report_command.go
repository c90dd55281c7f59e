package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"github.com/vsinha/captable/pkg/application/services/captable"
	"github.com/vsinha/captable/pkg/application/services/orchestration"
	"github.com/vsinha/captable/pkg/application/services/summary"
	"github.com/vsinha/captable/pkg/application/services/voting"
	"github.com/vsinha/captable/pkg/application/services/waterfall"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/repositories"
	"github.com/vsinha/captable/pkg/infrastructure/logger"
	"github.com/vsinha/captable/pkg/infrastructure/repositories/file"
	"github.com/vsinha/captable/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/captable/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/captable/pkg/interfaces/cli/output"
)

// Config holds configuration for the report command. Fields with an env tag
// take their default from the environment; flags override them.
type Config struct {
	ProjectFile      string
	DBPath           string `env:"CAPTABLE_DB_PATH"`
	AsOf             string
	ExitProceeds     float64
	TransactionCosts float64
	Exclude          string
	Compare          string
	OutputDir        string
	Format           string `env:"CAPTABLE_FORMAT"    envDefault:"text"`
	LogLevel         string `env:"CAPTABLE_LOG_LEVEL" envDefault:"warn"`
	LogJSON          bool   `env:"CAPTABLE_LOG_JSON"`
	Currency         string `env:"CAPTABLE_CURRENCY"  envDefault:"EUR"`
	Language         string `env:"CAPTABLE_LANGUAGE"  envDefault:"en"`
	Verbose          bool
	Help             bool

	Stdout io.Writer
	Stderr io.Writer
}

// LoadEnvConfig returns the configuration defaults taken from the environment
func LoadEnvConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ReportCommand loads a transaction log and prints its analysis
type ReportCommand struct {
	config Config
}

// NewReportCommand creates a new report command with the given configuration
func NewReportCommand(config Config) *ReportCommand {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	return &ReportCommand{config: config}
}

// Execute runs the report command
func (c *ReportCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	log := logger.New(c.config.LogLevel, c.config.Stderr, c.config.LogJSON)
	lang := c.language(log)

	repo, closeRepo, err := c.openRepository(ctx, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	orchestrator := orchestration.NewAnalysisOrchestrator(
		captable.NewCapTableService(captable.WithLogger(log)),
		waterfall.NewWaterfallService(waterfall.WithLogger(log), waterfall.WithLanguage(lang)),
		voting.NewVotingService(voting.WithLogger(log)),
		summary.NewSummaryService(summary.WithLogger(log), summary.WithDefaultCurrency(c.config.Currency)),
		repo,
		log,
	)

	outConfig := output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Language:  lang,
		Out:       c.config.Stdout,
	}

	if c.config.Compare != "" {
		dates, err := parseDates(c.config.Compare)
		if err != nil {
			return fmt.Errorf("invalid -compare: %w", err)
		}
		tables, err := orchestrator.CompareAsOf(ctx, dates)
		if err != nil {
			return err
		}
		return output.GenerateComparison(tables, outConfig)
	}

	var asOf time.Time
	if c.config.AsOf != "" {
		if asOf, err = entities.ParseDate(c.config.AsOf); err != nil {
			return fmt.Errorf("invalid -as-of: %w", err)
		}
	}

	start := time.Now()
	result, err := orchestrator.RunAnalysis(ctx, orchestration.AnalysisRequest{
		AsOfDate:             asOf,
		ExitProceeds:         c.config.ExitProceeds,
		TransactionCosts:     c.config.TransactionCosts,
		ExcludeTransactionID: c.config.Exclude,
	})
	if err != nil {
		return fmt.Errorf("error running analysis: %w", err)
	}
	outConfig.AnalysisTime = time.Since(start)

	return output.Generate(result, outConfig)
}

func (c *ReportCommand) validateInputs() error {
	if c.config.ProjectFile == "" && c.config.DBPath == "" {
		return fmt.Errorf("a project file (-project) or a database (-db) is required")
	}
	switch c.config.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	if c.config.ExitProceeds < 0 || c.config.TransactionCosts < 0 {
		return fmt.Errorf("exit proceeds and transaction costs cannot be negative")
	}
	return nil
}

// openRepository picks the sqlite store when a database path is set and
// the in-memory store otherwise. A project file is imported into either.
func (c *ReportCommand) openRepository(ctx context.Context, log *slog.Logger) (repositories.TransactionRepository, func(), error) {
	var project *entities.Project
	if c.config.ProjectFile != "" {
		p, err := file.NewLoader().LoadProject(c.config.ProjectFile)
		if err != nil {
			return nil, nil, err
		}
		project = p
		log.Info("project loaded", "name", p.Name, "transactions", len(p.Transactions))
	}

	var (
		repo      repositories.TransactionRepository
		closeRepo = func() {}
	)
	if c.config.DBPath != "" {
		store, err := sqlite.Open(ctx, c.config.DBPath)
		if err != nil {
			return nil, nil, err
		}
		repo = store
		closeRepo = func() {
			if err := store.Close(); err != nil {
				log.Error("failed to close database", "error", err)
			}
		}
	} else {
		repo = memory.NewTransactionRepository(len(project.Transactions))
	}

	if project != nil {
		if err := repo.LoadTransactions(ctx, project.Transactions); err != nil {
			closeRepo()
			return nil, nil, fmt.Errorf("failed to load transactions into repository: %w", err)
		}
	}
	return repo, closeRepo, nil
}

func (c *ReportCommand) language(log *slog.Logger) language.Tag {
	tag, err := language.Parse(c.config.Language)
	if err != nil {
		log.Warn("Invalid language specified, defaulting to English", "language", c.config.Language)
		return language.English
	}
	return tag
}

func parseDates(list string) ([]time.Time, error) {
	parts := strings.Split(list, ",")
	dates := make([]time.Time, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := entities.ParseDate(part)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// showHelp displays the help message
func (c *ReportCommand) showHelp() {
	fmt.Fprintf(c.config.Stdout, `captable - event-sourced capitalization table engine

USAGE:
    captable -project <file> [options]     # Analyze a YAML or JSON project file
    captable -db <file> [options]          # Analyze a stored transaction log
    captable -project <file> -db <file>    # Import a project into the database, then analyze

OPTIONS:
    -project <file>     YAML or JSON project file
    -db <file>          SQLite database holding the transaction log ($CAPTABLE_DB_PATH)
    -as-of <date>       Analysis date, YYYY-MM-DD (default: today)
    -exit <amount>      Exit proceeds for the waterfall (default: 0)
    -costs <amount>     Transaction costs deducted from the exit (default: 0)
    -exclude <id>       Leave one transaction out of the analysis
    -compare <dates>    Comma-separated dates; prints the cap table on each
    -output <dir>       Output directory for json and csv results
    -format <fmt>       Output format: text, json, csv ($CAPTABLE_FORMAT, default: text)
    -log-level <lvl>    debug, info, warn, error ($CAPTABLE_LOG_LEVEL, default: warn)
    -log-json           Log as JSON ($CAPTABLE_LOG_JSON)
    -currency <code>    Currency when the founding declares none ($CAPTABLE_CURRENCY, default: EUR)
    -lang <tag>         Number formatting language ($CAPTABLE_LANGUAGE, default: en)
    -verbose            Print the waterfall calculation log
    -help               Show this help message

EXAMPLES:
    # Cap table and a 20M exit as of the end of 2024
    captable -project example/projects/seed_round.yaml -as-of 2024-12-31 -exit 20000000

    # What would the table look like without the seed round?
    captable -project example/projects/seed_round.yaml -exclude tx-3

    # Cap table evolution
    captable -project example/projects/down_round.yaml -compare 2022-06-01,2023-06-01,2024-06-01

    # Write CSV views
    captable -project example/projects/waterfall.yaml -exit 10000000 -format csv -output results/
`)
}
