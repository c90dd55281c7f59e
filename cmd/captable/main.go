package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vsinha/captable/pkg/interfaces/cli/commands"
)

func main() {
	// Environment first, flags override
	defaults, err := commands.LoadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		projectFile = flag.String("project", "", "Path to a YAML or JSON project file")
		dbPath      = flag.String("db", defaults.DBPath, "Path to the SQLite transaction store")
		asOf        = flag.String("as-of", "", "Analysis date, YYYY-MM-DD (default: today)")
		exit        = flag.Float64("exit", 0, "Exit proceeds for the waterfall")
		costs       = flag.Float64("costs", 0, "Transaction costs deducted from the exit proceeds")
		exclude     = flag.String("exclude", "", "Transaction id to leave out of the analysis")
		compare     = flag.String("compare", "", "Comma-separated dates to compare cap tables on")
		outputDir   = flag.String("output", "", "Output directory for results (optional)")
		format      = flag.String("format", defaults.Format, "Output format: text, json, csv")
		logLevel    = flag.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
		logJSON     = flag.Bool("log-json", defaults.LogJSON, "Write logs as JSON")
		currency    = flag.String("currency", defaults.Currency, "Currency when the founding declares none")
		lang        = flag.String("lang", defaults.Language, "Language tag for number formatting")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		ProjectFile:      *projectFile,
		DBPath:           *dbPath,
		AsOf:             *asOf,
		ExitProceeds:     *exit,
		TransactionCosts: *costs,
		Exclude:          *exclude,
		Compare:          *compare,
		OutputDir:        *outputDir,
		Format:           *format,
		LogLevel:         *logLevel,
		LogJSON:          *logJSON,
		Currency:         *currency,
		Language:         *lang,
		Verbose:          *verbose,
		Help:             *help,
	}

	cmd := commands.NewReportCommand(config)
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
