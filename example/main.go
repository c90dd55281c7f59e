package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/vsinha/captable/pkg/application/services/captable"
	"github.com/vsinha/captable/pkg/application/services/orchestration"
	"github.com/vsinha/captable/pkg/application/services/summary"
	"github.com/vsinha/captable/pkg/application/services/voting"
	"github.com/vsinha/captable/pkg/application/services/waterfall"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/infrastructure/repositories/file"
	"github.com/vsinha/captable/pkg/infrastructure/repositories/memory"
)

type scenario struct {
	project string
	asOf    string
	exit    float64
}

func main() {
	ctx := context.Background()

	scenarios := []scenario{
		{"seed_round.yaml", "2024-12-31", 20000000},
		{"down_round.yaml", "2024-06-01", 8000000},
		{"waterfall.yaml", "2024-06-01", 10000000},
	}

	loader := file.NewLoader()
	for _, s := range scenarios {
		project, err := loader.LoadProject(filepath.Join("example", "projects", s.project))
		if err != nil {
			log.Fatalf("load %s: %v", s.project, err)
		}

		repo := memory.NewTransactionRepository(len(project.Transactions))
		if err := repo.LoadTransactions(ctx, project.Transactions); err != nil {
			log.Fatalf("import %s: %v", s.project, err)
		}

		orchestrator := orchestration.NewAnalysisOrchestrator(
			captable.NewCapTableService(),
			waterfall.NewWaterfallService(),
			voting.NewVotingService(),
			summary.NewSummaryService(),
			repo,
			nil,
		)

		result, err := orchestrator.RunAnalysis(ctx, orchestration.AnalysisRequest{
			AsOfDate:     entities.MustDate(s.asOf),
			ExitProceeds: s.exit,
		})
		if err != nil {
			log.Fatalf("analyze %s: %v", s.project, err)
		}

		fmt.Printf("== %s (exit %.0f) ==\n", project.Name, s.exit)
		fmt.Println(result.GetSummary())
		fmt.Println("Payouts:")
		for _, p := range result.Payouts.Entries {
			fmt.Printf("  %-22s %14.2f  %5.2fx\n", p.StakeholderName, p.TotalPayout, p.Multiple)
		}
		fmt.Println("Findings:")
		for _, f := range result.Assessment.Findings {
			fmt.Printf("  [%s] %s\n", f.Severity, f.Title)
		}
		fmt.Println()
	}
}
