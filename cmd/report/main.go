// Package main generates a risk report for a portfolio of scenarios: a
// markdown report and a CSV of per-scenario statistics written to an
// output directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fair-risk-engine/internal/api"
	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/portfolio"
	"fair-risk-engine/internal/reporting"
)

func main() {
	inputPath := flag.String("input", "", "Path to a scenarios JSON file: {\"id\": scenario, ...} (required)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	mode := flag.String("mode", string(portfolio.ModeIndependent), "Aggregation mode: independent or correlated")
	correlation := flag.Float64("correlation", 0, "Correlation coefficient in [0, 1] for correlated mode")
	seed := flag.Uint64("seed", api.DefaultSeed, "Random seed")
	nSimulations := flag.Int("n-simulations", domain.DefaultNSimulations, "Monte Carlo iteration count per scenario")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *inputPath == "" {
		logger.Fatal("--input is required")
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatalf("Read input: %v", err)
	}

	var scenarios map[string]domain.ScenarioInput
	if err := json.Unmarshal(data, &scenarios); err != nil {
		logger.Fatalf("Parse input: %v", err)
	}

	gen := reporting.NewGenerator(*seed, *nSimulations)
	report, err := gen.Generate(context.Background(), scenarios, portfolio.Options{
		Mode:        portfolio.Mode(*mode),
		Correlation: *correlation,
	})
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Create output dir: %v", err)
	}

	mdPath := filepath.Join(*outputDir, "RISK_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("Write markdown: %v", err)
	}

	csvPath := filepath.Join(*outputDir, "scenarios.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Scenarios)), 0o644); err != nil {
		logger.Fatalf("Write CSV: %v", err)
	}

	fmt.Println("Risk report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}
