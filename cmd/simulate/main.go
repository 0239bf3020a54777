// Package main simulates a single risk scenario from a JSON file and
// prints the summarized result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"fair-risk-engine/internal/api"
	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/simulation"
)

func main() {
	inputPath := flag.String("input", "", "Path to a scenario JSON file (required)")
	seed := flag.Uint64("seed", api.DefaultSeed, "Random seed")
	nSimulations := flag.Int("n-simulations", 0, "Override the scenario's iteration count")
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	if *inputPath == "" {
		logger.Fatal("--input is required")
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatalf("Read input: %v", err)
	}

	var input domain.ScenarioInput
	if err := json.Unmarshal(data, &input); err != nil {
		logger.Fatalf("Parse input: %v", err)
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Seed:         *seed,
		NSimulations: *nSimulations,
	})
	result, _, err := runner.RunScenario(input)
	if err != nil {
		logger.Fatalf("Simulation failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatalf("Encode result: %v", err)
	}
	fmt.Println(string(out))
}
