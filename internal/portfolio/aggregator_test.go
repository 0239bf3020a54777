package portfolio

import (
	"context"
	"math"
	"testing"

	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/simulation"
)

func est(p10, p50, p90 float64) domain.PercentileEstimate {
	return domain.PercentileEstimate{P10: p10, P50: p50, P90: p90}
}

func scenario(tefP50 float64) domain.ScenarioInput {
	return domain.ScenarioInput{
		TEF: domain.FrequencyFactor{
			Estimate: est(tefP50/2, tefP50, tefP50*2),
			Model:    domain.FrequencyModelPoisson,
		},
		Susceptibility: domain.SusceptibilityFactor{Estimate: est(20, 35, 55)},
		Losses: domain.LossForms{
			Productivity: domain.LossForm{Estimate: est(150000, 400000, 900000)},
			Response:     domain.LossForm{Estimate: est(150000, 250000, 500000)},
		},
		SLEF: est(35, 65, 85),
	}
}

func testPortfolio() map[string]domain.ScenarioInput {
	return map[string]domain.ScenarioInput{
		"ransomware":    scenario(2.5),
		"insider":       scenario(0.8),
		"vendor-breach": scenario(1.5),
	}
}

func TestModeIsRequired(t *testing.T) {
	if _, err := NewAggregator(Options{Seed: 1}); err == nil {
		t.Fatal("empty aggregation mode accepted")
	}
	if _, err := NewAggregator(Options{Seed: 1, Mode: "comonotonic"}); err == nil {
		t.Fatal("unknown aggregation mode accepted")
	}
	if _, err := NewAggregator(Options{Seed: 1, Mode: ModeCorrelated, Correlation: 1.5}); err == nil {
		t.Fatal("correlation outside [0, 1] accepted")
	}
	if _, err := NewAggregator(Options{Seed: 1, Mode: ModeIndependent, Correlation: 0.5}); err == nil {
		t.Fatal("correlation accepted in independent mode")
	}
}

func TestMeansAddExactly(t *testing.T) {
	scenarios := testPortfolio()
	agg, err := NewAggregator(Options{Seed: 42, Mode: ModeIndependent, NSimulations: 20000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	result, err := agg.Aggregate(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	// Rebuild each scenario independently with the same derived seeds and
	// check total ALE is the exact sum, regardless of correlation mode.
	sumALE, sumLEF := 0.0, 0.0
	for id, input := range scenarios {
		runner := simulation.NewRunner(simulation.RunnerOptions{
			Seed:         ScenarioSeed(42, id),
			NSimulations: 20000,
		})
		sr, _, err := runner.RunScenario(input)
		if err != nil {
			t.Fatalf("scenario %s: %v", id, err)
		}
		sumALE += sr.ALE.Mean
		sumLEF += sr.LEF.Mean
		if got := result.ScenarioALEs[id]; got != sr.ALE.Mean {
			t.Errorf("scenario %s ALE mean = %v, want %v", id, got, sr.ALE.Mean)
		}
	}
	if math.Abs(result.TotalALE-sumALE) > 1e-6*sumALE {
		t.Errorf("total ALE = %v, want exact sum %v", result.TotalALE, sumALE)
	}
	if math.Abs(result.ExpectedEventsPerYear-sumLEF) > 1e-6*sumLEF {
		t.Errorf("expected events = %v, want exact sum %v", result.ExpectedEventsPerYear, sumLEF)
	}
}

func TestWeightedAverageLM(t *testing.T) {
	agg, err := NewAggregator(Options{Seed: 7, Mode: ModeIndependent, NSimulations: 10000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	result, err := agg.Aggregate(context.Background(), testPortfolio())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if result.WeightedAverageLM == nil {
		t.Fatal("weighted average LM reported N/A for a live portfolio")
	}

	want := 0.0
	lefSum := 0.0
	for id := range result.ScenarioLEFs {
		want += result.ScenarioLEFs[id] * result.ScenarioLMs[id]
		lefSum += result.ScenarioLEFs[id]
	}
	want /= lefSum
	if math.Abs(*result.WeightedAverageLM-want) > 1e-9*want {
		t.Errorf("weighted LM = %v, want %v", *result.WeightedAverageLM, want)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestZeroFrequencyPortfolioReportsNA(t *testing.T) {
	dormant := scenario(1)
	dormant.TEF.Estimate = est(0, 0, 0)

	agg, err := NewAggregator(Options{Seed: 7, Mode: ModeIndependent, NSimulations: 1000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	result, err := agg.Aggregate(context.Background(), map[string]domain.ScenarioInput{"dormant": dormant})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if result.WeightedAverageLM != nil {
		t.Errorf("weighted LM = %v, want N/A with zero total LEF", *result.WeightedAverageLM)
	}
	if len(result.Warnings) == 0 {
		t.Error("degenerate portfolio produced no warning")
	}
	if result.TotalALE != 0 {
		t.Errorf("total ALE = %v, want 0", result.TotalALE)
	}
}

func TestConcentrationFlag(t *testing.T) {
	scenarios := map[string]domain.ScenarioInput{
		"dominant": scenario(10),
		"minor":    scenario(0.5),
	}
	agg, err := NewAggregator(Options{Seed: 3, Mode: ModeIndependent, NSimulations: 10000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	result, err := agg.Aggregate(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if result.TopScenarioID != "dominant" {
		t.Errorf("top scenario = %q, want dominant", result.TopScenarioID)
	}
	if result.TopScenarioShare <= domain.HighConcentrationThreshold {
		t.Errorf("top share = %v, expected above %v", result.TopScenarioShare, domain.HighConcentrationThreshold)
	}
	if !result.HighConcentration {
		t.Error("high concentration not flagged")
	}
}

func TestComonotonicTailDominatesIndependent(t *testing.T) {
	scenarios := testPortfolio()

	indep, err := NewAggregator(Options{Seed: 42, Mode: ModeIndependent, NSimulations: 20000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	indepResult, err := indep.Aggregate(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	perfect, err := NewAggregator(Options{Seed: 42, Mode: ModeCorrelated, Correlation: 1, NSimulations: 20000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	perfectResult, err := perfect.Aggregate(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if perfectResult.TotalALEStats.P90 < indepResult.TotalALEStats.P90 {
		t.Errorf("comonotonic P90 %v below independent P90 %v",
			perfectResult.TotalALEStats.P90, indepResult.TotalALEStats.P90)
	}

	// Means are mode-independent.
	if math.Abs(perfectResult.TotalALE-indepResult.TotalALE) > 1e-9*indepResult.TotalALE {
		t.Errorf("total ALE differs across modes: %v vs %v", perfectResult.TotalALE, indepResult.TotalALE)
	}
}

func TestDiversificationBenefit(t *testing.T) {
	agg, err := NewAggregator(Options{Seed: 42, Mode: ModeIndependent, NSimulations: 20000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	result, err := agg.Aggregate(context.Background(), testPortfolio())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if result.DiversificationBenefit < 0 {
		t.Errorf("independent diversification benefit negative: %v", result.DiversificationBenefit)
	}
	if result.DiversificationBenefitPct < 0 || result.DiversificationBenefitPct > 100 {
		t.Errorf("benefit pct out of range: %v", result.DiversificationBenefitPct)
	}
}

func TestScenarioSeedStability(t *testing.T) {
	full := testPortfolio()
	solo := map[string]domain.ScenarioInput{"ransomware": full["ransomware"]}

	aggFull, err := NewAggregator(Options{Seed: 9, Mode: ModeIndependent, NSimulations: 5000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fullResult, err := aggFull.Aggregate(context.Background(), full)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	aggSolo, err := NewAggregator(Options{Seed: 9, Mode: ModeIndependent, NSimulations: 5000})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	soloResult, err := aggSolo.Aggregate(context.Background(), solo)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if fullResult.ScenarioALEs["ransomware"] != soloResult.ScenarioALEs["ransomware"] {
		t.Error("scenario draws changed when the surrounding portfolio changed")
	}
}

func TestInvalidScenarioNamesItself(t *testing.T) {
	bad := scenario(1)
	bad.Susceptibility.Estimate = est(90, 50, 95) // p10 > p50

	agg, err := NewAggregator(Options{Seed: 1, Mode: ModeIndependent, NSimulations: 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = agg.Aggregate(context.Background(), map[string]domain.ScenarioInput{
		"ok":  scenario(1),
		"bad": bad,
	})
	if err == nil {
		t.Fatal("invalid scenario accepted")
	}
}
