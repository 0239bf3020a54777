package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/portfolio"
	"fair-risk-engine/internal/sensitivity"
	"fair-risk-engine/internal/simulation"
)

// Generator produces risk reports by running the simulation and aggregation
// layers over a set of scenarios.
type Generator struct {
	seed         uint64
	nSimulations int
	now          func() time.Time // Injectable clock for deterministic output
	newID        func() string
}

// NewGenerator creates a report generator. All simulations derive from seed
// so a report is reproducible end to end.
func NewGenerator(seed uint64, nSimulations int) *Generator {
	if nSimulations <= 0 {
		nSimulations = domain.DefaultNSimulations
	}
	return &Generator{
		seed:         seed,
		nSimulations: nSimulations,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithIDGenerator sets a custom run-id generator for deterministic output.
func (g *Generator) WithIDGenerator(newID func() string) *Generator {
	g.newID = newID
	return g
}

// Generate simulates every scenario, aggregates the portfolio under the
// given options, and sweeps each scenario's top loss drivers.
func (g *Generator) Generate(ctx context.Context, scenarios map[string]domain.ScenarioInput, aggOpts portfolio.Options) (*Report, error) {
	if aggOpts.Seed == 0 {
		aggOpts.Seed = g.seed
	}
	if aggOpts.NSimulations == 0 {
		aggOpts.NSimulations = g.nSimulations
	}

	agg, err := portfolio.NewAggregator(aggOpts)
	if err != nil {
		return nil, err
	}
	portfolioResult, err := agg.Aggregate(ctx, scenarios)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(scenarios))
	for id := range scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	report := &Report{
		RunID:       g.newID(),
		GeneratedAt: g.now(),
		NSimulation: aggOpts.NSimulations,
		Seed:        aggOpts.Seed,
	}

	for _, id := range ids {
		section, sens, err := g.scenarioSections(id, scenarios[id])
		if err != nil {
			return nil, err
		}
		report.Scenarios = append(report.Scenarios, section)
		report.Sensitivities = append(report.Sensitivities, sens...)
		if report.Currency == "" {
			report.Currency = section.Result.Currency
		}
	}

	if len(scenarios) > 1 {
		report.Portfolio = portfolioResult
	}
	return report, nil
}

// scenarioSections reuses the aggregation's scenario means and adds a
// per-factor sensitivity sweep for every perturbable driver.
func (g *Generator) scenarioSections(id string, input domain.ScenarioInput) (ScenarioSection, []SensitivitySection, error) {
	input = input.WithDefaults()
	input.NSimulations = g.nSimulations

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Seed:         portfolio.ScenarioSeed(g.seed, id),
		NSimulations: g.nSimulations,
	})
	result, _, err := runner.RunScenario(input)
	if err != nil {
		return ScenarioSection{}, nil, err
	}
	section := ScenarioSection{ID: id, Result: *result}

	shares, err := sensitivity.DecomposeVariance(input)
	if err != nil {
		return ScenarioSection{}, nil, err
	}

	analyzer := sensitivity.NewAnalyzer(g.seed)
	factors := make([]string, 0, len(shares))
	for factor := range shares {
		factors = append(factors, factor)
	}
	sort.Strings(factors)

	var sections []SensitivitySection
	for _, factor := range factors {
		sweep, err := analyzer.Analyze(input, factor, sensitivity.SweepOptions{})
		if err != nil {
			// A factor that cannot be swept (degenerate baseline) is
			// skipped, not fatal to the report.
			continue
		}
		sections = append(sections, SensitivitySection{
			ScenarioID:       id,
			Result:           *sweep,
			VarianceSharePct: shares[factor],
		})
	}
	return section, sections, nil
}
