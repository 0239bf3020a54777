// Package sensitivity quantifies how a scenario's expected annual loss
// responds to each input factor: one-at-a-time sweeps, elasticities with
// closed-form partial derivatives, a first-order variance screening, and a
// nearest-sample target solver.
package sensitivity

import (
	"math"

	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/simulation"
)

// Factor identifiers accepted by the analyzer. Loss forms are addressed by
// their domain names.
const (
	FactorTEF            = "tef"
	FactorSusceptibility = "susceptibility"
	FactorSLEF           = "slef"
)

// Sweep defaults.
const (
	DefaultSteps        = 25
	DefaultRangeMinPct  = -50
	DefaultRangeMaxPct  = 50
	DefaultMCIterations = 500

	// elasticityStepPct is the forward perturbation for the elasticity
	// estimate.
	elasticityStepPct = 1.0

	// varianceStepPct is the symmetric perturbation of the first-order
	// variance screening.
	varianceStepPct = 20.0
)

// SweepOptions configures one sensitivity sweep.
type SweepOptions struct {
	// Steps is the number of sweep points; zero selects DefaultSteps.
	Steps int

	// RangeMinPct/RangeMaxPct bound the perturbation range as percentages
	// of baseline. Both zero selects the default symmetric range.
	RangeMinPct float64
	RangeMaxPct float64

	// MonteCarlo switches each sweep point from the deterministic
	// point-estimate path to a nested simulation that also yields a
	// P10-P90 band. Iterations defaults to DefaultMCIterations.
	MonteCarlo bool
	Iterations int
}

func (o SweepOptions) withDefaults() SweepOptions {
	if o.Steps <= 0 {
		o.Steps = DefaultSteps
	}
	if o.RangeMinPct == 0 && o.RangeMaxPct == 0 {
		o.RangeMinPct = DefaultRangeMinPct
		o.RangeMaxPct = DefaultRangeMaxPct
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultMCIterations
	}
	return o
}

// Analyzer runs sensitivity analyses against a fixed seed so nested
// simulations are reproducible.
type Analyzer struct {
	seed uint64
}

// NewAnalyzer creates an analyzer whose nested simulations derive from seed.
func NewAnalyzer(seed uint64) *Analyzer {
	return &Analyzer{seed: seed}
}

// Analyze sweeps one factor across a percentage range of its baseline,
// holding every other factor at baseline, and derives the elasticity and
// the closed-form partial derivative at the baseline point.
//
// Percent-valued factors (susceptibility, SLEF) are perturbed in log-odds
// space so no sweep point can leave (0, 100); rate and currency factors are
// scaled multiplicatively.
func (a *Analyzer) Analyze(input domain.ScenarioInput, factor string, opts SweepOptions) (*domain.SensitivityResult, error) {
	input = input.WithDefaults()
	if err := input.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	baseline, isPercent, err := factorBaseline(input, factor)
	if err != nil {
		return nil, err
	}
	if err := checkPerturbable(factor, baseline, isPercent); err != nil {
		return nil, err
	}
	if opts.RangeMinPct >= opts.RangeMaxPct {
		return nil, &domain.ValidationError{Field: "range", Reason: "range min must be < max"}
	}

	baselineALE := deterministicALE(input)

	curve := make([]domain.SensitivityPoint, 0, opts.Steps)
	for step := 0; step < opts.Steps; step++ {
		frac := 0.0
		if opts.Steps > 1 {
			frac = float64(step) / float64(opts.Steps-1)
		}
		pct := opts.RangeMinPct + frac*(opts.RangeMaxPct-opts.RangeMinPct)
		value := perturbValue(baseline, pct, isPercent)

		point := domain.SensitivityPoint{FactorValue: value}
		if opts.MonteCarlo {
			perturbed := setFactor(input, factor, value, isPercent)
			perturbed.NSimulations = opts.Iterations
			result, _, err := simulation.NewRunner(simulation.RunnerOptions{
				Seed: a.seed + uint64(step),
			}).RunScenario(perturbed)
			if err != nil {
				return nil, err
			}
			point.ALE = result.ALE.Mean
			p10, p90 := result.ALE.P10, result.ALE.P90
			point.ALEP10, point.ALEP90 = &p10, &p90
		} else {
			point.ALE = deterministicALE(setFactor(input, factor, value, isPercent))
		}
		curve = append(curve, point)
	}

	down, up := a.elasticities(input, factor, baseline, isPercent, baselineALE)

	return &domain.SensitivityResult{
		Factor:            factor,
		BaselineALE:       baselineALE,
		Curve:             curve,
		Elasticity:        up,
		PartialDerivative: partialDerivative(input, factor),
		ElasticityDown:    down,
		ElasticityUp:      up,
		AverageElasticity: (down + up) / 2,
	}, nil
}

// elasticities estimates (dALE/ALE)/(dx/x) from small symmetric
// perturbations at baseline.
func (a *Analyzer) elasticities(input domain.ScenarioInput, factor string, baseline float64, isPercent bool, baselineALE float64) (down, up float64) {
	if baselineALE == 0 {
		return 0, 0
	}
	evalAt := func(pct float64) float64 {
		value := perturbValue(baseline, pct, isPercent)
		relDX := (value - baseline) / baseline
		if relDX == 0 {
			return 0
		}
		ale := deterministicALE(setFactor(input, factor, value, isPercent))
		return ((ale - baselineALE) / baselineALE) / relDX
	}
	return evalAt(-elasticityStepPct), evalAt(elasticityStepPct)
}

// SolveTarget returns the sweep point whose ALE is closest to target. The
// precision is bounded by the sweep's step count; this is a nearest-sample
// lookup, not an analytic inverse.
func SolveTarget(result *domain.SensitivityResult, targetALE float64) (factorValue, achievedALE float64, ok bool) {
	if len(result.Curve) == 0 {
		return 0, 0, false
	}
	best := result.Curve[0]
	bestDist := math.Abs(best.ALE - targetALE)
	for _, p := range result.Curve[1:] {
		if d := math.Abs(p.ALE - targetALE); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best.FactorValue, best.ALE, true
}

// DecomposeVariance screens each factor's contribution to ALE variance by
// perturbing it +/-20% (log-odds for percent factors) with all others at
// baseline and using (ALE_high - ALE_low)^2 as a first-order proxy,
// normalized so contributions sum to 100.
//
// This is a screening heuristic, not a Sobol decomposition; it ranks
// drivers but carries no further statistical claim.
func DecomposeVariance(input domain.ScenarioInput) (map[string]float64, error) {
	input = input.WithDefaults()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	raw := make(map[string]float64)
	total := 0.0
	for _, factor := range sweepableFactors(input) {
		baseline, isPercent, err := factorBaseline(input, factor)
		if err != nil {
			return nil, err
		}
		if err := checkPerturbable(factor, baseline, isPercent); err != nil {
			continue
		}
		low := deterministicALE(setFactor(input, factor, perturbValue(baseline, -varianceStepPct, isPercent), isPercent))
		high := deterministicALE(setFactor(input, factor, perturbValue(baseline, varianceStepPct, isPercent), isPercent))
		contribution := (high - low) * (high - low)
		raw[factor] = contribution
		total += contribution
	}

	contributions := make(map[string]float64, len(raw))
	for factor, c := range raw {
		if total > 0 {
			contributions[factor] = 100 * c / total
		} else {
			contributions[factor] = 0
		}
	}
	return contributions, nil
}

// sweepableFactors lists the factors that participate in the screening for
// this input: the frequency chain always, loss forms only when they carry a
// positive median, SLEF only when a secondary form exists.
func sweepableFactors(input domain.ScenarioInput) []string {
	factors := []string{FactorTEF, FactorSusceptibility}
	if input.Losses.HasSecondary() {
		factors = append(factors, FactorSLEF)
	}
	for _, name := range domain.AllLossForms {
		form, _ := input.Losses.ByName(name)
		if form.Estimate.P50 > 0 {
			factors = append(factors, name)
		}
	}
	return factors
}

// factorBaseline resolves a factor name to its baseline point estimate and
// whether it is percent-valued.
func factorBaseline(input domain.ScenarioInput, factor string) (baseline float64, isPercent bool, err error) {
	switch factor {
	case FactorTEF:
		return input.TEF.Estimate.P50, false, nil
	case FactorSusceptibility:
		return input.Susceptibility.Estimate.P50, true, nil
	case FactorSLEF:
		return input.SLEF.P50, true, nil
	}
	if form, ok := input.Losses.ByName(factor); ok {
		return form.Estimate.P50, false, nil
	}
	return 0, false, &domain.ValidationError{Field: "factor", Reason: "unknown factor " + factor}
}

// checkPerturbable rejects baselines a relative perturbation cannot move:
// zero for multiplicative factors, the closed bounds for percent factors.
func checkPerturbable(factor string, baseline float64, isPercent bool) error {
	if isPercent {
		if baseline <= 0 || baseline >= 100 {
			return &domain.ValidationError{Field: factor, Reason: "percent baseline must be inside (0, 100) for sensitivity"}
		}
		return nil
	}
	if baseline <= 0 {
		return &domain.ValidationError{Field: factor, Reason: "baseline must be > 0 for sensitivity"}
	}
	return nil
}

// perturbValue moves a baseline by pct percent. Percent-valued baselines
// move in log-odds space, so the result stays inside (0, 100) for any pct;
// others scale multiplicatively.
func perturbValue(baseline, pct float64, isPercent bool) float64 {
	if !isPercent {
		return baseline * (1 + pct/100)
	}
	shift := math.Log(1 + pct/100)
	odds := math.Log(baseline / (100 - baseline))
	return 100 / (1 + math.Exp(-(odds + shift)))
}

// setFactor returns a copy of the input with one factor's estimate moved to
// value, shifting the whole percentile triple so its spread shape survives:
// multiplicative rescale for rates and currency, a uniform log-odds shift
// for percent factors.
func setFactor(input domain.ScenarioInput, factor string, value float64, isPercent bool) domain.ScenarioInput {
	switch factor {
	case FactorTEF:
		input.TEF.Estimate = shiftEstimate(input.TEF.Estimate, value, isPercent)
	case FactorSusceptibility:
		input.Susceptibility.Estimate = shiftEstimate(input.Susceptibility.Estimate, value, isPercent)
	case FactorSLEF:
		input.SLEF = shiftEstimate(input.SLEF, value, isPercent)
	case domain.LossFormProductivity:
		input.Losses.Productivity.Estimate = shiftEstimate(input.Losses.Productivity.Estimate, value, isPercent)
	case domain.LossFormResponse:
		input.Losses.Response.Estimate = shiftEstimate(input.Losses.Response.Estimate, value, isPercent)
	case domain.LossFormReplacement:
		input.Losses.Replacement.Estimate = shiftEstimate(input.Losses.Replacement.Estimate, value, isPercent)
	case domain.LossFormFines:
		input.Losses.Fines.Estimate = shiftEstimate(input.Losses.Fines.Estimate, value, isPercent)
	case domain.LossFormCompetitiveAdvantage:
		input.Losses.CompetitiveAdvantage.Estimate = shiftEstimate(input.Losses.CompetitiveAdvantage.Estimate, value, isPercent)
	case domain.LossFormReputation:
		input.Losses.Reputation.Estimate = shiftEstimate(input.Losses.Reputation.Estimate, value, isPercent)
	}
	return input
}

func shiftEstimate(e domain.PercentileEstimate, newP50 float64, isPercent bool) domain.PercentileEstimate {
	if e.P50 == 0 {
		return domain.PercentileEstimate{P10: newP50, P50: newP50, P90: newP50}
	}
	if !isPercent {
		scale := newP50 / e.P50
		return domain.PercentileEstimate{P10: e.P10 * scale, P50: newP50, P90: e.P90 * scale}
	}
	shift := math.Log(newP50/(100-newP50)) - math.Log(e.P50/(100-e.P50))
	return domain.PercentileEstimate{
		P10: shiftPercent(e.P10, shift),
		P50: newP50,
		P90: shiftPercent(e.P90, shift),
	}
}

// shiftPercent applies a log-odds shift to a percent value; the closed
// bounds 0 and 100 are fixed points.
func shiftPercent(p, shift float64) float64 {
	if p <= 0 || p >= 100 {
		return p
	}
	odds := math.Log(p / (100 - p))
	return 100 / (1 + math.Exp(-(odds + shift)))
}

// deterministicALE evaluates the FAIR chain at the median point estimates:
// TEF * Susceptibility * (primary + SLEF * secondary) * horizon.
func deterministicALE(input domain.ScenarioInput) float64 {
	tef := input.TEF.Estimate.P50
	if input.TEF.Decompose && input.TEF.ContactFrequency != nil && input.TEF.ProbabilityOfAction != nil {
		tef = input.TEF.ContactFrequency.P50 * input.TEF.ProbabilityOfAction.P50 / 100
	}
	lef := tef * input.Susceptibility.Estimate.P50 / 100

	primary := input.Losses.Productivity.Estimate.P50 +
		input.Losses.Response.Estimate.P50 +
		input.Losses.Replacement.Estimate.P50
	secondary := input.Losses.Fines.Estimate.P50 +
		input.Losses.CompetitiveAdvantage.Estimate.P50 +
		input.Losses.Reputation.Estimate.P50
	lm := primary + secondary*input.SLEF.P50/100

	return lef * lm * input.TimeHorizonYears
}

// partialDerivative evaluates the closed-form dALE/dfactor at the baseline
// medians. Percent-valued factors carry the 0.01 unit conversion because
// they are stored on a 0-100 scale. The time horizon multiplies every
// partial, as it multiplies ALE itself.
func partialDerivative(input domain.ScenarioInput, factor string) float64 {
	tef := input.TEF.Estimate.P50
	if input.TEF.Decompose && input.TEF.ContactFrequency != nil && input.TEF.ProbabilityOfAction != nil {
		tef = input.TEF.ContactFrequency.P50 * input.TEF.ProbabilityOfAction.P50 / 100
	}
	suscFrac := input.Susceptibility.Estimate.P50 / 100
	lef := tef * suscFrac

	primary := input.Losses.Productivity.Estimate.P50 +
		input.Losses.Response.Estimate.P50 +
		input.Losses.Replacement.Estimate.P50
	secondary := input.Losses.Fines.Estimate.P50 +
		input.Losses.CompetitiveAdvantage.Estimate.P50 +
		input.Losses.Reputation.Estimate.P50
	lm := primary + secondary*input.SLEF.P50/100

	h := input.TimeHorizonYears

	switch factor {
	case FactorTEF:
		return suscFrac * lm * h
	case FactorSusceptibility:
		return tef * lm * 0.01 * h
	case FactorSLEF:
		return lef * secondary * 0.01 * h
	case domain.LossFormProductivity, domain.LossFormResponse, domain.LossFormReplacement:
		return lef * h
	case domain.LossFormFines, domain.LossFormCompetitiveAdvantage, domain.LossFormReputation:
		return lef * input.SLEF.P50 / 100 * h
	}
	return 0
}
