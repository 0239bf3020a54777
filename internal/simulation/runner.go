// Package simulation runs the FAIR Monte Carlo loop for one scenario:
// TEF x Susceptibility -> LEF, six loss forms with the secondary-loss gate
// -> LM, and ALE = LEF x LM x horizon.
package simulation

import (
	"fair-risk-engine/internal/distribution"
	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/metrics"
)

// Per-factor stream offsets. Each factor draws from its own sub-stream of
// the run seed so draws stay independent and reproducible.
const (
	streamTEF                 = 1
	streamZeroInflation       = 2
	streamContactFrequency    = 3
	streamProbabilityOfAction = 4
	streamEvents              = 5
	streamSusceptibility      = 10
	streamLossBase            = 20 // +0..5 in domain.AllLossForms order
	streamSLEF                = 30
	streamGate                = 31
)

// RunnerOptions configures a simulation runner.
type RunnerOptions struct {
	// Seed drives every random stream of the run. The same seed and input
	// always reproduce the same arrays.
	Seed uint64

	// NSimulations overrides the input's iteration count when > 0.
	NSimulations int

	// LowFrequencyThreshold is the Poisson/Bernoulli switchover rate.
	// Zero selects distribution.DefaultLowFrequencyThreshold.
	LowFrequencyThreshold float64
}

// Runner executes scenario simulations. A Runner is stateless between runs;
// each Run owns its seeded generators, so concurrent Runs on separate
// Runners never share a random stream.
type Runner struct {
	seed      uint64
	nOverride int
	threshold float64
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	threshold := opts.LowFrequencyThreshold
	if threshold == 0 {
		threshold = distribution.DefaultLowFrequencyThreshold
	}
	return &Runner{
		seed:      opts.Seed,
		nOverride: opts.NSimulations,
		threshold: threshold,
	}
}

// Draws holds the raw per-iteration arrays of one simulation run. The raw
// arrays are never discarded: percentile computation and portfolio
// correlation handling both need them.
type Draws struct {
	N int

	ALE []float64 // annual loss exposure per iteration
	LEF []float64 // loss event frequency per iteration (horizon-scaled)
	LM  []float64 // loss magnitude per loss event

	TEF            []float64 // sampled threat event rates
	Susceptibility []float64 // sampled susceptibility, as fraction [0, 1]

	// LossForms holds each form's sampled per-event cost. Secondary form
	// arrays are the ungated draws; SecondaryGate records which iterations
	// realized secondary losses.
	LossForms     map[string][]float64
	SecondaryGate []float64
}

// Run validates the input, fits every factor distribution, then draws all
// iterations. Validation and fitting complete before the first random draw;
// a failing input never yields partial arrays. A run is atomic: it completes
// or is abandoned wholesale, there is no mid-run cancellation.
func (r *Runner) Run(input domain.ScenarioInput) (*Draws, error) {
	input = input.WithDefaults()
	if r.nOverride > 0 {
		input.NSimulations = r.nOverride
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	n := input.NSimulations

	// 1. TEF rates.
	rates, err := r.sampleRates(input.TEF, n)
	if err != nil {
		return nil, err
	}

	// 2. Event counts with the low-frequency hybrid correction.
	events := distribution.SampleEventCounts(
		distribution.NewSource(r.seed, streamEvents), rates, r.threshold)

	// 3. Susceptibility as a fraction.
	susc, err := r.samplePercent("susceptibility", input.Susceptibility.Estimate, streamSusceptibility, n)
	if err != nil {
		return nil, err
	}

	// 4. Loss forms.
	forms := make(map[string][]float64, len(domain.AllLossForms))
	for i, name := range domain.AllLossForms {
		form, _ := input.Losses.ByName(name)
		samples, err := r.sampleLossForm(name, form, streamLossBase+uint64(i), n)
		if err != nil {
			return nil, err
		}
		forms[name] = samples
	}

	// 5. Secondary-loss gate: SLEF drawn per iteration, then a Bernoulli
	// on that iteration's draw, so both the SLEF uncertainty and the gate
	// outcome are stochastic.
	gate, err := r.sampleGate(input, n)
	if err != nil {
		return nil, err
	}

	// 6. Assemble LEF, LM, ALE.
	horizon := input.TimeHorizonYears
	ale := make([]float64, n)
	lef := make([]float64, n)
	lm := make([]float64, n)
	for i := 0; i < n; i++ {
		primary := forms[domain.LossFormProductivity][i] +
			forms[domain.LossFormResponse][i] +
			forms[domain.LossFormReplacement][i]
		secondary := gate[i] * (forms[domain.LossFormFines][i] +
			forms[domain.LossFormCompetitiveAdvantage][i] +
			forms[domain.LossFormReputation][i])

		lefRaw := events[i] * susc[i]
		lm[i] = primary + secondary
		ale[i] = lefRaw * lm[i] * horizon
		lef[i] = lefRaw * horizon
	}

	return &Draws{
		N:              n,
		ALE:            ale,
		LEF:            lef,
		LM:             lm,
		TEF:            rates,
		Susceptibility: susc,
		LossForms:      forms,
		SecondaryGate:  gate,
	}, nil
}

// RunScenario runs the simulation and reduces the arrays to a
// ScenarioResult. The raw draws are returned alongside for callers that
// aggregate across scenarios.
func (r *Runner) RunScenario(input domain.ScenarioInput) (*domain.ScenarioResult, *Draws, error) {
	input = input.WithDefaults()
	draws, err := r.Run(input)
	if err != nil {
		return nil, nil, err
	}

	formMeans := make(map[string]float64, len(domain.AllLossForms))
	for _, name := range domain.PrimaryLossForms {
		formMeans[name] = metrics.Mean(draws.LossForms[name])
	}
	for _, name := range domain.SecondaryLossForms {
		// Secondary means are gated: the expected contribution per loss
		// event, not the cost conditional on the gate firing.
		gated := make([]float64, draws.N)
		for i, v := range draws.LossForms[name] {
			gated[i] = v * draws.SecondaryGate[i]
		}
		formMeans[name] = metrics.Mean(gated)
	}

	result := &domain.ScenarioResult{
		ALE:              metrics.Summarize(draws.ALE),
		LEF:              metrics.Summarize(draws.LEF),
		LM:               metrics.Summarize(draws.LM),
		LossFormMeans:    formMeans,
		NSimulations:     draws.N,
		TimeHorizonYears: input.TimeHorizonYears,
		Currency:         input.Currency,
	}
	return result, draws, nil
}

// sampleRates draws the per-iteration expected event rates for TEF.
//
// Under the poisson model the rate is the constant lambda = p50 and the
// per-iteration stochasticity comes entirely from the event-count draw.
// Under the lognormal model the rate itself is uncertain and drawn per
// iteration. A decomposed TEF multiplies contact frequency by probability
// of action, each drawn independently.
func (r *Runner) sampleRates(f domain.FrequencyFactor, n int) ([]float64, error) {
	var rates []float64

	switch {
	case f.Decompose:
		cf, err := r.sampleRateEstimate("tef.contact_frequency", *f.ContactFrequency, f.Model, streamContactFrequency, n)
		if err != nil {
			return nil, err
		}
		poa, err := r.samplePercent("tef.probability_of_action", *f.ProbabilityOfAction, streamProbabilityOfAction, n)
		if err != nil {
			return nil, err
		}
		rates = cf
		for i := range rates {
			rates[i] *= poa[i]
		}
	default:
		var err error
		rates, err = r.sampleRateEstimate("tef", f.Estimate, f.Model, streamTEF, n)
		if err != nil {
			return nil, err
		}
	}

	if f.ZeroInflation && f.PZero > 0 {
		structural := distribution.SampleBernoulli(
			distribution.NewSource(r.seed, streamZeroInflation),
			distribution.SampleConstant(f.PZero, n))
		for i := range rates {
			if structural[i] == 1 {
				rates[i] = 0
			}
		}
	}
	return rates, nil
}

// sampleRateEstimate draws a rate array for one events/year estimate.
func (r *Runner) sampleRateEstimate(factor string, e domain.PercentileEstimate, model domain.FrequencyModel, stream uint64, n int) ([]float64, error) {
	if e.IsConstant() {
		// Includes p50 = 0: a zero-rate TEF is a valid, reportable input
		// that yields LEF identically zero, not a fitting failure.
		return distribution.SampleConstant(e.P50, n), nil
	}
	if model == domain.FrequencyModelPoisson {
		lambda, err := distribution.FitPoissonRate(factor, e)
		if err != nil {
			return nil, err
		}
		return distribution.SampleConstant(lambda, n), nil
	}
	params, err := distribution.FitLognormal(factor, e)
	if err != nil {
		return nil, err
	}
	return distribution.SampleLognormal(distribution.NewSource(r.seed, stream), params, n), nil
}

// samplePercent draws a percent-valued estimate as a fraction in [0, 1].
func (r *Runner) samplePercent(factor string, e domain.PercentileEstimate, stream uint64, n int) ([]float64, error) {
	if e.IsConstant() {
		return distribution.SampleConstant(e.P50/100, n), nil
	}
	params, err := distribution.FitBetaPERT(factor, e.P50, 0, 100)
	if err != nil {
		return nil, err
	}
	samples := distribution.SamplePERT(distribution.NewSource(r.seed, stream), params, n)
	for i := range samples {
		samples[i] /= 100
	}
	return samples, nil
}

// sampleLossForm draws one form's per-event cost in currency units.
//
//   - median zero: the form contributes nothing (all-zero array)
//   - constant triple: constant cost
//   - p10 = 0 with positive median: zero-inflated lognormal; the overall
//     P50/P90 are mapped to conditional quantiles of the positive component
//     via q* = (q - pZero) / (1 - pZero)
//   - otherwise: three-point lognormal fit
func (r *Runner) sampleLossForm(name string, form domain.LossForm, stream uint64, n int) ([]float64, error) {
	e := form.Estimate
	if e.IsZero() {
		return make([]float64, n), nil
	}
	if e.IsConstant() {
		return distribution.SampleConstant(e.P50, n), nil
	}

	src := distribution.NewSource(r.seed, stream)

	if e.P10 == 0 {
		pZero := domain.DefaultLossFormPZero
		if form.PZero != nil {
			pZero = *form.PZero
		}
		denom := 1 - pZero
		if denom < 1e-6 {
			denom = 1e-6
		}
		q50 := clamp((0.50-pZero)/denom, 1e-6, 1-1e-6)
		q90 := clamp((0.90-pZero)/denom, q50+1e-6, 1-1e-6)

		params, err := distribution.FitLognormalFromQuantiles("loss_forms."+name, e.P50, q50, e.P90, q90)
		if err != nil {
			return nil, err
		}
		return distribution.SampleZeroInflatedLognormal(src, params, pZero, n), nil
	}

	params, err := distribution.FitLognormal("loss_forms."+name, e)
	if err != nil {
		return nil, err
	}
	return distribution.SampleLognormal(src, params, n), nil
}

// sampleGate draws the per-iteration secondary-loss gate. A median-zero
// SLEF (or no secondary forms at all) never fires.
func (r *Runner) sampleGate(input domain.ScenarioInput, n int) ([]float64, error) {
	if !input.Losses.HasSecondary() || input.SLEF.IsZero() {
		return make([]float64, n), nil
	}
	probs, err := r.samplePercent("slef", input.SLEF, streamSLEF, n)
	if err != nil {
		return nil, err
	}
	return distribution.SampleBernoulli(distribution.NewSource(r.seed, streamGate), probs), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
