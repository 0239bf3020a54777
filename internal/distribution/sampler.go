package distribution

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultLowFrequencyThreshold is the rate below which event counts are
// drawn from a Bernoulli(1-exp(-rate)) instead of a Poisson. At very low
// rates a naive Poisson draw is dominated by zeros and yields a bimodal,
// misleading ALE distribution when reported as a mean; the Bernoulli
// substitute preserves the exact "any loss this year" probability while
// dropping multi-event outcomes whose likelihood is negligible there. The
// cutoff is an inherited heuristic, tunable but deliberately unchanged.
const DefaultLowFrequencyThreshold = 0.1

// NewSource returns a deterministic random stream. seed selects the run;
// stream separates factors within a run so factor draws stay independent.
// Each simulation owns its sources outright, never a shared global stream.
func NewSource(seed, stream uint64) rand.Source {
	return rand.NewPCG(seed, stream)
}

// SampleConstant fills an array with a single value, the degenerate case
// for estimates with no spread.
func SampleConstant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// SampleLognormal draws n values. Sigma = 0 produces the constant exp(Mu).
func SampleLognormal(src rand.Source, p LognormalParams, n int) []float64 {
	if p.Sigma == 0 {
		return SampleConstant(math.Exp(p.Mu), n)
	}
	dist := distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// SampleZeroInflatedLognormal draws n values that are exactly zero with
// probability pZero and lognormal otherwise.
func SampleZeroInflatedLognormal(src rand.Source, p LognormalParams, pZero float64, n int) []float64 {
	rng := rand.New(src)
	dist := distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma, Src: src}
	out := make([]float64, n)
	for i := range out {
		if rng.Float64() < pZero {
			continue
		}
		if p.Sigma == 0 {
			out[i] = math.Exp(p.Mu)
		} else {
			out[i] = dist.Rand()
		}
	}
	return out
}

// SamplePERT draws n values from a Beta-PERT, scaled to [Min, Max].
func SamplePERT(src rand.Source, p PERTParams, n int) []float64 {
	dist := distuv.Beta{Alpha: p.Alpha, Beta: p.Beta, Src: src}
	span := p.Max - p.Min
	out := make([]float64, n)
	for i := range out {
		out[i] = p.Min + dist.Rand()*span
	}
	return out
}

// SampleBernoulli draws n 0/1 gates with per-iteration success
// probabilities. Probabilities outside [0, 1] behave as their clamp: p <= 0
// never fires, p >= 1 always fires.
func SampleBernoulli(src rand.Source, probs []float64) []float64 {
	rng := rand.New(src)
	out := make([]float64, len(probs))
	for i, p := range probs {
		if rng.Float64() < p {
			out[i] = 1
		}
	}
	return out
}

// SampleEventCounts draws per-iteration event counts from per-iteration
// expected rates. Rates at or above threshold draw Poisson(rate); rates
// below it draw Bernoulli(1-exp(-rate)), the low-frequency hybrid branch
// described on DefaultLowFrequencyThreshold. A rate of zero always yields
// zero events.
func SampleEventCounts(src rand.Source, rates []float64, threshold float64) []float64 {
	rng := rand.New(src)
	out := make([]float64, len(rates))
	for i, rate := range rates {
		switch {
		case rate <= 0:
			out[i] = 0
		case rate < threshold:
			pAny := 1 - math.Exp(-rate)
			if rng.Float64() < pAny {
				out[i] = 1
			}
		default:
			out[i] = distuv.Poisson{Lambda: rate, Src: src}.Rand()
		}
	}
	return out
}
