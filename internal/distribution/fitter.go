// Package distribution converts (P10, P50, P90) percentile estimates into
// fitted distribution parameters and draws deterministic samples from them.
package distribution

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"fair-risk-engine/internal/domain"
)

// z90 is the standard normal quantile at 0.90, used to solve lognormal
// sigma from the tail percentiles.
var z90 = distuv.UnitNormal.Quantile(0.90)

// LognormalParams are the parameters of the underlying normal:
// ln(X) ~ N(Mu, Sigma). Sigma = 0 denotes a degenerate constant exp(Mu).
type LognormalParams struct {
	Mu    float64
	Sigma float64
}

// FitLognormal fits a lognormal from a percentile triple. P50 is taken as
// the distribution median (Mu = ln p50). Sigma is solved independently from
// the P90 and P10 quantiles and the two implied values are averaged, so
// neither tail is silently preferred when they disagree.
func FitLognormal(factor string, e domain.PercentileEstimate) (LognormalParams, error) {
	if e.P10 <= 0 || e.P50 <= 0 || e.P90 <= 0 {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "lognormal requires all percentiles > 0",
		}
	}
	if e.P10 > e.P50 || e.P50 > e.P90 {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "percentiles must satisfy p10 <= p50 <= p90",
		}
	}

	mu := math.Log(e.P50)
	sigmaHigh := (math.Log(e.P90) - math.Log(e.P50)) / z90
	sigmaLow := (math.Log(e.P50) - math.Log(e.P10)) / z90
	sigma := (sigmaHigh + sigmaLow) / 2

	if !isFinite(mu) || !isFinite(sigma) {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "fitted parameters are not finite",
		}
	}
	return LognormalParams{Mu: mu, Sigma: sigma}, nil
}

// FitLognormalFromQuantiles fits a lognormal through two arbitrary
// (value, probability) points. Used for zero-inflated loss forms, where the
// overall P50/P90 map to conditional quantiles of the positive component.
func FitLognormalFromQuantiles(factor string, x1, q1, x2, q2 float64) (LognormalParams, error) {
	if x1 <= 0 || x2 <= 0 {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "quantile values must be > 0",
		}
	}
	if q1 <= 0 || q1 >= 1 || q2 <= 0 || q2 >= 1 || q1 >= q2 {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "quantile probabilities must satisfy 0 < q1 < q2 < 1",
		}
	}

	z1 := distuv.UnitNormal.Quantile(q1)
	z2 := distuv.UnitNormal.Quantile(q2)
	sigma := (math.Log(x2) - math.Log(x1)) / (z2 - z1)
	if sigma < 0 {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "quantile values must be non-decreasing in probability",
		}
	}
	mu := math.Log(x1) - z1*sigma

	if !isFinite(mu) || !isFinite(sigma) {
		return LognormalParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "fitted parameters are not finite",
		}
	}
	return LognormalParams{Mu: mu, Sigma: sigma}, nil
}

// PERTParams parameterize a Beta-PERT distribution on [Min, Max].
type PERTParams struct {
	Alpha float64
	Beta  float64
	Min   float64
	Max   float64
}

// FitBetaPERT derives Beta parameters from the standard PERT formulas:
// alpha = 1 + 4*(mode-min)/(max-min), beta = 1 + 4*(max-mode)/(max-min).
func FitBetaPERT(factor string, mode, min, max float64) (PERTParams, error) {
	if min >= max {
		return PERTParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "PERT requires min < max",
		}
	}
	if mode < min || mode > max {
		return PERTParams{}, &domain.DistributionFitError{
			Factor: factor,
			Reason: "PERT mode must lie within [min, max]",
		}
	}
	span := max - min
	return PERTParams{
		Alpha: 1 + 4*(mode-min)/span,
		Beta:  1 + 4*(max-mode)/span,
		Min:   min,
		Max:   max,
	}, nil
}

// FitPoissonRate returns the Poisson rate for a TEF triple. The median is
// used directly as lambda (Poisson has a single parameter); P10/P90 are kept
// by callers only as sensitivity-range bounds.
func FitPoissonRate(factor string, e domain.PercentileEstimate) (float64, error) {
	if e.P50 < 0 || !isFinite(e.P50) {
		return 0, &domain.DistributionFitError{
			Factor: factor,
			Reason: "poisson rate must be a finite value >= 0",
		}
	}
	return e.P50, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
