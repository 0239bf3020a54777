package domain

import "math"

// PercentileEstimate is an expert-elicited three-point estimate.
// All three values share one unit: events/year, currency, or percent.
type PercentileEstimate struct {
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
}

// Validate checks monotonicity (p10 <= p50 <= p90) and finiteness.
// The engine never clamps a violating triple; clamping is the caller's job.
func (e PercentileEstimate) Validate(field string) error {
	for _, v := range []float64{e.P10, e.P50, e.P90} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: field, Reason: "percentiles must be finite"}
		}
	}
	if e.P10 > e.P50 {
		return &ValidationError{Field: field, Reason: "p10 must be <= p50"}
	}
	if e.P50 > e.P90 {
		return &ValidationError{Field: field, Reason: "p50 must be <= p90"}
	}
	return nil
}

// ValidateNonNegative checks monotonicity plus a zero lower bound,
// used for rates and currency amounts.
func (e PercentileEstimate) ValidateNonNegative(field string) error {
	if err := e.Validate(field); err != nil {
		return err
	}
	if e.P10 < 0 {
		return &ValidationError{Field: field, Reason: "p10 must be >= 0"}
	}
	return nil
}

// ValidateProbability checks monotonicity plus the [0, 100] percent bounds.
func (e PercentileEstimate) ValidateProbability(field string) error {
	if err := e.Validate(field); err != nil {
		return err
	}
	if e.P10 < 0 || e.P90 > 100 {
		return &ValidationError{Field: field, Reason: "probabilities must be in [0, 100]%"}
	}
	return nil
}

// IsConstant reports whether the triple carries no spread. A constant
// estimate is sampled as that constant rather than fitted to a distribution.
func (e PercentileEstimate) IsConstant() bool {
	return e.P10 == e.P90
}

// IsZero reports whether the estimate's median is zero. Median-zero loss
// forms and SLEF estimates contribute nothing to the simulation.
func (e PercentileEstimate) IsZero() bool {
	return e.P50 == 0
}
