package domain

// Stats is the summary of one per-iteration array. Percentiles are
// nearest-rank (index floor(N*q) of the ascending sort, no interpolation).
type Stats struct {
	Mean float64 `json:"mean"`
	P10  float64 `json:"p10"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

// ScenarioResult is the derived summary of one simulation run. It is never
// mutated after creation; when scenario inputs change the result is
// discarded and a fresh simulation produces a new one.
type ScenarioResult struct {
	ALE Stats `json:"ale"`
	LEF Stats `json:"lef"`
	LM  Stats `json:"lm"`

	// LossFormMeans holds each form's expected per-event contribution,
	// keyed by loss form name.
	LossFormMeans map[string]float64 `json:"loss_form_means"`

	NSimulations     int     `json:"n_simulations"`
	TimeHorizonYears float64 `json:"time_horizon_years"`
	Currency         string  `json:"currency"`
}

// SensitivityPoint is one step of a sensitivity sweep.
type SensitivityPoint struct {
	FactorValue float64 `json:"factor_value"`
	ALE         float64 `json:"ale"`

	// P10/P90 uncertainty band, present only for Monte Carlo sweeps.
	ALEP10 *float64 `json:"ale_p10,omitempty"`
	ALEP90 *float64 `json:"ale_p90,omitempty"`
}

// SensitivityResult is the outcome of a one-at-a-time factor analysis.
type SensitivityResult struct {
	Factor      string             `json:"factor"`
	BaselineALE float64            `json:"baseline_ale"`
	Curve       []SensitivityPoint `json:"curve_points"`

	// Elasticity is (dALE/ALE)/(dx/x) from a small forward perturbation
	// at baseline; PartialDerivative is the closed-form dALE/dx there.
	Elasticity        float64 `json:"elasticity"`
	PartialDerivative float64 `json:"partial_derivative"`

	// Symmetric +/- variation elasticities, reported alongside the
	// forward estimate.
	ElasticityDown    float64 `json:"elasticity_down"`
	ElasticityUp      float64 `json:"elasticity_up"`
	AverageElasticity float64 `json:"average_elasticity"`
}

// HighConcentrationThreshold is the top-scenario share above which a
// portfolio is flagged as concentrated.
const HighConcentrationThreshold = 0.70

// PortfolioResult is the aggregate view over a set of scenarios.
//
// Means add exactly by linearity of expectation regardless of correlation;
// tail percentiles depend on the aggregation mode used to combine the raw
// per-iteration arrays.
type PortfolioResult struct {
	TotalALE              float64 `json:"total_ale"`
	ExpectedEventsPerYear float64 `json:"expected_events_per_year"`

	// WeightedAverageLM is sum(LEF_i*LM_i)/sum(LEF_i). Nil means N/A
	// (sum of LEFs is zero); the condition is also recorded in Warnings.
	WeightedAverageLM *float64 `json:"weighted_average_lm"`

	// TopScenarioShare is max(mean ALE)/total as a fraction in [0, 1].
	TopScenarioShare  float64 `json:"top_scenario_share"`
	TopScenarioID     string  `json:"top_scenario_id"`
	HighConcentration bool    `json:"high_concentration"`

	ScenarioALEs map[string]float64 `json:"scenario_ales"`
	ScenarioLEFs map[string]float64 `json:"scenario_lefs"`
	ScenarioLMs  map[string]float64 `json:"scenario_lms"`

	// TotalALEStats summarizes the combined per-iteration ALE array under
	// the recorded aggregation mode.
	TotalALEStats Stats   `json:"total_ale_stats"`
	Mode          string  `json:"aggregation_mode"`
	Correlation   float64 `json:"correlation"`

	// DiversificationBenefit is the sum of individual scenario P90s minus
	// the aggregate P90, absolute and as a percent of the individual sum.
	DiversificationBenefit    float64 `json:"diversification_benefit"`
	DiversificationBenefitPct float64 `json:"diversification_benefit_pct"`

	// Warnings carries non-fatal degenerate-result notes (for example an
	// undefined weighted average LM). Never an exception path.
	Warnings []string `json:"warnings,omitempty"`
}
