package api

import (
	"fair-risk-engine/internal/domain"
)

// DefaultSeed is the seed applied when a request carries none, so identical
// inputs return identical numbers across calls.
const DefaultSeed = 42

// CalculateRequest is the body of POST /calculate.
type CalculateRequest struct {
	Scenario domain.ScenarioInput `json:"scenario"`

	// Seed overrides the engine default; NSimulations overrides the
	// scenario's iteration count.
	Seed         *uint64 `json:"seed,omitempty"`
	NSimulations int     `json:"n_simulations,omitempty"`
}

// CalculateResponse is the body of a successful /calculate.
type CalculateResponse struct {
	RunID  string                `json:"run_id"`
	Seed   uint64                `json:"seed"`
	Result domain.ScenarioResult `json:"result"`
}

// SensitivityRequest is the body of POST /sensitivity.
type SensitivityRequest struct {
	Scenario domain.ScenarioInput `json:"scenario"`
	Factor   string               `json:"factor"`

	Seed        *uint64 `json:"seed,omitempty"`
	Steps       int     `json:"steps,omitempty"`
	RangeMinPct float64 `json:"range_min_pct,omitempty"`
	RangeMaxPct float64 `json:"range_max_pct,omitempty"`
	MonteCarlo  bool    `json:"monte_carlo,omitempty"`
	Iterations  int     `json:"iterations,omitempty"`

	// IncludeVariance adds the first-order variance screening across all
	// perturbable factors.
	IncludeVariance bool `json:"include_variance_decomposition,omitempty"`
}

// SensitivityResponse is the body of a successful /sensitivity.
type SensitivityResponse struct {
	RunID  string                   `json:"run_id"`
	Seed   uint64                   `json:"seed"`
	Result domain.SensitivityResult `json:"result"`

	// VarianceContributions are normalized percentage shares; present only
	// when requested.
	VarianceContributions map[string]float64 `json:"variance_contributions,omitempty"`
}

// AggregateRequest is the body of POST /aggregate. The aggregation mode is
// required; tails are never combined under an implicit dependence
// assumption.
type AggregateRequest struct {
	Scenarios   map[string]domain.ScenarioInput `json:"scenarios"`
	Mode        string                          `json:"aggregation_mode"`
	Correlation float64                         `json:"correlation,omitempty"`

	Seed         *uint64 `json:"seed,omitempty"`
	NSimulations int     `json:"n_simulations,omitempty"`
}

// AggregateResponse is the body of a successful /aggregate.
type AggregateResponse struct {
	RunID  string                 `json:"run_id"`
	Seed   uint64                 `json:"seed"`
	Result domain.PortfolioResult `json:"result"`
}

// PortfolioMetricsRequest is the body of POST /portfolio/metrics, the
// means-and-concentration view that needs no dependence mode.
type PortfolioMetricsRequest struct {
	Scenarios    map[string]domain.ScenarioInput `json:"scenarios"`
	Seed         *uint64                         `json:"seed,omitempty"`
	NSimulations int                             `json:"n_simulations,omitempty"`
}

// PortfolioMetricsResponse carries the mode-independent portfolio metrics:
// exact additive means, the LEF-weighted loss magnitude, and concentration.
type PortfolioMetricsResponse struct {
	RunID                 string             `json:"run_id"`
	Seed                  uint64             `json:"seed"`
	TotalALE              float64            `json:"total_ale"`
	ExpectedEventsPerYear float64            `json:"expected_events_per_year"`
	WeightedAverageLM     *float64           `json:"weighted_average_lm"`
	TopScenarioShare      float64            `json:"top_scenario_share"`
	TopScenarioID         string             `json:"top_scenario_id"`
	HighConcentration     bool               `json:"high_concentration"`
	ScenarioALEs          map[string]float64 `json:"scenario_ales"`
	ScenarioLEFs          map[string]float64 `json:"scenario_lefs"`
	ScenarioLMs           map[string]float64 `json:"scenario_lms"`
	Warnings              []string           `json:"warnings,omitempty"`
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Scenario domain.ScenarioInput `json:"scenario"`
}

// ValidateResponse reports the validation outcome without running a
// simulation.
type ValidateResponse struct {
	Valid bool       `json:"valid"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the structured failure attached to every non-2xx response.
type ErrorBody struct {
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
