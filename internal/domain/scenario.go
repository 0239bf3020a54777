package domain

// Default simulation parameters.
const (
	DefaultNSimulations     = 100000
	DefaultTimeHorizonYears = 1.0
	DefaultCurrency         = "USD"
)

// ScenarioInput aggregates everything needed to simulate one risk scenario.
// It is immutable once constructed: a recompute means building a new input
// and running a fresh simulation, never mutating in place.
//
// The time horizon is a linear multiplier on LEF and ALE. Stationary risk
// over the horizon is an assumed, documented limitation of the model.
type ScenarioInput struct {
	TEF            FrequencyFactor      `json:"tef"`
	Susceptibility SusceptibilityFactor `json:"susceptibility"`
	Losses         LossForms            `json:"loss_forms"`

	// SLEF is the per-primary-event probability (percent) that secondary
	// loss forms also occur.
	SLEF PercentileEstimate `json:"slef"`

	TimeHorizonYears float64 `json:"time_horizon_years"`
	Currency         string  `json:"currency"`
	NSimulations     int     `json:"n_simulations"`
}

// WithDefaults returns a copy with zero-valued run parameters replaced by
// the package defaults.
func (s ScenarioInput) WithDefaults() ScenarioInput {
	if s.TimeHorizonYears == 0 {
		s.TimeHorizonYears = DefaultTimeHorizonYears
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	if s.NSimulations == 0 {
		s.NSimulations = DefaultNSimulations
	}
	return s
}

// Validate checks the full input. Every check runs before any random draw;
// a failing input never produces partial simulation state.
func (s ScenarioInput) Validate() error {
	if err := s.TEF.Validate(); err != nil {
		return err
	}
	if err := s.Susceptibility.Validate(); err != nil {
		return err
	}
	if err := s.Losses.Validate(); err != nil {
		return err
	}
	// SLEF is only required when a secondary form can contribute.
	if s.Losses.HasSecondary() {
		if err := s.SLEF.ValidateProbability("slef"); err != nil {
			return err
		}
	}
	if s.TimeHorizonYears <= 0 {
		return &ValidationError{Field: "time_horizon_years", Reason: "time horizon must be > 0"}
	}
	if s.NSimulations < 1 {
		return &ValidationError{Field: "n_simulations", Reason: "n_simulations must be >= 1"}
	}
	return nil
}
