package domain

// FrequencyModel selects the sampling distribution for TEF rates.
type FrequencyModel string

// Frequency model constants
const (
	FrequencyModelPoisson   FrequencyModel = "poisson"
	FrequencyModelLognormal FrequencyModel = "lognormal"
)

// FrequencyFactor is the Threat Event Frequency estimate in events/year.
//
// When Decompose is set, TEF is the product of contact frequency
// (events/year) and probability of action (percent), each drawn
// independently. When ZeroInflation is set, a structural probability mass
// PZero sits at rate exactly zero.
type FrequencyFactor struct {
	Estimate PercentileEstimate `json:"estimate"`
	Model    FrequencyModel     `json:"model"`

	Decompose           bool                `json:"decompose,omitempty"`
	ContactFrequency    *PercentileEstimate `json:"contact_frequency,omitempty"`
	ProbabilityOfAction *PercentileEstimate `json:"probability_of_action,omitempty"`

	ZeroInflation bool    `json:"zero_inflation,omitempty"`
	PZero         float64 `json:"p_zero,omitempty"`
}

// Validate checks the TEF estimate and its optional decomposition.
func (f FrequencyFactor) Validate() error {
	if f.Model != FrequencyModelPoisson && f.Model != FrequencyModelLognormal {
		return &ValidationError{Field: "tef.model", Reason: "model must be poisson or lognormal"}
	}
	if err := f.Estimate.ValidateNonNegative("tef"); err != nil {
		return err
	}
	if f.Decompose {
		if f.ContactFrequency == nil || f.ProbabilityOfAction == nil {
			return &ValidationError{Field: "tef", Reason: "decompose requires contact_frequency and probability_of_action"}
		}
		if err := f.ContactFrequency.ValidateNonNegative("tef.contact_frequency"); err != nil {
			return err
		}
		if err := f.ProbabilityOfAction.ValidateProbability("tef.probability_of_action"); err != nil {
			return err
		}
	}
	if f.ZeroInflation && (f.PZero < 0 || f.PZero >= 1) {
		return &ValidationError{Field: "tef.p_zero", Reason: "p_zero must be in [0, 1)"}
	}
	return nil
}

// SusceptibilityFactor is the probability (in percent) that a threat event
// becomes a loss event. Modeled as Beta-PERT on [0, 100].
type SusceptibilityFactor struct {
	Estimate PercentileEstimate `json:"estimate"`
}

// Validate checks the percent bounds.
func (f SusceptibilityFactor) Validate() error {
	return f.Estimate.ValidateProbability("susceptibility")
}

// maxLossFormPZero caps the per-form zero-rate so a form cannot be
// configured as "almost always zero".
const maxLossFormPZero = 0.90

// defaultLossFormPZero is the zero-rate applied when a loss form has
// P10 = 0 with a positive median and the caller gave no override.
const DefaultLossFormPZero = 0.10

// LossForm is a single FAIR loss-form estimate in currency units.
//
// PZero is the optional probability that this form is $0 when an event
// occurs; it only applies when P10 = 0 and P50 > 0 (the zero-inflated
// lognormal case).
type LossForm struct {
	Estimate PercentileEstimate `json:"estimate"`
	PZero    *float64           `json:"p_zero,omitempty"`
}

// Validate checks the currency estimate and the optional zero-rate.
func (f LossForm) Validate(name string) error {
	if err := f.Estimate.ValidateNonNegative(name); err != nil {
		return err
	}
	if f.PZero != nil && (*f.PZero < 0 || *f.PZero > maxLossFormPZero) {
		return &ValidationError{Field: name + ".p_zero", Reason: "p_zero must be in [0, 0.90]"}
	}
	return nil
}

// Loss form names, FAIR's six-form taxonomy.
const (
	LossFormProductivity         = "productivity"
	LossFormResponse             = "response"
	LossFormReplacement          = "replacement"
	LossFormFines                = "fines"
	LossFormCompetitiveAdvantage = "competitive_advantage"
	LossFormReputation           = "reputation"
)

// PrimaryLossForms are evaluated for every loss event.
var PrimaryLossForms = []string{
	LossFormProductivity,
	LossFormResponse,
	LossFormReplacement,
}

// SecondaryLossForms only materialize when the SLEF gate fires.
var SecondaryLossForms = []string{
	LossFormFines,
	LossFormCompetitiveAdvantage,
	LossFormReputation,
}

// AllLossForms lists the six forms in reporting order.
var AllLossForms = []string{
	LossFormProductivity,
	LossFormResponse,
	LossFormReplacement,
	LossFormFines,
	LossFormCompetitiveAdvantage,
	LossFormReputation,
}

// LossForms holds the six per-scenario loss-form estimates. Forms are
// additive; not double-counting the same dollar across forms is the
// caller's modeling discipline, not enforced here.
type LossForms struct {
	Productivity         LossForm `json:"productivity"`
	Response             LossForm `json:"response"`
	Replacement          LossForm `json:"replacement"`
	Fines                LossForm `json:"fines"`
	CompetitiveAdvantage LossForm `json:"competitive_advantage"`
	Reputation           LossForm `json:"reputation"`
}

// ByName returns the named loss form. The second return is false for an
// unknown name.
func (l LossForms) ByName(name string) (LossForm, bool) {
	switch name {
	case LossFormProductivity:
		return l.Productivity, true
	case LossFormResponse:
		return l.Response, true
	case LossFormReplacement:
		return l.Replacement, true
	case LossFormFines:
		return l.Fines, true
	case LossFormCompetitiveAdvantage:
		return l.CompetitiveAdvantage, true
	case LossFormReputation:
		return l.Reputation, true
	}
	return LossForm{}, false
}

// HasSecondary reports whether any secondary form has a positive median,
// which is what makes the SLEF estimate mandatory.
func (l LossForms) HasSecondary() bool {
	return l.Fines.Estimate.P50 > 0 ||
		l.CompetitiveAdvantage.Estimate.P50 > 0 ||
		l.Reputation.Estimate.P50 > 0
}

// Validate checks every form.
func (l LossForms) Validate() error {
	for _, name := range AllLossForms {
		form, _ := l.ByName(name)
		if err := form.Validate("loss_forms." + name); err != nil {
			return err
		}
	}
	return nil
}
