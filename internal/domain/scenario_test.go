package domain

import (
	"errors"
	"testing"
)

func est(p10, p50, p90 float64) PercentileEstimate {
	return PercentileEstimate{P10: p10, P50: p50, P90: p90}
}

func validInput() ScenarioInput {
	return ScenarioInput{
		TEF: FrequencyFactor{
			Estimate: est(1.2, 2.5, 4.0),
			Model:    FrequencyModelPoisson,
		},
		Susceptibility: SusceptibilityFactor{Estimate: est(20, 35, 55)},
		Losses: LossForms{
			Productivity: LossForm{Estimate: est(150000, 400000, 900000)},
			Fines:        LossForm{Estimate: est(50000, 100000, 300000)},
		},
		SLEF: est(35, 65, 85),
	}
}

func TestEstimateMonotonicity(t *testing.T) {
	if err := est(1, 2, 3).Validate("x"); err != nil {
		t.Errorf("valid triple rejected: %v", err)
	}
	if err := est(3, 2, 3).Validate("x"); err == nil {
		t.Error("p10 > p50 accepted")
	}
	if err := est(1, 4, 3).Validate("x"); err == nil {
		t.Error("p50 > p90 accepted")
	}
}

func TestProbabilityBounds(t *testing.T) {
	if err := est(0, 50, 100).ValidateProbability("x"); err != nil {
		t.Errorf("boundary probabilities rejected: %v", err)
	}
	if err := est(-1, 50, 100).ValidateProbability("x"); err == nil {
		t.Error("negative probability accepted")
	}
	if err := est(0, 50, 101).ValidateProbability("x"); err == nil {
		t.Error("probability above 100 accepted")
	}
}

func TestWithDefaults(t *testing.T) {
	input := validInput().WithDefaults()
	if input.NSimulations != DefaultNSimulations {
		t.Errorf("n_simulations = %d, want %d", input.NSimulations, DefaultNSimulations)
	}
	if input.TimeHorizonYears != DefaultTimeHorizonYears {
		t.Errorf("horizon = %v, want %v", input.TimeHorizonYears, DefaultTimeHorizonYears)
	}
	if input.Currency != DefaultCurrency {
		t.Errorf("currency = %q, want %q", input.Currency, DefaultCurrency)
	}
}

func TestValidateNamesTheFactor(t *testing.T) {
	input := validInput()
	input.Losses.Fines.Estimate = est(400000, 100000, 300000)

	err := input.WithDefaults().Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Field != "loss_forms.fines" {
		t.Errorf("field = %q, want loss_forms.fines", verr.Field)
	}
}

func TestSLEFRequiredOnlyWithSecondaryForms(t *testing.T) {
	input := validInput()
	input.SLEF = est(80, 20, 90) // non-monotone

	if err := input.WithDefaults().Validate(); err == nil {
		t.Error("broken SLEF accepted while secondary forms exist")
	}

	input.Losses.Fines = LossForm{}
	if err := input.WithDefaults().Validate(); err != nil {
		t.Errorf("SLEF validated with no secondary forms: %v", err)
	}
}

func TestLossFormPZeroBounds(t *testing.T) {
	tooHigh := 0.95
	form := LossForm{Estimate: est(0, 100000, 300000), PZero: &tooHigh}
	if err := form.Validate("loss_forms.response"); err == nil {
		t.Error("p_zero above 0.90 accepted")
	}

	ok := 0.25
	form.PZero = &ok
	if err := form.Validate("loss_forms.response"); err != nil {
		t.Errorf("valid p_zero rejected: %v", err)
	}
}

func TestFrequencyFactorModel(t *testing.T) {
	f := FrequencyFactor{Estimate: est(1, 2, 4), Model: "weibull"}
	if err := f.Validate(); err == nil {
		t.Error("unknown frequency model accepted")
	}

	f.Model = FrequencyModelLognormal
	if err := f.Validate(); err != nil {
		t.Errorf("lognormal model rejected: %v", err)
	}

	f.Decompose = true
	if err := f.Validate(); err == nil {
		t.Error("decompose accepted without nested estimates")
	}
}

func TestHasSecondary(t *testing.T) {
	var forms LossForms
	if forms.HasSecondary() {
		t.Error("empty forms report secondary")
	}
	forms.Reputation = LossForm{Estimate: est(0, 50000, 200000)}
	if !forms.HasSecondary() {
		t.Error("reputation form not detected as secondary")
	}
}
