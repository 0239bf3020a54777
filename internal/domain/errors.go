package domain

import "fmt"

// ValidationError reports an input that fails validation before any random
// draw happens. Field names the offending input in caller terms
// (e.g. "tef", "loss_forms.fines", "n_simulations").
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DistributionFitError reports a factor whose percentile triple cannot be
// fit to its declared shape (e.g. a zero median under lognormal).
type DistributionFitError struct {
	Factor string
	Reason string
}

func (e *DistributionFitError) Error() string {
	return fmt.Sprintf("cannot fit %s: %s", e.Factor, e.Reason)
}
