package reporting

import (
	"time"

	"fair-risk-engine/internal/domain"
)

// Report is a rendered risk assessment: per-scenario loss distributions,
// the portfolio rollup, and optional sensitivity findings.
type Report struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time
	Currency    string
	NSimulation int
	Seed        uint64

	// Scenario sections, sorted by scenario id.
	Scenarios []ScenarioSection

	// Portfolio rollup; nil for single-scenario reports.
	Portfolio *domain.PortfolioResult

	// Sensitivity findings, sorted by (scenario id, factor).
	Sensitivities []SensitivitySection
}

// ScenarioSection is one scenario's simulated outcome.
type ScenarioSection struct {
	ID     string
	Result domain.ScenarioResult
}

// SensitivitySection is one factor sweep for one scenario, with the
// variance-screening share when a decomposition was run.
type SensitivitySection struct {
	ScenarioID string
	Result     domain.SensitivityResult

	// VarianceSharePct is this factor's normalized contribution from the
	// first-order screening; negative means not computed.
	VarianceSharePct float64
}
