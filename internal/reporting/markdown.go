package reporting

import (
	"fmt"
	"strings"
	"time"

	"fair-risk-engine/internal/domain"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Risk Assessment Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Scenarios: %d | Iterations: %d | Seed: %d | Currency: %s\n\n",
		len(r.Scenarios), r.NSimulation, r.Seed, r.Currency))

	// Portfolio Summary
	if r.Portfolio != nil {
		p := r.Portfolio
		sb.WriteString("## Portfolio Summary\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total ALE (mean) | %.2f |\n", p.TotalALE))
		sb.WriteString(fmt.Sprintf("| Expected Loss Events / Year | %.4f |\n", p.ExpectedEventsPerYear))
		if p.WeightedAverageLM != nil {
			sb.WriteString(fmt.Sprintf("| Weighted Average LM | %.2f |\n", *p.WeightedAverageLM))
		} else {
			sb.WriteString("| Weighted Average LM | N/A |\n")
		}
		sb.WriteString(fmt.Sprintf("| Top Scenario | %s (%.1f%%) |\n", p.TopScenarioID, 100*p.TopScenarioShare))
		sb.WriteString(fmt.Sprintf("| High Concentration | %v |\n", p.HighConcentration))
		sb.WriteString(fmt.Sprintf("| Aggregation Mode | %s |\n", p.Mode))
		if p.Mode == "correlated" {
			sb.WriteString(fmt.Sprintf("| Correlation | %.2f |\n", p.Correlation))
		}
		sb.WriteString(fmt.Sprintf("| Portfolio ALE P50 | %.2f |\n", p.TotalALEStats.P50))
		sb.WriteString(fmt.Sprintf("| Portfolio ALE P90 | %.2f |\n", p.TotalALEStats.P90))
		sb.WriteString(fmt.Sprintf("| Portfolio ALE P99 | %.2f |\n", p.TotalALEStats.P99))
		sb.WriteString(fmt.Sprintf("| Diversification Benefit (P90) | %.2f (%.1f%%) |\n",
			p.DiversificationBenefit, p.DiversificationBenefitPct))
		sb.WriteString("\n")

		if len(p.Warnings) > 0 {
			sb.WriteString("### Warnings\n\n")
			for _, w := range p.Warnings {
				sb.WriteString(fmt.Sprintf("- %s\n", w))
			}
			sb.WriteString("\n")
		}
	}

	// Scenario Results
	sb.WriteString("## Scenario Results\n\n")
	if len(r.Scenarios) > 0 {
		sb.WriteString("| Scenario | ALE Mean | ALE P50 | ALE P90 | ALE P99 | LEF Mean | LM Mean |\n")
		sb.WriteString("|----------|----------|---------|---------|---------|----------|--------|\n")
		for _, s := range r.Scenarios {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.4f | %.2f |\n",
				s.ID,
				s.Result.ALE.Mean, s.Result.ALE.P50, s.Result.ALE.P90, s.Result.ALE.P99,
				s.Result.LEF.Mean, s.Result.LM.Mean))
		}
	} else {
		sb.WriteString("No scenario results available.\n")
	}
	sb.WriteString("\n")

	// Loss Form Drivers
	sb.WriteString("## Loss Form Drivers\n\n")
	sb.WriteString("| Scenario | Productivity | Response | Replacement | Fines | Competitive Adv. | Reputation |\n")
	sb.WriteString("|----------|--------------|----------|-------------|-------|------------------|------------|\n")
	for _, s := range r.Scenarios {
		m := s.Result.LossFormMeans
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			s.ID,
			m[domain.LossFormProductivity], m[domain.LossFormResponse], m[domain.LossFormReplacement],
			m[domain.LossFormFines], m[domain.LossFormCompetitiveAdvantage], m[domain.LossFormReputation]))
	}
	sb.WriteString("\n")

	// Sensitivity
	sb.WriteString("## Sensitivity\n\n")
	if len(r.Sensitivities) > 0 {
		sb.WriteString("| Scenario | Factor | Baseline ALE | Elasticity | dALE/dFactor | Variance Share% |\n")
		sb.WriteString("|----------|--------|--------------|------------|--------------|----------------|\n")
		for _, s := range r.Sensitivities {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.4f | %.4f | %.1f |\n",
				s.ScenarioID, s.Result.Factor, s.Result.BaselineALE,
				s.Result.Elasticity, s.Result.PartialDerivative, s.VarianceSharePct))
		}
	} else {
		sb.WriteString("No sensitivity data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
