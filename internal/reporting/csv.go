package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders per-scenario results as a CSV string.
func RenderCSV(scenarios []ScenarioSection) string {
	var sb strings.Builder

	// Header
	sb.WriteString("scenario_id,currency,n_simulations,time_horizon_years,")
	sb.WriteString("ale_mean,ale_p10,ale_p50,ale_p90,ale_p95,ale_p99,")
	sb.WriteString("lef_mean,lef_p50,lef_p90,lm_mean,lm_p50,lm_p90\n")

	// Rows
	for _, s := range scenarios {
		r := s.Result
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.2f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			s.ID,
			r.Currency,
			r.NSimulations,
			r.TimeHorizonYears,
			r.ALE.Mean, r.ALE.P10, r.ALE.P50, r.ALE.P90, r.ALE.P95, r.ALE.P99,
			r.LEF.Mean, r.LEF.P50, r.LEF.P90,
			r.LM.Mean, r.LM.P50, r.LM.P90,
		))
	}

	return sb.String()
}
