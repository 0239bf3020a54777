// Package metrics reduces per-iteration simulation arrays to summary
// statistics.
package metrics

import (
	"sort"

	"fair-risk-engine/internal/domain"
)

// Mean computes the arithmetic mean. Empty input returns 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PercentileSorted returns the nearest-rank percentile of a pre-sorted
// ascending array: index floor(N*q), clamped to the last element. No
// interpolation, so results are exactly reproducible across runs and
// the percentile of a constant array is that constant.
func PercentileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Summarize reduces a per-iteration array to its mean and the nearest-rank
// P10/P50/P90/P95/P99. The input slice is not modified.
func Summarize(values []float64) domain.Stats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return domain.Stats{
		Mean: Mean(values),
		P10:  PercentileSorted(sorted, 0.10),
		P50:  PercentileSorted(sorted, 0.50),
		P90:  PercentileSorted(sorted, 0.90),
		P95:  PercentileSorted(sorted, 0.95),
		P99:  PercentileSorted(sorted, 0.99),
	}
}
