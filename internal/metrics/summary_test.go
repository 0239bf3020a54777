package metrics

import (
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("mean of empty = %v, want 0", got)
	}
	if got := Mean([]float64{2, 4, 9}); got != 5 {
		t.Errorf("mean = %v, want 5", got)
	}
}

func TestPercentileSortedNearestRank(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := []struct {
		q    float64
		want float64
	}{
		{0.10, 2},  // index floor(10*0.10) = 1
		{0.50, 6},  // index 5, no interpolation
		{0.90, 10}, // index 9
		{0.99, 10}, // index 9 after clamping
	}
	for _, tc := range cases {
		if got := PercentileSorted(sorted, tc.q); got != tc.want {
			t.Errorf("P%.0f = %v, want %v", tc.q*100, got, tc.want)
		}
	}
}

func TestPercentileSortedDegenerate(t *testing.T) {
	if got := PercentileSorted(nil, 0.5); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
	constant := []float64{7, 7, 7}
	for _, q := range []float64{0.1, 0.5, 0.99} {
		if got := PercentileSorted(constant, q); got != 7 {
			t.Errorf("constant-array P%.0f = %v, want 7", q*100, got)
		}
	}
	if got := PercentileSorted([]float64{42}, 0.99); got != 42 {
		t.Errorf("single-element percentile = %v, want 42", got)
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{5, 3, 1, 4, 2}
	stats := Summarize(values)

	if stats.Mean != 3 {
		t.Errorf("mean = %v, want 3", stats.Mean)
	}
	if stats.P50 != 3 {
		t.Errorf("p50 = %v, want 3", stats.P50)
	}
	if stats.P10 > stats.P50 || stats.P50 > stats.P90 ||
		stats.P90 > stats.P95 || stats.P95 > stats.P99 {
		t.Errorf("percentiles not ordered: %+v", stats)
	}

	// The input must survive unsorted.
	if values[0] != 5 || values[4] != 2 {
		t.Error("input slice was reordered")
	}
}
