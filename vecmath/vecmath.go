// Package vecmath holds small numeric helpers shared by the solver and the
// experiment bookkeeping.
package vecmath

import "github.com/montanaflynn/stats"

// DiffMax0Sum returns the sum of max(0, a[i]-b[i]) over the common prefix of
// the two slices.
func DiffMax0Sum(a, b []int) int {
	result := 0
	for i, n := 0, min(len(a), len(b)); i < n; i++ {
		if d := a[i] - b[i]; d > 0 {
			result += d
		}
	}
	return result
}

// Mean returns the arithmetic mean of vec, or 0 for an empty slice.
func Mean(vec []float64) float64 {
	if len(vec) == 0 {
		return 0
	}
	m, err := stats.Mean(stats.Float64Data(vec))
	if err != nil {
		return 0
	}
	return m
}

// StdDev returns the sample standard deviation of vec, or 0 when fewer than
// two values are present.
func StdDev(vec []float64) float64 {
	if len(vec) <= 1 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(stats.Float64Data(vec))
	if err != nil {
		return 0
	}
	return sd
}
