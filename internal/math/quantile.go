package math

import (
	"math"
	"sort"
)

// Rank returns the 1-indexed conformal quantile rank ceil((n+1)*(1-alpha))
// for n samples. A rank larger than n means no finite threshold exists
// at this alpha and sample size.
func Rank(n int, alpha float64) int {
	return int(math.Ceil(float64(n+1) * (1.0 - alpha)))
}

// KthSmallest returns the k-th smallest value (1-indexed) of the given sample.
func KthSmallest(values []float64, k int) float64 {
	vv := sorted(values)
	return vv[k-1]
}

// KthLargest returns the k-th largest value (1-indexed) of the given sample.
func KthLargest(values []float64, k int) float64 {
	vv := sorted(values)
	return vv[len(vv)-k]
}

func sorted(values []float64) []float64 {
	vv := make([]float64, len(values))
	copy(vv, values)
	sort.Float64s(vv)
	return vv
}
