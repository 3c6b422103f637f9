package calibrate

import (
	"fmt"

	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/model"
)

// PlusBounds computes the CV+/jackknife+ interval for a single test point.
// preds holds the per-fold predictions on that point, residuals the matching
// out-of-fold score samples. With n residuals in total and
// k = ceil((n+1)(1-alpha)), the lower bound is the k-th largest of
// {pred - r} and the upper bound the k-th smallest of {pred + r} : the two
// sides rank from opposite ends, which is what the jackknife+ coverage
// argument requires. A rank beyond n yields the degenerate full-line
// interval, flagged true.
func PlusBounds(preds []float64, residuals [][]float64, alpha float64) (model.Interval, bool, error) {
	if len(preds) != len(residuals) {
		return model.Interval{}, false, fmt.Errorf("predictions do not match folds [%d|%d]: %w", len(preds), len(residuals), model.ConfigErr)
	}
	n := 0
	for _, rr := range residuals {
		n += len(rr)
	}
	if err := check(n, alpha); err != nil {
		return model.Interval{}, false, err
	}

	lows := make([]float64, 0, n)
	highs := make([]float64, 0, n)
	for k, rr := range residuals {
		for _, r := range rr {
			lows = append(lows, preds[k]-r)
			highs = append(highs, preds[k]+r)
		}
	}

	rank := cmath.Rank(n, alpha)
	if rank > n {
		return model.Everything(), true, nil
	}
	lower := cmath.KthLargest(lows, rank)
	upper := cmath.KthSmallest(highs, rank)
	if lower > upper {
		// the plus bounds can cross for alpha above 0.5; widen to the
		// minimal enclosing interval to keep lower <= upper
		lower, upper = upper, lower
	}
	return model.Interval{Lower: lower, Upper: upper}, false, nil
}
