package conformal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danibene/puncc/calibrate"
	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/internal/storage"
	"github.com/danibene/puncc/metrics"
	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/predictor"
	"github.com/danibene/puncc/score"
	"github.com/danibene/puncc/split"
)

// toggle is a pre-trained test predictor that can be switched to fail,
// to exercise the fold failure paths.
type toggle struct {
	fail bool
}

func (p *toggle) Fit(x [][]float64, y []float64) error {
	return nil
}

func (p *toggle) Predict(x [][]float64) ([][]float64, error) {
	if p.fail {
		return nil, errors.New("boom")
	}
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = []float64{0}
	}
	return out, nil
}

func (p *toggle) Trained() bool {
	return true
}

func rows(values []float64) [][]float64 {
	x := make([][]float64, len(values))
	for i, v := range values {
		x[i] = []float64{v}
	}
	return x
}

func TestRegressor_NotCalibrated(t *testing.T) {
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.8, 1))

	_, _, err := r.Predict([][]float64{{1}})
	assert.True(t, errors.Is(err, model.NotCalibratedErr))
	_, err = r.Threshold()
	assert.True(t, errors.Is(err, model.NotCalibratedErr))
	assert.False(t, r.Calibrated())
}

func TestRegressor_SplitScenario(t *testing.T) {
	// 100 points, fit ratio 0.8 : 20 calibration residuals at alpha=0.2,
	// the threshold is the sample at rank ceil(21*0.8) = 17
	n := 100
	seed := int64(11)
	y := make([]float64, n)
	for i := range y {
		y[i] = 0.31 * float64(i)
	}
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.8, seed))
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.2))

	// recompute the expected order statistic from the same split
	folds, err := split.NewRandom(0.8, seed).Split(n)
	require.NoError(t, err)
	require.Len(t, folds, 1)
	require.Len(t, folds[0].Calib, 20)
	scores := make([]float64, 0, 20)
	for _, j := range folds[0].Calib {
		scores = append(scores, math.Abs(y[j]))
	}
	sort.Float64s(scores)
	expected := scores[16]

	threshold, err := r.Threshold()
	require.NoError(t, err)
	assert.Equal(t, expected, threshold.Value)
	assert.False(t, threshold.Degenerate)

	// the absolute residual score is symmetric : every interval has width 2t
	points, intervals, err := r.Predict([][]float64{{1}, {2}, {3}})
	require.NoError(t, err)
	for i, interval := range intervals {
		assert.Equal(t, 0.0, points[i])
		assert.InDelta(t, 2*threshold.Value, interval.Width(), 1e-12)
		assert.True(t, interval.Lower <= interval.Upper)
	}
}

func TestRegressor_Deterministic(t *testing.T) {
	y := make([]float64, 50)
	for i := range y {
		y[i] = math.Sin(float64(i) * 0.7)
	}

	fit := func() calibrate.Threshold {
		r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.75, 3))
		require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.15))
		threshold, err := r.Threshold()
		require.NoError(t, err)
		return threshold
	}
	assert.Equal(t, fit(), fit())

	// repeated predictions on one calibrated state are identical
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.75, 3))
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.15))
	_, first, err := r.Predict(rows(y[:10]))
	require.NoError(t, err)
	_, second, err := r.Predict(rows(y[:10]))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRegressor_Refit(t *testing.T) {
	y := make([]float64, 40)
	for i := range y {
		y[i] = float64(i)
	}
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 7))
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.2))
	tight, err := r.Threshold()
	require.NoError(t, err)

	// a wider alpha replaces the threshold atomically
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.5))
	loose, err := r.Threshold()
	require.NoError(t, err)
	assert.True(t, loose.Value <= tight.Value)
}

func TestRegressor_Degenerate(t *testing.T) {
	// 5 calibration samples cannot certify alpha=0.1 : rank 10 of 5
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	t.Run("surface", func(t *testing.T) {
		r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 1))
		require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.1))
		threshold, err := r.Threshold()
		require.NoError(t, err)
		assert.True(t, threshold.Degenerate)
		assert.True(t, math.IsInf(threshold.Value, 1))

		// the interval degrades to the full line, lower <= upper still holds
		_, intervals, err := r.Predict([][]float64{{1}})
		require.NoError(t, err)
		assert.Equal(t, model.Everything(), intervals[0])
		assert.True(t, intervals[0].Contains(1e300))
	})

	t.Run("clamp", func(t *testing.T) {
		r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 1)).
			WithPolicy(calibrate.Clamp)
		require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.1))
		threshold, err := r.Threshold()
		require.NoError(t, err)
		assert.True(t, threshold.Degenerate)
		assert.False(t, math.IsInf(threshold.Value, 1))
	})

	t.Run("fail", func(t *testing.T) {
		r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 1)).
			WithPolicy(calibrate.Fail)
		err := r.Fit(context.Background(), rows(y), y, 0.1)
		assert.True(t, errors.Is(err, model.DegenerateErr))
		assert.False(t, r.Calibrated())
	})
}

func TestRegressor_InvalidSetup(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 1))

	for _, alpha := range []float64{0, 1, -0.2, 1.5} {
		err := r.Fit(context.Background(), rows(y), y, alpha)
		assert.True(t, errors.Is(err, model.ConfigErr), "alpha %v", alpha)
	}

	err := r.Fit(context.Background(), rows(y), y[:2], 0.2)
	assert.True(t, errors.Is(err, model.ConfigErr))

	weighted := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 1))
	weighted.weighted = true
	err = weighted.Fit(context.Background(), rows(y), y, 0.2)
	assert.True(t, errors.Is(err, model.ConfigErr))
}

func TestRegressor_WeightedUnitReduces(t *testing.T) {
	y := make([]float64, 60)
	for i := range y {
		y[i] = math.Abs(math.Sin(float64(i) * 1.3))
	}

	plain := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 5))
	require.NoError(t, plain.Fit(context.Background(), rows(y), y, 0.25))
	unweighted, err := plain.Threshold()
	require.NoError(t, err)

	unit := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 5)).
		WithWeights(func(x []float64) float64 { return 1 })
	require.NoError(t, unit.Fit(context.Background(), rows(y), y, 0.25))
	weighted, err := unit.Threshold()
	require.NoError(t, err)

	assert.Equal(t, unweighted, weighted)
}

func TestRegressor_JackknifePlus(t *testing.T) {
	// hand example : constant prediction 0, residuals {1,2,3,4,5};
	// alpha=0.5 gives k = ceil(6*0.5) = 3, so the lower bound is the 3rd
	// largest of {-1..-5} and the upper the 3rd smallest of {1..5}
	y := []float64{1, 2, 3, 4, 5}
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewLeaveOneOut()).WithPlus()
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.5))

	points, intervals, err := r.Predict([][]float64{{7}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, points[0])
	assert.Equal(t, model.Interval{Lower: -3, Upper: 3}, intervals[0])

	// alpha=0.1 needs rank 6 of 5 residuals : degenerate full line
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.1))
	threshold, err := r.Threshold()
	require.NoError(t, err)
	assert.True(t, threshold.Degenerate)
	_, intervals, err = r.Predict([][]float64{{7}})
	require.NoError(t, err)
	assert.Equal(t, model.Everything(), intervals[0])
}

func TestRegressor_CVPlus_CloneIsolation(t *testing.T) {
	// an untrained predictor without Clone cannot serve multiple folds
	bare := &noClone{}
	r := NewRegressor(bare, score.NewMAD(), split.NewKFold(2, 1)).WithPlus()
	err := r.Fit(context.Background(), rows([]float64{1, 2, 3, 4}), []float64{1, 2, 3, 4}, 0.5)
	assert.True(t, errors.Is(err, model.ConfigErr))

	// linear clones train per fold and aggregate without error
	y := make([]float64, 40)
	x := make([][]float64, 40)
	for i := range y {
		x[i] = []float64{float64(i)}
		y[i] = 2*float64(i) + math.Sin(float64(i))
	}
	cv := NewRegressor(predictor.NewLinear(), score.NewMAD(), split.NewKFold(4, 9)).WithPlus()
	require.NoError(t, cv.Fit(context.Background(), x, y, 0.2))
	_, intervals, err := cv.Predict(x[:5])
	require.NoError(t, err)
	for _, interval := range intervals {
		assert.True(t, interval.Lower <= interval.Upper)
	}
}

type noClone struct{}

func (p *noClone) Fit(x [][]float64, y []float64) error { return nil }

func (p *noClone) Predict(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = []float64{0}
	}
	return out, nil
}

func (p *noClone) Trained() bool { return false }

func TestRegressor_FoldFailurePreservesState(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	p := &toggle{}
	r := NewRegressor(p, score.NewMAD(), split.NewRandom(0.5, 2))
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.5))
	before, err := r.Threshold()
	require.NoError(t, err)

	// a failing fold surfaces the predictor error and keeps the old state
	p.fail = true
	err = r.Fit(context.Background(), rows(y), y, 0.5)
	assert.True(t, errors.Is(err, model.PredictorErr))
	after, err := r.Threshold()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, r.Calibrated())
}

func TestRegressor_ParallelFoldsDeterministic(t *testing.T) {
	// fold order must not leak into the threshold, whatever the parallelism
	y := make([]float64, 30)
	x := make([][]float64, 30)
	for i := range y {
		x[i] = []float64{float64(i)}
		y[i] = 3*float64(i) + math.Cos(float64(i)*0.9)
	}

	thresholds := make([]calibrate.Threshold, 0, 4)
	for _, parallelism := range []int{1, 2, 4, 8} {
		r := NewRegressor(predictor.NewLinear(), score.NewMAD(), split.NewKFold(5, 17)).
			WithParallelism(parallelism)
		require.NoError(t, r.Fit(context.Background(), x, y, 0.2))
		threshold, err := r.Threshold()
		require.NoError(t, err)
		thresholds = append(thresholds, threshold)
	}
	for _, threshold := range thresholds[1:] {
		assert.Equal(t, thresholds[0], threshold)
	}
}

func TestRegressor_MarginalCoverage(t *testing.T) {
	// exchangeable gaussian data, 1000 calibration points : the empirical
	// coverage must reach 1-alpha up to finite sample slack
	alpha := 0.1
	y := cmath.Gaussian(1, 0, 1, 2000)
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 4))
	require.NoError(t, r.Fit(context.Background(), rows(y), y, alpha))

	ty := cmath.Gaussian(2, 0, 1, 1000)
	_, intervals, err := r.Predict(rows(ty))
	require.NoError(t, err)
	coverage, err := metrics.Coverage(intervals, ty)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, coverage, 1-alpha-0.03, fmt.Sprintf("coverage %v", coverage))
}

func TestRegressor_Registry(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	registry, err := storage.MockEventRegistry()("runs")
	require.NoError(t, err)
	r := NewRegressor(predictor.Constant(0), score.NewMAD(), split.NewRandom(0.5, 2)).
		WithRegistry(registry)
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.5))
	require.NoError(t, r.Fit(context.Background(), rows(y), y, 0.4))

	records, err := registry.GetAll(storage.K{Model: "split", Label: "regression"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
