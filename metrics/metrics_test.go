package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/danibene/puncc/model"
	"github.com/stretchr/testify/assert"
)

func TestCoverage(t *testing.T) {

	type test struct {
		intervals []model.Interval
		y         []float64
		coverage  float64
		err       bool
	}

	tests := map[string]test{
		"all-in": {
			intervals: []model.Interval{{Lower: 0, Upper: 2}, {Lower: -1, Upper: 1}},
			y:         []float64{1, 0},
			coverage:  1,
		},
		"half": {
			intervals: []model.Interval{{Lower: 0, Upper: 2}, {Lower: 0, Upper: 2}},
			y:         []float64{1, 3},
			coverage:  0.5,
		},
		"boundary-counts": {
			intervals: []model.Interval{{Lower: 0, Upper: 2}},
			y:         []float64{2},
			coverage:  1,
		},
		"unbounded-covers": {
			intervals: []model.Interval{model.Everything()},
			y:         []float64{1e18},
			coverage:  1,
		},
		"empty": {
			intervals: []model.Interval{},
			y:         []float64{},
			err:       true,
		},
		"mismatch": {
			intervals: []model.Interval{{Lower: 0, Upper: 1}},
			y:         []float64{1, 2},
			err:       true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			coverage, err := Coverage(tt.intervals, tt.y)
			if tt.err {
				assert.True(t, errors.Is(err, model.ConfigErr))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.coverage, coverage)
		})
	}
}

func TestAverageWidth(t *testing.T) {
	width, err := AverageWidth([]model.Interval{{Lower: 0, Upper: 1}, {Lower: -2, Upper: 1}})
	assert.NoError(t, err)
	assert.Equal(t, 2.0, width)

	// one unbounded interval drags the average to infinity
	width, err = AverageWidth([]model.Interval{{Lower: 0, Upper: 1}, model.Everything()})
	assert.NoError(t, err)
	assert.True(t, math.IsInf(width, 1))

	_, err = AverageWidth(nil)
	assert.True(t, errors.Is(err, model.ConfigErr))
}

func TestSetCoverage(t *testing.T) {
	sets := [][]int{{0, 1}, {2}, {}}
	labels := []int{1, 2, 0}

	coverage, err := SetCoverage(sets, labels)
	assert.NoError(t, err)
	// the empty set cannot contain its label
	assert.InDelta(t, 2.0/3.0, coverage, 1e-12)

	_, err = SetCoverage(sets, []int{1})
	assert.True(t, errors.Is(err, model.ConfigErr))
	_, err = SetCoverage(nil, nil)
	assert.True(t, errors.Is(err, model.ConfigErr))
}

func TestAverageSetSize(t *testing.T) {
	size, err := AverageSetSize([][]int{{0, 1}, {2}, {}})
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, size, 1e-12)

	_, err = AverageSetSize(nil)
	assert.True(t, errors.Is(err, model.ConfigErr))
}

func TestNewReport(t *testing.T) {
	intervals := []model.Interval{{Lower: 0, Upper: 2}, {Lower: 0, Upper: 2}, {Lower: 0, Upper: 2}, {Lower: 0, Upper: 2}}
	y := []float64{1, 1, 1, 3}

	report, err := NewReport("split", 0.2, intervals, y)
	assert.NoError(t, err)
	assert.Equal(t, "split", report.Strategy)
	assert.Equal(t, 0.75, report.Coverage)
	assert.Equal(t, 2.0, report.Width)
	assert.Equal(t, 4, report.Samples)
	assert.InDelta(t, -0.05, report.Gap(), 1e-12)
}

func TestNewSetReport(t *testing.T) {
	sets := [][]int{{0}, {0, 1}}
	labels := []int{0, 1}

	report, err := NewSetReport("split", 0.1, sets, labels)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, report.Coverage)
	assert.Equal(t, 1.5, report.SetSize)
	assert.Equal(t, 2, report.Samples)
}
