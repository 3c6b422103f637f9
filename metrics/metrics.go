// Package metrics summarizes calibrated predictions : empirical coverage and
// the size of the produced intervals or sets. It consumes outputs of the
// conformal wrappers together with the held-out truth.
package metrics

import (
	"fmt"

	"github.com/danibene/puncc/model"
)

// Coverage returns the fraction of labels falling inside their interval.
func Coverage(intervals []model.Interval, y []float64) (float64, error) {
	if len(intervals) == 0 {
		return 0, fmt.Errorf("no intervals: %w", model.ConfigErr)
	}
	if len(intervals) != len(y) {
		return 0, fmt.Errorf("intervals do not match labels [%d|%d]: %w", len(intervals), len(y), model.ConfigErr)
	}
	hits := 0
	for i, interval := range intervals {
		if interval.Contains(y[i]) {
			hits++
		}
	}
	return float64(hits) / float64(len(y)), nil
}

// AverageWidth returns the mean interval width.
// Unbounded intervals propagate to +Inf.
func AverageWidth(intervals []model.Interval) (float64, error) {
	if len(intervals) == 0 {
		return 0, fmt.Errorf("no intervals: %w", model.ConfigErr)
	}
	sum := 0.0
	for _, interval := range intervals {
		sum += interval.Width()
	}
	return sum / float64(len(intervals)), nil
}

// SetCoverage returns the fraction of labels contained in their prediction set.
func SetCoverage(sets [][]int, labels []int) (float64, error) {
	if len(sets) == 0 {
		return 0, fmt.Errorf("no prediction sets: %w", model.ConfigErr)
	}
	if len(sets) != len(labels) {
		return 0, fmt.Errorf("sets do not match labels [%d|%d]: %w", len(sets), len(labels), model.ConfigErr)
	}
	hits := 0
	for i, set := range sets {
		for _, class := range set {
			if class == labels[i] {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(labels)), nil
}

// AverageSetSize returns the mean number of classes per prediction set.
func AverageSetSize(sets [][]int) (float64, error) {
	if len(sets) == 0 {
		return 0, fmt.Errorf("no prediction sets: %w", model.ConfigErr)
	}
	sum := 0
	for _, set := range sets {
		sum += len(set)
	}
	return float64(sum) / float64(len(sets)), nil
}

// Report bundles the empirical summaries of one regression calibration run.
type Report struct {
	Strategy string  `json:"strategy"`
	Alpha    float64 `json:"alpha"`
	Coverage float64 `json:"coverage"`
	Width    float64 `json:"width"`
	Samples  int     `json:"samples"`
}

// NewReport evaluates intervals against the held-out labels.
func NewReport(strategy string, alpha float64, intervals []model.Interval, y []float64) (Report, error) {
	coverage, err := Coverage(intervals, y)
	if err != nil {
		return Report{}, err
	}
	width, err := AverageWidth(intervals)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Strategy: strategy,
		Alpha:    alpha,
		Coverage: coverage,
		Width:    width,
		Samples:  len(y),
	}, nil
}

// Gap is the distance of the empirical coverage from the 1-alpha target.
// Positive values mean over-coverage.
func (r Report) Gap() float64 {
	return r.Coverage - (1 - r.Alpha)
}

// SetReport bundles the empirical summaries of one classification run.
type SetReport struct {
	Strategy string  `json:"strategy"`
	Alpha    float64 `json:"alpha"`
	Coverage float64 `json:"coverage"`
	SetSize  float64 `json:"set_size"`
	Samples  int     `json:"samples"`
}

// NewSetReport evaluates prediction sets against the held-out labels.
func NewSetReport(strategy string, alpha float64, sets [][]int, labels []int) (SetReport, error) {
	coverage, err := SetCoverage(sets, labels)
	if err != nil {
		return SetReport{}, err
	}
	size, err := AverageSetSize(sets)
	if err != nil {
		return SetReport{}, err
	}
	return SetReport{
		Strategy: strategy,
		Alpha:    alpha,
		Coverage: coverage,
		SetSize:  size,
		Samples:  len(labels),
	}, nil
}
