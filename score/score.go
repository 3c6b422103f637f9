// Package score provides nonconformity score families together with their
// interval or set inverses. A score and its inverse always travel as a pair;
// mixing a threshold across families is undefined.
package score

import (
	"fmt"
	"math"

	"github.com/danibene/puncc/model"
)

// epsilon guards divisions by a vanishing dispersion.
// It is the smallest normal float64.
const epsilon = 0x1p-1022

// Score measures how poorly a regression prediction matches a label and
// inverts a calibrated threshold back into a prediction interval.
// Point extracts the family's point estimate from a prediction row, so that
// the calibration layer never inspects prediction columns itself.
type Score interface {
	Score(pred []float64, y float64) (float64, error)
	Interval(pred []float64, t float64) (model.Interval, error)
	Point(pred []float64) (float64, error)
}

// MAD is the absolute residual score |y - pred|.
type MAD struct {
}

func NewMAD() MAD {
	return MAD{}
}

func (s MAD) Score(pred []float64, y float64) (float64, error) {
	if err := columns(pred, 1); err != nil {
		return 0, err
	}
	return math.Abs(y - pred[0]), nil
}

func (s MAD) Interval(pred []float64, t float64) (model.Interval, error) {
	if err := columns(pred, 1); err != nil {
		return model.Interval{}, err
	}
	return model.Interval{Lower: pred[0] - t, Upper: pred[0] + t}, nil
}

func (s MAD) Point(pred []float64) (float64, error) {
	if err := columns(pred, 1); err != nil {
		return 0, err
	}
	return pred[0], nil
}

// ScaledMAD normalizes the absolute residual by a predicted dispersion,
// so that calibrated intervals adapt to local noise.
// Predictions carry (point, dispersion) with dispersion >= 0.
type ScaledMAD struct {
}

func NewScaledMAD() ScaledMAD {
	return ScaledMAD{}
}

func (s ScaledMAD) Score(pred []float64, y float64) (float64, error) {
	if err := columns(pred, 2); err != nil {
		return 0, err
	}
	if pred[1] < 0 {
		return 0, fmt.Errorf("negative dispersion %v: %w", pred[1], model.ConfigErr)
	}
	return math.Abs(y-pred[0]) / (pred[1] + epsilon), nil
}

func (s ScaledMAD) Interval(pred []float64, t float64) (model.Interval, error) {
	if err := columns(pred, 2); err != nil {
		return model.Interval{}, err
	}
	if pred[1] < 0 {
		return model.Interval{}, fmt.Errorf("negative dispersion %v: %w", pred[1], model.ConfigErr)
	}
	r := t * (pred[1] + epsilon)
	return model.Interval{Lower: pred[0] - r, Upper: pred[0] + r}, nil
}

func (s ScaledMAD) Point(pred []float64) (float64, error) {
	if err := columns(pred, 2); err != nil {
		return 0, err
	}
	return pred[0], nil
}

// CQR is the conformalized quantile regression score
// max(lower - y, y - upper) over a (lower, upper) quantile prediction pair.
type CQR struct {
}

func NewCQR() CQR {
	return CQR{}
}

func (s CQR) Score(pred []float64, y float64) (float64, error) {
	if err := columns(pred, 2); err != nil {
		return 0, err
	}
	return math.Max(pred[0]-y, y-pred[1]), nil
}

func (s CQR) Interval(pred []float64, t float64) (model.Interval, error) {
	if err := columns(pred, 2); err != nil {
		return model.Interval{}, err
	}
	return model.Interval{Lower: pred[0] - t, Upper: pred[1] + t}, nil
}

// Point is the midpoint of the predicted quantile pair, since a quantile
// model carries no point estimate of its own.
func (s CQR) Point(pred []float64) (float64, error) {
	if err := columns(pred, 2); err != nil {
		return 0, err
	}
	return (pred[0] + pred[1]) / 2, nil
}

func columns(pred []float64, want int) error {
	if len(pred) != want {
		return fmt.Errorf("prediction must carry %d values: got %d: %w", want, len(pred), model.ConfigErr)
	}
	return nil
}
