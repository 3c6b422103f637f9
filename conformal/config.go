// Package conformal wraps point predictors into calibrated interval and set
// predictors. A wrapper owns a predictor, a nonconformity score family and a
// splitter; Fit derives the calibrated state and Predict serves from it.
package conformal

import (
	"fmt"

	"github.com/danibene/puncc/calibrate"
	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/split"
)

// Strategy selects how calibration folds are produced and aggregated.
type Strategy string

const (
	// Split calibrates on a single random held-out subset.
	Split Strategy = "split"
	// KFold pools out-of-fold scores from k folds into one threshold.
	KFold Strategy = "kfold"
	// LOO is the jackknife+ aggregation over singleton folds.
	LOO Strategy = "loo"
	// CVPlus is the cv+ aggregation over k folds.
	CVPlus Strategy = "cv+"
)

// WeightFunc assigns a positive conformality weight to a calibration row,
// correcting for covariate shift between calibration and test data.
type WeightFunc func(x []float64) float64

// Config is the declarative calibration setup, json-friendly for the cmd
// binaries. The library constructors take its fields explicitly.
type Config struct {
	Alpha       float64          `json:"alpha"`
	Strategy    Strategy         `json:"strategy"`
	K           int              `json:"k"`
	FitRatio    float64          `json:"fit_ratio"`
	Seed        int64            `json:"seed"`
	Weighted    bool             `json:"weighted"`
	Policy      calibrate.Policy `json:"policy"`
	Parallelism int              `json:"parallelism"`
}

// splitter assembles the fold producer for the configured strategy.
func (c Config) splitter() (split.Splitter, error) {
	switch c.Strategy {
	case Split, "":
		ratio := c.FitRatio
		if ratio == 0 {
			ratio = 0.8
		}
		return split.NewRandom(ratio, c.Seed), nil
	case KFold, CVPlus:
		if c.K < 2 {
			return nil, fmt.Errorf("strategy '%s' needs at least 2 folds: got %d: %w", c.Strategy, c.K, model.ConfigErr)
		}
		return split.NewKFold(c.K, c.Seed), nil
	case LOO:
		return split.NewLeaveOneOut(), nil
	}
	return nil, fmt.Errorf("unknown strategy '%s': %w", c.Strategy, model.ConfigErr)
}

// plus reports whether the strategy aggregates per-fold states instead of a
// single threshold.
func (c Config) plus() bool {
	return c.Strategy == LOO || c.Strategy == CVPlus
}

func (c Config) label() string {
	if c.Weighted && (c.Strategy == Split || c.Strategy == "") {
		return "weighted"
	}
	if c.Strategy == "" {
		return string(Split)
	}
	return string(c.Strategy)
}

func checkAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 {
		return fmt.Errorf("alpha must be in (0,1): got %v: %w", alpha, model.ConfigErr)
	}
	return nil
}
