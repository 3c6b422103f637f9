// Package regression provides ready-made conformal regressors for the common
// calibration recipes. Each constructor pairs a nonconformity score family
// with the matching splitter; the returned wrapper can be tuned further with
// its With options before Fit.
package regression

import (
	"github.com/danibene/puncc/conformal"
	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/score"
	"github.com/danibene/puncc/split"
)

// SplitCP is the plain split-conformal regressor : absolute residuals
// calibrated on a single random held-out subset.
// The predictor must emit one point value per row.
func SplitCP(p model.Predictor, fitRatio float64, seed int64) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewMAD(), split.NewRandom(fitRatio, seed))
}

// LocallyAdaptive calibrates residuals scaled by a predicted dispersion,
// widening intervals where the model expects more noise.
// The predictor must emit (point, dispersion) rows, see predictor.MeanVar.
func LocallyAdaptive(p model.Predictor, fitRatio float64, seed int64) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewScaledMAD(), split.NewRandom(fitRatio, seed))
}

// CQR is conformalized quantile regression : a (lower, upper) quantile
// predictor whose band is shifted by the calibrated score.
// The predictor must emit (lower, upper) rows, see predictor.Dual.
func CQR(p model.Predictor, fitRatio float64, seed int64) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewCQR(), split.NewRandom(fitRatio, seed))
}

// CVPlus aggregates k cross-validation folds with the cv+ rule.
// An untrained predictor must implement model.Cloner so every fold trains in
// isolation.
func CVPlus(p model.Predictor, k int, seed int64) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewMAD(), split.NewKFold(k, seed)).WithPlus()
}

// JackknifePlus aggregates leave-one-out folds with the jackknife+ rule.
// An untrained predictor must implement model.Cloner.
func JackknifePlus(p model.Predictor) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewMAD(), split.NewLeaveOneOut()).WithPlus()
}

// CrossConformal pools the out-of-fold residuals of k folds into a single
// threshold, trading the plus guarantee for one serving model.
func CrossConformal(p model.Predictor, k int, seed int64) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewMAD(), split.NewKFold(k, seed))
}

// WeightedSplitCP is split-conformal calibration under covariate shift :
// calibration residuals enter the quantile weighted by fn.
func WeightedSplitCP(p model.Predictor, fn conformal.WeightFunc, fitRatio float64, seed int64) *conformal.Regressor {
	return conformal.NewRegressor(p, score.NewMAD(), split.NewRandom(fitRatio, seed)).WithWeights(fn)
}
