// Package classification provides ready-made conformal classifiers producing
// calibrated prediction sets over class probabilities.
package classification

import (
	"github.com/danibene/puncc/conformal"
	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/score"
	"github.com/danibene/puncc/split"
)

// RAPS is the regularized adaptive prediction sets classifier : the score
// quantile is calibrated on a random held-out subset and inverted into
// randomized, rank-penalized sets. The predictor must emit one probability
// per class; the seed drives both the split and the randomized cuts.
func RAPS(p model.Predictor, lambda float64, kReg int, fitRatio float64, seed int64) *conformal.Classifier {
	return conformal.NewClassifier(p, score.NewRAPS(lambda, kReg, seed), split.NewRandom(fitRatio, seed))
}

// APS is RAPS without the rank penalty.
func APS(p model.Predictor, fitRatio float64, seed int64) *conformal.Classifier {
	return conformal.NewClassifier(p, score.NewAPS(seed), split.NewRandom(fitRatio, seed))
}
