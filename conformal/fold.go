package conformal

import (
	"fmt"

	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/split"
)

// checkFolds rejects setups that cannot calibrate safely, before any work runs.
func checkFolds(base model.Predictor, folds []split.Fold, weighted bool) error {
	if len(folds) > 1 {
		if weighted {
			return fmt.Errorf("weighted calibration needs a single fold: got %d: %w", len(folds), model.ConfigErr)
		}
		if !base.Trained() {
			if _, ok := base.(model.Cloner); !ok {
				return fmt.Errorf("%d folds need a pre-trained or cloneable predictor: %w", len(folds), model.ConfigErr)
			}
		}
	}
	return nil
}

// trainFold returns the predictor serving a fold together with its raw
// predictions on the calibration subset. A pre-trained predictor is reused as
// is; otherwise a clone (or, for a single fold, the predictor itself) is
// trained on the fit subset.
func trainFold(base model.Predictor, fold split.Fold, ds model.Dataset) (model.Predictor, [][]float64, error) {
	p := base
	if !p.Trained() {
		if c, ok := p.(model.Cloner); ok {
			p = c.Clone()
		}
		if err := p.Fit(ds.Rows(fold.Fit), ds.Labels(fold.Fit)); err != nil {
			return nil, nil, fmt.Errorf("could not train predictor: %v: %w", err, model.PredictorErr)
		}
	}
	preds, err := p.Predict(ds.Rows(fold.Calib))
	if err != nil {
		return nil, nil, fmt.Errorf("could not predict calibration subset: %v: %w", err, model.PredictorErr)
	}
	if len(preds) != len(fold.Calib) {
		return nil, nil, fmt.Errorf("predictor returned %d rows for %d inputs: %w", len(preds), len(fold.Calib), model.PredictorErr)
	}
	return p, preds, nil
}

// servingPredictor picks the model answering Predict calls : the fold model
// for a single split, the pre-trained model when there is one, otherwise a
// fresh clone trained on the full dataset (cross-conformal).
func servingPredictor(base model.Predictor, foldPredictors []model.Predictor, ds model.Dataset) (model.Predictor, error) {
	if len(foldPredictors) == 1 {
		return foldPredictors[0], nil
	}
	if base.Trained() {
		return base, nil
	}
	p := base.(model.Cloner).Clone()
	all := make([]int, ds.Len())
	for i := range all {
		all[i] = i
	}
	if err := p.Fit(ds.Rows(all), ds.Labels(all)); err != nil {
		return nil, fmt.Errorf("could not train serving predictor: %v: %w", err, model.PredictorErr)
	}
	return p, nil
}

// rowWeights evaluates the weight function on the calibration rows.
func rowWeights(fn WeightFunc, fold split.Fold, ds model.Dataset) []float64 {
	weights := make([]float64, len(fold.Calib))
	for i, j := range fold.Calib {
		weights[i] = fn(ds.Row(j))
	}
	return weights
}
