package model

// Predictor is the minimal model capability wrapped by the calibration layer.
// Predict returns one row per input; the number of columns depends on the
// model family : one for point regression, two for (point, dispersion) or
// (lower, upper) quantile pairs, one per class for probability outputs.
type Predictor interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([][]float64, error)
	// Trained reports whether the model comes pre-fitted, in which case the
	// calibration layer skips training and reuses it across folds.
	Trained() bool
}

// Cloner produces fresh predictor instances so that each calibration fold
// trains in isolation without cross-fold state leakage.
type Cloner interface {
	Clone() Predictor
}
