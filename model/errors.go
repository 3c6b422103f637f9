package model

import "errors"

var (
	// ConfigErr marks an invalid calibration setup e.g. alpha, fold counts, ratios or data shapes.
	ConfigErr = errors.New("invalid configuration")
	// NotCalibratedErr marks a prediction attempt before a successful fit.
	NotCalibratedErr = errors.New("not calibrated")
	// PredictorErr marks a failure of the underlying model during fit or predict.
	PredictorErr = errors.New("predictor failure")
	// DegenerateErr marks a threshold that is not finite for the requested alpha and sample size.
	DegenerateErr = errors.New("degenerate threshold")
)
