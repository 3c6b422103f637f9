// Package predictor provides reference model.Predictor adapters over the
// supported learning backends. They cover the prediction shapes the score
// families expect : single points, (point, dispersion) pairs, quantile pairs
// and class probabilities.
package predictor

// Static answers with a fixed mapping and never trains.
type Static struct {
	fn func(x []float64) []float64
}

func NewStatic(fn func(x []float64) []float64) *Static {
	return &Static{fn: fn}
}

// Constant is a static predictor always answering the same row.
func Constant(values ...float64) *Static {
	return NewStatic(func([]float64) []float64 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	})
}

func (s *Static) Fit(x [][]float64, y []float64) error {
	return nil
}

func (s *Static) Predict(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.fn(row)
	}
	return out, nil
}

func (s *Static) Trained() bool {
	return true
}
