package predictor

import (
	"fmt"

	"github.com/cdipaolo/goml/base"
	"github.com/cdipaolo/goml/linear"

	"github.com/danibene/puncc/model"
)

// Softmax is a multinomial logistic model emitting class probabilities.
type Softmax struct {
	Classes    int
	Iterations int
	Rate       float64
	model      *linear.Softmax
}

func NewSoftmax(classes, iterations int, rate float64) *Softmax {
	return &Softmax{Classes: classes, Iterations: iterations, Rate: rate}
}

func (s *Softmax) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("inconsistent training size [%d|%d]", len(x), len(y))
	}
	model := linear.NewSoftmax(base.BatchGA, s.Rate, 0, s.Classes, s.Iterations, x, y)
	if err := model.Learn(); err != nil {
		return fmt.Errorf("could not train softmax: %w", err)
	}
	s.model = model
	return nil
}

func (s *Softmax) Predict(x [][]float64) ([][]float64, error) {
	if s.model == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		probs, err := s.model.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("could not predict row %d: %w", i, err)
		}
		out[i] = probs
	}
	return out, nil
}

func (s *Softmax) Trained() bool {
	return s.model != nil
}

func (s *Softmax) Clone() model.Predictor {
	return NewSoftmax(s.Classes, s.Iterations, s.Rate)
}
