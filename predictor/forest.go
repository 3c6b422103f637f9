package predictor

import (
	"fmt"
	"math"

	randomforest "github.com/malaschitz/randomForest"

	"github.com/danibene/puncc/model"
)

// Forest is a random forest classifier emitting vote ratios as class
// probabilities.
type Forest struct {
	Trees   int
	Classes int
	forest  *randomforest.Forest
}

func NewForest(trees, classes int) *Forest {
	return &Forest{Trees: trees, Classes: classes}
}

func (f *Forest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("inconsistent training size [%d|%d]", len(x), len(y))
	}
	classes := make([]int, len(y))
	for i, v := range y {
		c := int(math.Round(v))
		if c < 0 || c >= f.Classes {
			return fmt.Errorf("label %v outside of %d classes", v, f.Classes)
		}
		classes[i] = c
	}
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{
		X:     x,
		Class: classes,
	}
	forest.Train(f.Trees)
	f.forest = forest
	return nil
}

func (f *Forest) Predict(x [][]float64) ([][]float64, error) {
	if f.forest == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		votes := f.forest.Vote(row)
		// votes cover only the classes seen during training
		probs := make([]float64, f.Classes)
		copy(probs, votes)
		out[i] = probs
	}
	return out, nil
}

func (f *Forest) Trained() bool {
	return f.forest != nil
}

func (f *Forest) Clone() model.Predictor {
	return NewForest(f.Trees, f.Classes)
}
