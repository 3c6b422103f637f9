package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForest_Fit(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 30; i++ {
		x = append(x, []float64{-5 - float64(i%10), float64(i % 3)})
		y = append(y, 0)
		x = append(x, []float64{5 + float64(i%10), float64(i % 3)})
		y = append(y, 1)
	}

	f := NewForest(50, 2)
	assert.False(t, f.Trained())
	assert.NoError(t, f.Fit(x, y))
	assert.True(t, f.Trained())

	preds, err := f.Predict([][]float64{{-8, 1}, {8, 1}})
	assert.NoError(t, err)
	for _, p := range preds {
		assert.Equal(t, 2, len(p))
		sum := 0.0
		for _, v := range p {
			assert.True(t, v >= 0)
			sum += v
		}
		assert.InDelta(t, 1, sum, 1e-6)
	}
	assert.True(t, preds[0][0] > preds[0][1])
	assert.True(t, preds[1][1] > preds[1][0])
}

func TestForest_LabelOutsideClasses(t *testing.T) {
	f := NewForest(10, 2)
	err := f.Fit([][]float64{{1}, {2}}, []float64{0, 5})
	assert.Error(t, err)
	assert.False(t, f.Trained())
}

func TestForest_PredictUntrained(t *testing.T) {
	f := NewForest(10, 2)
	_, err := f.Predict([][]float64{{1}})
	assert.Error(t, err)
}

func TestForest_Clone(t *testing.T) {
	f := NewForest(10, 3)
	clone, ok := f.Clone().(*Forest)
	assert.True(t, ok)
	assert.Equal(t, 10, clone.Trees)
	assert.Equal(t, 3, clone.Classes)
	assert.False(t, clone.Trained())
}
