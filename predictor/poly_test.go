package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolynomial_Fit(t *testing.T) {
	// y = 1 + 2x + x^2 recovered exactly by a degree 2 fit
	x := [][]float64{{-2}, {-1}, {0}, {1}, {2}, {3}}
	y := make([]float64, len(x))
	for i, row := range x {
		v := row[0]
		y[i] = 1 + 2*v + v*v
	}

	p := NewPolynomial(2)
	assert.False(t, p.Trained())
	assert.NoError(t, p.Fit(x, y))
	assert.True(t, p.Trained())

	preds, err := p.Predict([][]float64{{4}, {-3}})
	assert.NoError(t, err)
	assert.InDelta(t, 25, preds[0][0], 1e-9)
	assert.InDelta(t, 4, preds[1][0], 1e-9)
}

func TestPolynomial_Errors(t *testing.T) {
	p := NewPolynomial(2)

	_, err := p.Predict([][]float64{{1}})
	assert.Error(t, err)

	assert.Error(t, NewPolynomial(0).Fit([][]float64{{1}}, []float64{1}))
	assert.Error(t, p.Fit([][]float64{}, []float64{}))
	assert.Error(t, p.Fit([][]float64{{1}, {2}}, []float64{1}))
	assert.Error(t, p.Fit([][]float64{{1, 2}}, []float64{1}))
}

func TestPolynomial_Clone(t *testing.T) {
	p := NewPolynomial(3)
	assert.NoError(t, p.Fit([][]float64{{0}, {1}, {2}, {3}, {4}}, []float64{0, 1, 8, 27, 64}))

	clone := p.Clone()
	assert.False(t, clone.Trained())
	assert.True(t, p.Trained())
}
