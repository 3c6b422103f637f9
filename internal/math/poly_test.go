package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFit(t *testing.T) {

	type test struct {
		coeff []float64
	}

	tests := map[string]test{
		"linear":    {coeff: []float64{2, -1}},
		"quadratic": {coeff: []float64{1, 2, 3}},
		"cubic":     {coeff: []float64{-4, 0, 1, 0.5}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			degree := len(tt.coeff) - 1
			x := Series(1, 10)
			y := make([]float64, len(x))
			for i, v := range x {
				p := 1.0
				for _, c := range tt.coeff {
					y[i] += c * p
					p *= v
				}
			}
			cc, err := Fit(x, y, degree)
			assert.NoError(t, err)
			assert.Equal(t, len(tt.coeff), len(cc))
			for i, c := range tt.coeff {
				assert.InDelta(t, c, cc[i], 1e-6)
			}
		})
	}
}

func TestGaussian(t *testing.T) {
	a := Gaussian(42, 0, 1, 100)
	b := Gaussian(42, 0, 1, 100)
	assert.Equal(t, a, b)

	c := Gaussian(43, 0, 1, 100)
	assert.NotEqual(t, a, c)
}
