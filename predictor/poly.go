package predictor

import (
	"fmt"

	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/model"
)

// Polynomial is a single-feature polynomial model of fixed degree,
// fitted by least squares on the Vandermonde design.
type Polynomial struct {
	Degree int
	coeffs []float64
}

func NewPolynomial(degree int) *Polynomial {
	return &Polynomial{Degree: degree}
}

func (p *Polynomial) Fit(x [][]float64, y []float64) error {
	if p.Degree < 1 {
		return fmt.Errorf("invalid degree %d", p.Degree)
	}
	if len(x) == 0 {
		return fmt.Errorf("no training rows")
	}
	if len(x) != len(y) {
		return fmt.Errorf("inconsistent training size [%d|%d]", len(x), len(y))
	}
	xx := make([]float64, len(x))
	for i, row := range x {
		if len(row) != 1 {
			return fmt.Errorf("row %d has %d features, polynomial expects 1", i, len(row))
		}
		xx[i] = row[0]
	}
	coeffs, err := cmath.Fit(xx, y, p.Degree)
	if err != nil {
		return fmt.Errorf("could not solve least squares: %w", err)
	}
	p.coeffs = coeffs
	return nil
}

func (p *Polynomial) Predict(x [][]float64) ([][]float64, error) {
	if p.coeffs == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != 1 {
			return nil, fmt.Errorf("row %d has %d features, polynomial expects 1", i, len(row))
		}
		// horner evaluation
		v := 0.0
		for j := len(p.coeffs) - 1; j >= 0; j-- {
			v = v*row[0] + p.coeffs[j]
		}
		out[i] = []float64{v}
	}
	return out, nil
}

func (p *Polynomial) Trained() bool {
	return p.coeffs != nil
}

func (p *Polynomial) Clone() model.Predictor {
	return NewPolynomial(p.Degree)
}
