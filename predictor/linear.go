package predictor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/model"
)

// Linear is an ordinary least squares model with an intercept term.
type Linear struct {
	coeffs []float64
}

func NewLinear() *Linear {
	return &Linear{}
}

func (l *Linear) Fit(x [][]float64, y []float64) error {
	a, err := design(x, y)
	if err != nil {
		return err
	}
	coeffs, err := cmath.Lstsq(a, y)
	if err != nil {
		return fmt.Errorf("could not solve least squares: %w", err)
	}
	l.coeffs = coeffs
	return nil
}

func (l *Linear) Predict(x [][]float64) ([][]float64, error) {
	if l.coeffs == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	return affine(l.coeffs, x)
}

func (l *Linear) Trained() bool {
	return l.coeffs != nil
}

func (l *Linear) Clone() model.Predictor {
	return NewLinear()
}

// Ridge is least squares with an L2 penalty on the weights,
// solved on the sqrt(lambda)-augmented design matrix.
// The intercept is left unpenalized.
type Ridge struct {
	Lambda float64
	coeffs []float64
}

func NewRidge(lambda float64) *Ridge {
	return &Ridge{Lambda: lambda}
}

func (r *Ridge) Fit(x [][]float64, y []float64) error {
	if r.Lambda < 0 {
		return fmt.Errorf("negative penalty %v", r.Lambda)
	}
	a, err := design(x, y)
	if err != nil {
		return err
	}
	rows, cols := a.Dims()
	aug := mat.NewDense(rows+cols-1, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			aug.Set(i, j, a.At(i, j))
		}
	}
	for j := 1; j < cols; j++ {
		aug.Set(rows+j-1, j, math.Sqrt(r.Lambda))
	}
	yy := make([]float64, rows+cols-1)
	copy(yy, y)
	coeffs, err := cmath.Lstsq(aug, yy)
	if err != nil {
		return fmt.Errorf("could not solve least squares: %w", err)
	}
	r.coeffs = coeffs
	return nil
}

func (r *Ridge) Predict(x [][]float64) ([][]float64, error) {
	if r.coeffs == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	return affine(r.coeffs, x)
}

func (r *Ridge) Trained() bool {
	return r.coeffs != nil
}

func (r *Ridge) Clone() model.Predictor {
	return NewRidge(r.Lambda)
}

// design builds the regression matrix with a leading column of ones
// for the intercept.
func design(x [][]float64, y []float64) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("inconsistent training size [%d|%d]", len(x), len(y))
	}
	dim := len(x[0])
	if dim == 0 {
		return nil, fmt.Errorf("empty feature vector")
	}
	a := mat.NewDense(len(x), dim+1, nil)
	for i, row := range x {
		if len(row) != dim {
			return nil, fmt.Errorf("inconsistent dimension at row %d [%d|%d]", i, len(row), dim)
		}
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	return a, nil
}

func affine(coeffs []float64, x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(coeffs)-1 {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(coeffs)-1)
		}
		v := coeffs[0]
		for j, f := range row {
			v += coeffs[j+1] * f
		}
		out[i] = []float64{v}
	}
	return out, nil
}
