package predictor

import (
	"fmt"
	"math"

	"github.com/danibene/puncc/model"
)

// Dual composes two point predictors into a two-column output, one column
// per inner model. Both models train on the same data.
// Pair it with the quantile score family.
type Dual struct {
	First  model.Predictor
	Second model.Predictor
}

func NewDual(first, second model.Predictor) *Dual {
	return &Dual{First: first, Second: second}
}

func (d *Dual) Fit(x [][]float64, y []float64) error {
	if err := d.First.Fit(x, y); err != nil {
		return fmt.Errorf("could not train first model: %w", err)
	}
	if err := d.Second.Fit(x, y); err != nil {
		return fmt.Errorf("could not train second model: %w", err)
	}
	return nil
}

func (d *Dual) Predict(x [][]float64) ([][]float64, error) {
	first, err := d.First.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("could not predict with first model: %w", err)
	}
	f, err := points(first, len(x), "first")
	if err != nil {
		return nil, err
	}
	second, err := d.Second.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("could not predict with second model: %w", err)
	}
	s, err := points(second, len(x), "second")
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = []float64{f[i], s[i]}
	}
	return out, nil
}

func (d *Dual) Trained() bool {
	return d.First.Trained() && d.Second.Trained()
}

// MeanVar trains the dispersion model on the absolute residuals of the mean
// model, producing (point, dispersion) rows for the scaled score family.
// Dispersion predictions are floored at zero.
type MeanVar struct {
	Mean       model.Predictor
	Dispersion model.Predictor
}

func NewMeanVar(mean, dispersion model.Predictor) *MeanVar {
	return &MeanVar{Mean: mean, Dispersion: dispersion}
}

func (m *MeanVar) Fit(x [][]float64, y []float64) error {
	if err := m.Mean.Fit(x, y); err != nil {
		return fmt.Errorf("could not train mean model: %w", err)
	}
	preds, err := m.Mean.Predict(x)
	if err != nil {
		return fmt.Errorf("could not predict with mean model: %w", err)
	}
	pts, err := points(preds, len(y), "mean")
	if err != nil {
		return err
	}
	residuals := make([]float64, len(y))
	for i, v := range y {
		residuals[i] = math.Abs(v - pts[i])
	}
	if err := m.Dispersion.Fit(x, residuals); err != nil {
		return fmt.Errorf("could not train dispersion model: %w", err)
	}
	return nil
}

func (m *MeanVar) Predict(x [][]float64) ([][]float64, error) {
	mean, err := m.Mean.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("could not predict with mean model: %w", err)
	}
	mu, err := points(mean, len(x), "mean")
	if err != nil {
		return nil, err
	}
	dispersion, err := m.Dispersion.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("could not predict with dispersion model: %w", err)
	}
	sigma, err := points(dispersion, len(x), "dispersion")
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = []float64{mu[i], math.Max(sigma[i], 0)}
	}
	return out, nil
}

func (m *MeanVar) Trained() bool {
	return m.Mean.Trained() && m.Dispersion.Trained()
}

// points validates an inner model's output shape and flattens the point column.
func points(preds [][]float64, n int, name string) ([]float64, error) {
	if len(preds) != n {
		return nil, fmt.Errorf("%s model returned %d rows for %d inputs", name, len(preds), n)
	}
	out := make([]float64, n)
	for i, row := range preds {
		if len(row) == 0 {
			return nil, fmt.Errorf("%s model returned an empty row %d", name, i)
		}
		out[i] = row[0]
	}
	return out, nil
}
