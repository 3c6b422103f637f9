package model

import (
	"fmt"
)

// Dataset is an ordered collection of feature vectors and their labels.
// It is immutable after construction and safe to share across goroutines.
type Dataset struct {
	x   [][]float64
	y   []float64
	dim int
}

// NewDataset copies the given features and labels into an immutable dataset.
// All rows must carry the same dimension and match the labels in length.
func NewDataset(x [][]float64, y []float64) (Dataset, error) {
	if len(x) == 0 {
		return Dataset{}, fmt.Errorf("empty dataset: %w", ConfigErr)
	}
	if len(x) != len(y) {
		return Dataset{}, fmt.Errorf("features do not match labels [%d|%d]: %w", len(x), len(y), ConfigErr)
	}
	dim := len(x[0])
	if dim == 0 {
		return Dataset{}, fmt.Errorf("empty feature vector at row 0: %w", ConfigErr)
	}
	xx := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != dim {
			return Dataset{}, fmt.Errorf("inconsistent dimension at row %d [%d|%d]: %w", i, len(row), dim, ConfigErr)
		}
		xx[i] = make([]float64, dim)
		copy(xx[i], row)
	}
	yy := make([]float64, len(y))
	copy(yy, y)
	return Dataset{x: xx, y: yy, dim: dim}, nil
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	return len(d.x)
}

// Dim returns the feature dimension.
func (d Dataset) Dim() int {
	return d.dim
}

// Row returns the feature vector at index i.
// The returned slice must not be modified.
func (d Dataset) Row(i int) []float64 {
	return d.x[i]
}

// Label returns the label at index i.
func (d Dataset) Label(i int) float64 {
	return d.y[i]
}

// Rows gathers the feature vectors at the given indices.
// The returned rows must not be modified.
func (d Dataset) Rows(idx []int) [][]float64 {
	xx := make([][]float64, len(idx))
	for i, j := range idx {
		xx[i] = d.x[j]
	}
	return xx
}

// Labels gathers the labels at the given indices.
func (d Dataset) Labels(idx []int) []float64 {
	yy := make([]float64, len(idx))
	for i, j := range idx {
		yy[i] = d.y[j]
	}
	return yy
}
