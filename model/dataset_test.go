package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDataset(t *testing.T) {

	type test struct {
		x   [][]float64
		y   []float64
		err bool
	}

	tests := map[string]test{
		"ok": {
			x: [][]float64{{1, 2}, {3, 4}, {5, 6}},
			y: []float64{1, 2, 3},
		},
		"empty": {
			x:   [][]float64{},
			y:   []float64{},
			err: true,
		},
		"length-mismatch": {
			x:   [][]float64{{1, 2}, {3, 4}},
			y:   []float64{1},
			err: true,
		},
		"ragged-row": {
			x:   [][]float64{{1, 2}, {3}},
			y:   []float64{1, 2},
			err: true,
		},
		"empty-row": {
			x:   [][]float64{{}, {}},
			y:   []float64{1, 2},
			err: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ds, err := NewDataset(tt.x, tt.y)
			if tt.err {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ConfigErr))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, len(tt.x), ds.Len())
			assert.Equal(t, len(tt.x[0]), ds.Dim())
		})
	}
}

func TestDataset_Immutable(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}
	y := []float64{10, 20}
	ds, err := NewDataset(x, y)
	assert.NoError(t, err)

	// mutate the source slices after construction
	x[0][0] = -1
	y[1] = -1

	assert.Equal(t, 1.0, ds.Row(0)[0])
	assert.Equal(t, 20.0, ds.Label(1))
}

func TestDataset_Gather(t *testing.T) {
	ds, err := NewDataset([][]float64{{1}, {2}, {3}, {4}}, []float64{10, 20, 30, 40})
	assert.NoError(t, err)

	rows := ds.Rows([]int{3, 0})
	labels := ds.Labels([]int{3, 0})

	assert.Equal(t, [][]float64{{4}, {1}}, rows)
	assert.Equal(t, []float64{40, 10}, labels)
}
