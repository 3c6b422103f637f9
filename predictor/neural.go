package predictor

import (
	"fmt"
	"math"

	"github.com/drakos74/go-ex-machina/xmachina/ml"
	"github.com/drakos74/go-ex-machina/xmachina/net"
	"github.com/drakos74/go-ex-machina/xmachina/net/ff"
	"github.com/drakos74/go-ex-machina/xmath"

	"github.com/danibene/puncc/model"
)

// Neural is a feed-forward regression network with tanh activations.
// Targets should be scaled to the activation range, roughly [-1,1].
type Neural struct {
	Hidden []int
	Epochs int
	Rate   float64
	net    *ff.Network
	dim    int
}

func NewNeural(hidden []int, epochs int, rate float64) *Neural {
	return &Neural{Hidden: hidden, Epochs: epochs, Rate: rate}
}

func (n *Neural) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("inconsistent training size [%d|%d]", len(x), len(y))
	}
	dim := len(x[0])

	rate := ml.Learn(1, n.Rate)
	initW := xmath.Rand(0, 1, math.Sqrt)
	initB := xmath.Rand(0, 1, math.Sqrt)

	network := ff.New(dim, 1)
	for _, h := range n.Hidden {
		network = network.Add(h, net.NewBuilder().
			WithModule(ml.Base().
				WithRate(rate).
				WithActivation(ml.TanH)).
			WithWeights(initW, initB).
			Factory(net.NewActivationCell))
	}
	network = network.Add(1, net.NewBuilder().
		WithModule(ml.Base().
			WithRate(rate).
			WithActivation(ml.TanH)).
		WithWeights(initW, initB).
		Factory(net.NewActivationCell))
	network.Loss(ml.Pow)

	for epoch := 0; epoch < n.Epochs; epoch++ {
		for i, row := range x {
			if len(row) != dim {
				return fmt.Errorf("inconsistent dimension at row %d [%d|%d]", i, len(row), dim)
			}
			_, _ = network.Train(xmath.Vec(dim).With(row...), xmath.Vec(1).With(y[i]))
		}
	}
	n.net = network
	n.dim = dim
	return nil
}

func (n *Neural) Predict(x [][]float64) ([][]float64, error) {
	if n.net == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != n.dim {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), n.dim)
		}
		pred := n.net.Predict(xmath.Vec(n.dim).With(row...))
		out[i] = []float64{pred[0]}
	}
	return out, nil
}

func (n *Neural) Trained() bool {
	return n.net != nil
}

func (n *Neural) Clone() model.Predictor {
	hidden := make([]int, len(n.Hidden))
	copy(hidden, n.Hidden)
	return NewNeural(hidden, n.Epochs, n.Rate)
}
