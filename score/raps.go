package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/danibene/puncc/model"
)

// SetScore measures nonconformity of a class-probability prediction and
// inverts a threshold into a prediction set over the label space. The row
// index identifies the sample within the call, so randomized families can
// derive their draw from it instead of consuming a shared stream.
type SetScore interface {
	Score(probs []float64, label int, row int) (float64, error)
	Set(probs []float64, t float64, row int) ([]int, error)
}

// RAPS is the regularized adaptive prediction sets score over class
// probabilities : the randomized cumulative probability mass down to the true
// label, plus a Lambda penalty for each rank beyond the KReg most likely
// classes. Lambda zero recovers the plain adaptive (APS) behaviour.
//
// Each randomized draw is a pure function of the seed and the sample's row
// index, so scoring a calibration set yields the same values for a fixed
// seed no matter how the calls are ordered or interleaved.
type RAPS struct {
	Lambda float64
	KReg   int

	seed int64
}

func NewRAPS(lambda float64, kReg int, seed int64) *RAPS {
	return &RAPS{Lambda: lambda, KReg: kReg, seed: seed}
}

// NewAPS is RAPS without the rank penalty.
func NewAPS(seed int64) *RAPS {
	return NewRAPS(0, 1, seed)
}

func (s *RAPS) Score(probs []float64, label int, row int) (float64, error) {
	if label < 0 || label >= len(probs) {
		return 0, fmt.Errorf("label %d outside %d classes: %w", label, len(probs), model.ConfigErr)
	}
	ranking := rankDesc(probs)
	cum := 0.0
	for pos, class := range ranking {
		cum += probs[class]
		if class == label {
			penalty := s.Lambda * math.Max(float64(pos+1-s.KReg), 0)
			return cum + (s.uniform(row)-1)*probs[class] + penalty, nil
		}
	}
	return 0, fmt.Errorf("label %d not ranked: %w", label, model.ConfigErr)
}

func (s *RAPS) Set(probs []float64, t float64, row int) ([]int, error) {
	c := len(probs)
	if c == 0 {
		return nil, fmt.Errorf("empty probability vector: %w", model.ConfigErr)
	}
	ranking := rankDesc(probs)
	if math.IsInf(t, 1) {
		// degenerate threshold : every class makes the set
		return ranking, nil
	}
	sortedProbs := make([]float64, c)
	cum := make([]float64, c)
	mass := 0.0
	for j, class := range ranking {
		sortedProbs[j] = probs[class]
		mass += probs[class]
		cum[j] = mass
	}
	// candidate set size before the randomized cut
	l := 1
	for j := 0; j < c; j++ {
		if cum[j]+s.Lambda*math.Max(float64(j+1-s.KReg), 0) <= t {
			l++
		}
	}
	if l > c {
		return ranking, nil
	}
	excess := sortedProbs[l-1] - cum[l-1] - s.Lambda*math.Max(float64(l-s.KReg), 0)
	v := (t - excess) / sortedProbs[l-1]
	cut := l
	if v <= s.uniform(row) {
		cut = l - 1
	}
	set := make([]int, cut)
	copy(set, ranking[:cut])
	return set, nil
}

// uniform mixes the seed and row index into a draw in [0,1) with the
// splitmix64 finalizer.
func (s *RAPS) uniform(row int) float64 {
	z := uint64(s.seed) + (uint64(row)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}

// rankDesc returns the class indices ordered by decreasing probability,
// breaking ties by class index.
func rankDesc(probs []float64) []int {
	ranking := make([]int, len(probs))
	for i := range ranking {
		ranking[i] = i
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return probs[ranking[i]] > probs[ranking[j]]
	})
	return ranking
}
