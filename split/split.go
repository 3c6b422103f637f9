// Package split partitions dataset indices into fit and calibration folds.
package split

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/danibene/puncc/model"
)

// Fold is a pair of disjoint index sets over a dataset.
// Fit indices feed the predictor training, Calib indices the calibration.
type Fold struct {
	Fit   []int
	Calib []int
}

// Splitter produces the fit/calibration folds for a dataset of n samples.
type Splitter interface {
	Split(n int) ([]Fold, error)
}

// Random splits once, keeping FitRatio of the samples for training and
// drawing the calibration indices without replacement.
// Deterministic for a fixed seed.
type Random struct {
	FitRatio float64
	Seed     int64
}

func NewRandom(fitRatio float64, seed int64) Random {
	return Random{FitRatio: fitRatio, Seed: seed}
}

func (s Random) Split(n int) ([]Fold, error) {
	if s.FitRatio <= 0 || s.FitRatio >= 1 {
		return nil, fmt.Errorf("fit ratio must be in (0,1): got %v: %w", s.FitRatio, model.ConfigErr)
	}
	if n < 2 {
		return nil, fmt.Errorf("cannot split %d samples: %w", n, model.ConfigErr)
	}
	calibSize := int(math.Round((1.0 - s.FitRatio) * float64(n)))
	if calibSize == 0 || calibSize == n {
		return nil, fmt.Errorf("split leaves an empty subset [fit %d | calib %d]: %w", n-calibSize, calibSize, model.ConfigErr)
	}
	perm := rand.New(rand.NewSource(s.Seed)).Perm(n)
	calib := make([]int, calibSize)
	copy(calib, perm[:calibSize])
	fit := make([]int, n-calibSize)
	copy(fit, perm[calibSize:])
	return []Fold{{Fit: fit, Calib: calib}}, nil
}

// KFold produces K folds whose calibration sets partition the samples
// exactly, with sizes differing by at most one.
type KFold struct {
	K    int
	Seed int64
}

func NewKFold(k int, seed int64) KFold {
	return KFold{K: k, Seed: seed}
}

func (s KFold) Split(n int) ([]Fold, error) {
	if s.K < 2 {
		return nil, fmt.Errorf("fold count must be at least 2: got %d: %w", s.K, model.ConfigErr)
	}
	if s.K > n {
		return nil, fmt.Errorf("cannot split %d samples into %d folds: %w", n, s.K, model.ConfigErr)
	}
	perm := rand.New(rand.NewSource(s.Seed)).Perm(n)
	folds := make([]Fold, s.K)
	size := n / s.K
	remainder := n % s.K
	start := 0
	for k := 0; k < s.K; k++ {
		end := start + size
		if k < remainder {
			end++
		}
		calib := make([]int, end-start)
		copy(calib, perm[start:end])
		fit := make([]int, 0, n-len(calib))
		fit = append(fit, perm[:start]...)
		fit = append(fit, perm[end:]...)
		folds[k] = Fold{Fit: fit, Calib: calib}
		start = end
	}
	return folds, nil
}

// LeaveOneOut produces n folds, each calibrating on a distinct single sample.
type LeaveOneOut struct {
}

func NewLeaveOneOut() LeaveOneOut {
	return LeaveOneOut{}
}

func (s LeaveOneOut) Split(n int) ([]Fold, error) {
	if n < 2 {
		return nil, fmt.Errorf("cannot leave one out of %d samples: %w", n, model.ConfigErr)
	}
	folds := make([]Fold, n)
	for i := 0; i < n; i++ {
		fit := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				fit = append(fit, j)
			}
		}
		folds[i] = Fold{Fit: fit, Calib: []int{i}}
	}
	return folds, nil
}

// Manual wraps caller-provided fit and calibration index sets into a single fold.
type Manual struct {
	Fit   []int
	Calib []int
}

func NewManual(fit, calib []int) Manual {
	return Manual{Fit: fit, Calib: calib}
}

func (s Manual) Split(n int) ([]Fold, error) {
	if len(s.Fit) == 0 || len(s.Calib) == 0 {
		return nil, fmt.Errorf("manual split leaves an empty subset [fit %d | calib %d]: %w", len(s.Fit), len(s.Calib), model.ConfigErr)
	}
	seen := make(map[int]bool, len(s.Fit)+len(s.Calib))
	for _, set := range [][]int{s.Fit, s.Calib} {
		for _, i := range set {
			if i < 0 || i >= n {
				return nil, fmt.Errorf("index %d out of range [0,%d): %w", i, n, model.ConfigErr)
			}
			if seen[i] {
				return nil, fmt.Errorf("index %d assigned twice: %w", i, model.ConfigErr)
			}
			seen[i] = true
		}
	}
	fit := make([]int, len(s.Fit))
	copy(fit, s.Fit)
	calib := make([]int, len(s.Calib))
	copy(calib, s.Calib)
	return []Fold{{Fit: fit, Calib: calib}}, nil
}
