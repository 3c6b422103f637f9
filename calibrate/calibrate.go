// Package calibrate computes finite-sample conformal thresholds from
// nonconformity score samples.
package calibrate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/model"
)

// Policy decides how a degenerate (infinite) threshold is handled.
type Policy int

const (
	// Surface keeps the +Inf threshold and flags the result.
	Surface Policy = iota
	// Clamp falls back to the maximum score sample. This trades the
	// coverage guarantee for a finite interval and is opt-in only.
	Clamp
	// Fail rejects the calibration with model.DegenerateErr.
	Fail
)

// Threshold is a calibrated nonconformity bound.
// Degenerate marks that no finite bound exists for the requested alpha
// and sample size.
type Threshold struct {
	Value      float64 `json:"value"`
	Degenerate bool    `json:"degenerate"`
}

type thresholdJSON struct {
	Value      *float64 `json:"value"`
	Degenerate bool     `json:"degenerate"`
}

// MarshalJSON encodes an infinite threshold value as null, since json has no
// representation for it.
func (t Threshold) MarshalJSON() ([]byte, error) {
	tj := thresholdJSON{Degenerate: t.Degenerate}
	if !math.IsInf(t.Value, 0) {
		v := t.Value
		tj.Value = &v
	}
	return json.Marshal(tj)
}

func (t *Threshold) UnmarshalJSON(b []byte) error {
	var tj thresholdJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}
	t.Degenerate = tj.Degenerate
	if tj.Value == nil {
		t.Value = math.Inf(1)
	} else {
		t.Value = *tj.Value
	}
	return nil
}

// Quantile returns the conformal threshold for the given scores : the sample
// at ascending 1-indexed rank ceil((n+1)(1-alpha)), or +Inf when the rank
// exceeds n.
func Quantile(scores []float64, alpha float64) (Threshold, error) {
	if err := check(len(scores), alpha); err != nil {
		return Threshold{}, err
	}
	rank := cmath.Rank(len(scores), alpha)
	if rank > len(scores) {
		return Threshold{Value: math.Inf(1), Degenerate: true}, nil
	}
	return Threshold{Value: cmath.KthSmallest(scores, rank)}, nil
}

// WeightedQuantile returns the covariate-shift threshold. Weights are
// normalized by (sum+1), reserving mass for the unseen test point; the
// threshold is the first score in ascending order whose cumulative
// normalized weight reaches 1-alpha, or +Inf if none does.
// With unit weights the result reduces exactly to Quantile.
func WeightedQuantile(scores, weights []float64, alpha float64) (Threshold, error) {
	if err := check(len(scores), alpha); err != nil {
		return Threshold{}, err
	}
	if len(weights) != len(scores) {
		return Threshold{}, fmt.Errorf("weights do not match scores [%d|%d]: %w", len(weights), len(scores), model.ConfigErr)
	}
	sum := 0.0
	for i, w := range weights {
		if w <= 0 {
			return Threshold{}, fmt.Errorf("weight %v at index %d must be positive: %w", w, i, model.ConfigErr)
		}
		sum += w
	}

	type sample struct {
		score  float64
		weight float64
	}
	samples := make([]sample, len(scores))
	for i := range scores {
		samples[i] = sample{score: scores[i], weight: weights[i]}
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].score < samples[j].score
	})

	// compare raw cumulative weight against (1-alpha)*(sum+1) instead of
	// dividing each step, so the unit-weight case hits the exact same
	// boundary arithmetic as the rank formula
	target := (1.0 - alpha) * (sum + 1)
	cum := 0.0
	for _, s := range samples {
		cum += s.weight
		if cum >= target {
			return Threshold{Value: s.score}, nil
		}
	}
	return Threshold{Value: math.Inf(1), Degenerate: true}, nil
}

// Resolve applies the degenerate policy to a computed threshold.
func Resolve(t Threshold, p Policy, scores []float64) (Threshold, error) {
	if !t.Degenerate {
		return t, nil
	}
	switch p {
	case Clamp:
		max := scores[0]
		for _, s := range scores[1:] {
			if s > max {
				max = s
			}
		}
		return Threshold{Value: max, Degenerate: true}, nil
	case Fail:
		return t, fmt.Errorf("no finite threshold for %d samples: %w", len(scores), model.DegenerateErr)
	default:
		return t, nil
	}
}

func check(n int, alpha float64) error {
	if n < 1 {
		return fmt.Errorf("no score samples: %w", model.ConfigErr)
	}
	if alpha <= 0 || alpha >= 1 {
		return fmt.Errorf("alpha must be in (0,1): got %v: %w", alpha, model.ConfigErr)
	}
	return nil
}
