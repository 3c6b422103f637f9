package conformal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danibene/puncc/calibrate"
	"github.com/danibene/puncc/internal/concurrent"
	"github.com/danibene/puncc/internal/storage"
	"github.com/danibene/puncc/internal/telemetry"
	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/score"
	"github.com/danibene/puncc/split"
)

// Classifier turns a class-probability predictor into a calibrated
// prediction-set predictor. Labels are class indices carried as float64 in
// the dataset.
type Classifier struct {
	predictor   model.Predictor
	score       score.SetScore
	splitter    split.Splitter
	weighted    bool
	weightFn    WeightFunc
	policy      calibrate.Policy
	parallelism int
	registry    storage.Registry
	label       string

	mu    sync.Mutex
	state atomic.Value
}

// NewClassifier wraps the predictor with the given set score and splitter.
// Multi-fold splitters pool the out-of-fold scores into one threshold; the
// plus aggregation is not defined for prediction sets.
func NewClassifier(p model.Predictor, s score.SetScore, sp split.Splitter) *Classifier {
	return &Classifier{
		predictor: p,
		score:     s,
		splitter:  sp,
	}
}

// ClassifierFromConfig assembles a classifier for the declared strategy.
// The cv+ strategy has no set counterpart and is rejected.
func ClassifierFromConfig(p model.Predictor, s score.SetScore, cfg Config) (*Classifier, error) {
	if cfg.Strategy == CVPlus {
		return nil, fmt.Errorf("strategy '%s' is not defined for prediction sets: %w", cfg.Strategy, model.ConfigErr)
	}
	sp, err := cfg.splitter()
	if err != nil {
		return nil, err
	}
	c := NewClassifier(p, s, sp).
		WithPolicy(cfg.Policy).
		WithParallelism(cfg.Parallelism)
	c.weighted = cfg.Weighted
	c.label = cfg.label()
	return c, nil
}

// WithWeights attaches a covariate-shift weight function over calibration rows.
func (c *Classifier) WithWeights(fn WeightFunc) *Classifier {
	c.weighted = true
	c.weightFn = fn
	return c
}

// WithPolicy sets the degenerate-threshold policy.
func (c *Classifier) WithPolicy(p calibrate.Policy) *Classifier {
	c.policy = p
	return c
}

// WithParallelism bounds the number of concurrent fold workers.
func (c *Classifier) WithParallelism(n int) *Classifier {
	c.parallelism = n
	return c
}

// WithRegistry logs a record of every fit run to the given registry.
func (c *Classifier) WithRegistry(reg storage.Registry) *Classifier {
	c.registry = reg
	return c
}

// classifierState is the immutable calibrated artifact served by Predict.
type classifierState struct {
	run       string
	label     string
	alpha     float64
	threshold calibrate.Threshold
	predictor model.Predictor
}

// Fit trains per-fold predictors, scores the calibration subsets against the
// true labels and swaps in the calibrated state.
func (c *Classifier) Fit(ctx context.Context, x [][]float64, y []float64, alpha float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkAlpha(alpha); err != nil {
		return err
	}
	if c.weighted && c.weightFn == nil {
		return fmt.Errorf("weighted calibration without a weight function: %w", model.ConfigErr)
	}
	ds, err := model.NewDataset(x, y)
	if err != nil {
		return err
	}
	folds, err := c.splitter.Split(ds.Len())
	if err != nil {
		return err
	}
	if err := checkFolds(c.predictor, folds, c.weightFn != nil); err != nil {
		return err
	}

	results := make([]foldResult, len(folds))
	err = concurrent.ForEach(ctx, len(folds), c.parallelism, func(ctx context.Context, k int) error {
		res, err := c.fitFold(folds[k], ds)
		if err != nil {
			return fmt.Errorf("fold %d: %w", k, err)
		}
		results[k] = res
		return nil
	})
	if err != nil {
		return err
	}

	st, err := c.assemble(results, ds, alpha)
	if err != nil {
		return err
	}

	c.state.Store(st)
	telemetry.Observer.Fit(st.label)
	log.Info().
		Str("run", st.run).
		Str("strategy", st.label).
		Float64("alpha", alpha).
		Int("samples", ds.Len()).
		Int("folds", len(folds)).
		Bool("degenerate", st.threshold.Degenerate).
		Msg("calibrated")
	c.record(st, ds.Len(), len(folds))
	return nil
}

func (c *Classifier) fitFold(fold split.Fold, ds model.Dataset) (foldResult, error) {
	p, preds, err := trainFold(c.predictor, fold, ds)
	if err != nil {
		return foldResult{}, err
	}

	scores := make([]float64, len(fold.Calib))
	for i, j := range fold.Calib {
		label := int(math.Round(ds.Label(j)))
		// the dataset row index pins the randomized draw to the sample,
		// not to the order the folds happen to run in
		s, err := c.score.Score(preds[i], label, j)
		if err != nil {
			return foldResult{}, err
		}
		scores[i] = s
	}

	var weights []float64
	if c.weightFn != nil {
		weights = rowWeights(c.weightFn, fold, ds)
	}
	return foldResult{predictor: p, scores: scores, weights: weights}, nil
}

func (c *Classifier) assemble(results []foldResult, ds model.Dataset, alpha float64) (*classifierState, error) {
	st := &classifierState{
		run:   uuid.New().String(),
		label: c.stateLabel(len(results)),
		alpha: alpha,
	}

	scores := make([]float64, 0, ds.Len())
	for _, res := range results {
		scores = append(scores, res.scores...)
	}

	var t calibrate.Threshold
	var err error
	if c.weightFn != nil {
		t, err = calibrate.WeightedQuantile(scores, results[0].weights, alpha)
	} else {
		t, err = calibrate.Quantile(scores, alpha)
	}
	if err != nil {
		return nil, err
	}
	st.threshold, err = calibrate.Resolve(t, c.policy, scores)
	if err != nil {
		return nil, err
	}
	if st.threshold.Degenerate {
		telemetry.Observer.Degenerate(st.label)
		if c.policy == calibrate.Fail {
			return nil, fmt.Errorf("no finite threshold for %d samples at alpha %v: %w", len(scores), alpha, model.DegenerateErr)
		}
		log.Warn().
			Str("run", st.run).
			Str("strategy", st.label).
			Int("samples", len(scores)).
			Float64("alpha", alpha).
			Msg("degenerate threshold")
	}

	predictors := make([]model.Predictor, len(results))
	for k, res := range results {
		predictors[k] = res.predictor
	}
	st.predictor, err = servingPredictor(c.predictor, predictors, ds)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Classifier) stateLabel(folds int) string {
	if c.label != "" {
		return c.label
	}
	switch {
	case folds > 1:
		return string(KFold)
	case c.weightFn != nil:
		return "weighted"
	default:
		return string(Split)
	}
}

// Predict returns the most likely labels and the calibrated prediction sets
// for the given rows. Sets hold class indices in decreasing probability order
// and may be empty.
func (c *Classifier) Predict(x [][]float64) ([]int, [][]int, error) {
	st := c.current()
	if st == nil {
		return nil, nil, fmt.Errorf("fit must run first: %w", model.NotCalibratedErr)
	}
	if len(x) == 0 {
		return nil, nil, fmt.Errorf("no rows to predict: %w", model.ConfigErr)
	}

	preds, err := st.predictor.Predict(x)
	if err != nil {
		return nil, nil, fmt.Errorf("could not predict: %v: %w", err, model.PredictorErr)
	}
	if len(preds) != len(x) {
		return nil, nil, fmt.Errorf("predictor returned %d rows for %d inputs: %w", len(preds), len(x), model.PredictorErr)
	}

	labels := make([]int, len(x))
	sets := make([][]int, len(x))
	for i, probs := range preds {
		if len(probs) == 0 {
			return nil, nil, fmt.Errorf("empty probability row %d: %w", i, model.PredictorErr)
		}
		labels[i] = argmax(probs)
		sets[i], err = c.score.Set(probs, st.threshold.Value, i)
		if err != nil {
			return nil, nil, err
		}
	}

	telemetry.Observer.Predict(st.label)
	return labels, sets, nil
}

// Calibrated reports whether a successful Fit has produced a state.
func (c *Classifier) Calibrated() bool {
	return c.current() != nil
}

// Threshold returns the calibrated threshold of the current state.
func (c *Classifier) Threshold() (calibrate.Threshold, error) {
	st := c.current()
	if st == nil {
		return calibrate.Threshold{}, fmt.Errorf("fit must run first: %w", model.NotCalibratedErr)
	}
	return st.threshold, nil
}

func (c *Classifier) current() *classifierState {
	st, ok := c.state.Load().(*classifierState)
	if !ok {
		return nil
	}
	return st
}

func (c *Classifier) record(st *classifierState, samples, folds int) {
	if c.registry == nil {
		return
	}
	t := st.threshold
	rec := runRecord{
		Run:        st.run,
		Strategy:   st.label,
		Alpha:      st.alpha,
		Samples:    samples,
		Folds:      folds,
		Threshold:  &t,
		Degenerate: t.Degenerate,
	}
	err := c.registry.Add(storage.K{Model: st.label, Label: "classification"}, rec)
	if err != nil {
		log.Warn().Err(err).Str("run", st.run).Msg("could not record run")
	}
}

func argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
