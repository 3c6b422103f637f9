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
	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/internal/storage"
	"github.com/danibene/puncc/internal/telemetry"
	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/score"
	"github.com/danibene/puncc/split"
)

// Regressor turns a point predictor into a calibrated interval predictor.
// Fit computes the calibrated state, Predict serves intervals from the last
// state; the two can run concurrently as the state is swapped atomically.
type Regressor struct {
	predictor   model.Predictor
	score       score.Score
	splitter    split.Splitter
	plus        bool
	weighted    bool
	weightFn    WeightFunc
	policy      calibrate.Policy
	parallelism int
	registry    storage.Registry
	label       string

	mu    sync.Mutex
	state atomic.Value
}

// NewRegressor wraps the predictor with the given score family and splitter.
// The default setup keeps a single pooled threshold; WithPlus switches
// multi-fold splitters to the cv+/jackknife+ aggregation.
func NewRegressor(p model.Predictor, s score.Score, sp split.Splitter) *Regressor {
	return &Regressor{
		predictor: p,
		score:     s,
		splitter:  sp,
	}
}

// FromConfig assembles a regressor for the declared strategy.
// Weighted configurations still need WithWeights before Fit.
func FromConfig(p model.Predictor, s score.Score, cfg Config) (*Regressor, error) {
	sp, err := cfg.splitter()
	if err != nil {
		return nil, err
	}
	r := NewRegressor(p, s, sp).
		WithPolicy(cfg.Policy).
		WithParallelism(cfg.Parallelism)
	if cfg.plus() {
		r = r.WithPlus()
	}
	r.weighted = cfg.Weighted
	r.label = cfg.label()
	return r, nil
}

// WithPlus enables the per-fold plus aggregation (cv+, jackknife+).
func (r *Regressor) WithPlus() *Regressor {
	r.plus = true
	return r
}

// WithWeights attaches a covariate-shift weight function over calibration rows.
func (r *Regressor) WithWeights(fn WeightFunc) *Regressor {
	r.weighted = true
	r.weightFn = fn
	return r
}

// WithPolicy sets the degenerate-threshold policy.
func (r *Regressor) WithPolicy(p calibrate.Policy) *Regressor {
	r.policy = p
	return r
}

// WithParallelism bounds the number of concurrent fold workers.
func (r *Regressor) WithParallelism(n int) *Regressor {
	r.parallelism = n
	return r
}

// WithRegistry logs a record of every fit run to the given registry.
func (r *Regressor) WithRegistry(reg storage.Registry) *Regressor {
	r.registry = reg
	return r
}

// regressorState is the immutable calibrated artifact served by Predict.
type regressorState struct {
	run       string
	label     string
	alpha     float64
	threshold calibrate.Threshold
	predictor model.Predictor
	plus      bool
	folds     []plusFold
}

type plusFold struct {
	predictor model.Predictor
	residuals []float64
}

func (st *regressorState) samples() int {
	n := 0
	for _, f := range st.folds {
		n += len(f.residuals)
	}
	return n
}

type foldResult struct {
	predictor model.Predictor
	scores    []float64
	weights   []float64
}

// Fit trains per-fold predictors, scores the calibration subsets and swaps in
// the calibrated state. Any fold failure leaves the previous state untouched.
func (r *Regressor) Fit(ctx context.Context, x [][]float64, y []float64, alpha float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := checkAlpha(alpha); err != nil {
		return err
	}
	if r.weighted && r.weightFn == nil {
		return fmt.Errorf("weighted calibration without a weight function: %w", model.ConfigErr)
	}
	ds, err := model.NewDataset(x, y)
	if err != nil {
		return err
	}
	folds, err := r.splitter.Split(ds.Len())
	if err != nil {
		return err
	}
	if err := checkFolds(r.predictor, folds, r.weightFn != nil); err != nil {
		return err
	}

	results := make([]foldResult, len(folds))
	err = concurrent.ForEach(ctx, len(folds), r.parallelism, func(ctx context.Context, k int) error {
		res, err := r.fitFold(folds[k], ds)
		if err != nil {
			return fmt.Errorf("fold %d: %w", k, err)
		}
		results[k] = res
		return nil
	})
	if err != nil {
		return err
	}

	st, err := r.assemble(results, ds, alpha)
	if err != nil {
		return err
	}

	r.state.Store(st)
	telemetry.Observer.Fit(st.label)
	log.Info().
		Str("run", st.run).
		Str("strategy", st.label).
		Float64("alpha", alpha).
		Int("samples", ds.Len()).
		Int("folds", len(folds)).
		Bool("degenerate", st.threshold.Degenerate).
		Msg("calibrated")
	r.record(st, ds.Len(), len(folds))
	return nil
}

// fitFold trains a fold predictor when needed and scores its calibration subset.
func (r *Regressor) fitFold(fold split.Fold, ds model.Dataset) (foldResult, error) {
	p, preds, err := trainFold(r.predictor, fold, ds)
	if err != nil {
		return foldResult{}, err
	}

	scores := make([]float64, len(fold.Calib))
	for i, j := range fold.Calib {
		s, err := r.score.Score(preds[i], ds.Label(j))
		if err != nil {
			return foldResult{}, err
		}
		scores[i] = s
	}

	var weights []float64
	if r.weightFn != nil {
		weights = rowWeights(r.weightFn, fold, ds)
	}
	return foldResult{predictor: p, scores: scores, weights: weights}, nil
}

// assemble derives the calibrated state from the fold results.
func (r *Regressor) assemble(results []foldResult, ds model.Dataset, alpha float64) (*regressorState, error) {
	st := &regressorState{
		run:   uuid.New().String(),
		label: r.stateLabel(len(results)),
		alpha: alpha,
	}

	if r.plus {
		st.plus = true
		st.folds = make([]plusFold, len(results))
		for k, res := range results {
			st.folds[k] = plusFold{predictor: res.predictor, residuals: res.scores}
		}
		n := st.samples()
		if cmath.Rank(n, alpha) > n {
			st.threshold = calibrate.Threshold{Value: math.Inf(1), Degenerate: true}
			if err := r.degenerate(st, n, alpha); err != nil {
				return nil, err
			}
		}
		return st, nil
	}

	scores := make([]float64, 0, ds.Len())
	for _, res := range results {
		scores = append(scores, res.scores...)
	}

	var t calibrate.Threshold
	var err error
	if r.weightFn != nil {
		t, err = calibrate.WeightedQuantile(scores, results[0].weights, alpha)
	} else {
		t, err = calibrate.Quantile(scores, alpha)
	}
	if err != nil {
		return nil, err
	}
	st.threshold, err = calibrate.Resolve(t, r.policy, scores)
	if err != nil {
		return nil, err
	}
	if st.threshold.Degenerate {
		if err := r.degenerate(st, len(scores), alpha); err != nil {
			return nil, err
		}
	}

	predictors := make([]model.Predictor, len(results))
	for k, res := range results {
		predictors[k] = res.predictor
	}
	st.predictor, err = servingPredictor(r.predictor, predictors, ds)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (r *Regressor) degenerate(st *regressorState, n int, alpha float64) error {
	telemetry.Observer.Degenerate(st.label)
	if r.policy == calibrate.Fail {
		return fmt.Errorf("no finite threshold for %d samples at alpha %v: %w", n, alpha, model.DegenerateErr)
	}
	log.Warn().
		Str("run", st.run).
		Str("strategy", st.label).
		Int("samples", n).
		Float64("alpha", alpha).
		Msg("degenerate threshold")
	return nil
}

func (r *Regressor) stateLabel(folds int) string {
	if r.label != "" {
		return r.label
	}
	switch {
	case r.plus:
		return string(CVPlus)
	case folds > 1:
		return string(KFold)
	case r.weightFn != nil:
		return "weighted"
	default:
		return string(Split)
	}
}

// Predict returns the point predictions and calibrated intervals for the
// given rows. It fails with model.NotCalibratedErr before the first
// successful Fit.
func (r *Regressor) Predict(x [][]float64) ([]float64, []model.Interval, error) {
	st := r.current()
	if st == nil {
		return nil, nil, fmt.Errorf("fit must run first: %w", model.NotCalibratedErr)
	}
	if len(x) == 0 {
		return nil, nil, fmt.Errorf("no rows to predict: %w", model.ConfigErr)
	}

	var points []float64
	var intervals []model.Interval
	var err error
	if st.plus {
		points, intervals, err = r.plusPredict(st, x)
	} else {
		points, intervals, err = r.thresholdPredict(st, x)
	}
	if err != nil {
		return nil, nil, err
	}

	telemetry.Observer.Predict(st.label)
	for _, iv := range intervals {
		if iv.Bounded() {
			telemetry.Observer.Width(iv.Width(), st.label)
		}
	}
	return points, intervals, nil
}

func (r *Regressor) thresholdPredict(st *regressorState, x [][]float64) ([]float64, []model.Interval, error) {
	preds, err := st.predictor.Predict(x)
	if err != nil {
		return nil, nil, fmt.Errorf("could not predict: %v: %w", err, model.PredictorErr)
	}
	if len(preds) != len(x) {
		return nil, nil, fmt.Errorf("predictor returned %d rows for %d inputs: %w", len(preds), len(x), model.PredictorErr)
	}
	points := make([]float64, len(x))
	intervals := make([]model.Interval, len(x))
	for i, pred := range preds {
		points[i], err = r.score.Point(pred)
		if err != nil {
			return nil, nil, err
		}
		intervals[i], err = r.score.Interval(pred, st.threshold.Value)
		if err != nil {
			return nil, nil, err
		}
	}
	return points, intervals, nil
}

// plusPredict serves the cv+/jackknife+ aggregation : every fold predictor
// scores every row once, then each row combines the fold predictions with the
// out-of-fold residuals.
func (r *Regressor) plusPredict(st *regressorState, x [][]float64) ([]float64, []model.Interval, error) {
	foldPreds := make([][]float64, len(st.folds))
	residuals := make([][]float64, len(st.folds))
	for k, f := range st.folds {
		preds, err := f.predictor.Predict(x)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: could not predict: %v: %w", k, err, model.PredictorErr)
		}
		if len(preds) != len(x) {
			return nil, nil, fmt.Errorf("fold %d: predictor returned %d rows for %d inputs: %w", k, len(preds), len(x), model.PredictorErr)
		}
		foldPreds[k] = make([]float64, len(x))
		for i, pred := range preds {
			p, err := r.score.Point(pred)
			if err != nil {
				return nil, nil, err
			}
			foldPreds[k][i] = p
		}
		residuals[k] = f.residuals
	}

	points := make([]float64, len(x))
	intervals := make([]model.Interval, len(x))
	preds := make([]float64, len(st.folds))
	for i := range x {
		sum := 0.0
		for k := range st.folds {
			preds[k] = foldPreds[k][i]
			sum += preds[k]
		}
		points[i] = sum / float64(len(st.folds))

		if st.threshold.Degenerate {
			intervals[i] = r.degenerateInterval(preds, residuals)
			continue
		}
		iv, _, err := calibrate.PlusBounds(preds, residuals, st.alpha)
		if err != nil {
			return nil, nil, err
		}
		intervals[i] = iv
	}
	return points, intervals, nil
}

// degenerateInterval applies the policy when the plus rank exceeds the sample
// count : the full line by default, the extreme envelope under Clamp.
func (r *Regressor) degenerateInterval(preds []float64, residuals [][]float64) model.Interval {
	if r.policy != calibrate.Clamp {
		return model.Everything()
	}
	iv := model.Interval{}
	first := true
	for k, rr := range residuals {
		for _, res := range rr {
			lo := preds[k] - res
			hi := preds[k] + res
			if first || lo < iv.Lower {
				iv.Lower = lo
			}
			if first || hi > iv.Upper {
				iv.Upper = hi
			}
			first = false
		}
	}
	return iv
}

// Calibrated reports whether a successful Fit has produced a state.
func (r *Regressor) Calibrated() bool {
	return r.current() != nil
}

// Threshold returns the calibrated threshold of the current state.
// Plus-aggregated states carry no scalar threshold; only the Degenerate flag
// is meaningful there.
func (r *Regressor) Threshold() (calibrate.Threshold, error) {
	st := r.current()
	if st == nil {
		return calibrate.Threshold{}, fmt.Errorf("fit must run first: %w", model.NotCalibratedErr)
	}
	return st.threshold, nil
}

func (r *Regressor) current() *regressorState {
	st, ok := r.state.Load().(*regressorState)
	if !ok {
		return nil
	}
	return st
}

func (r *Regressor) record(st *regressorState, samples, folds int) {
	if r.registry == nil {
		return
	}
	t := st.threshold
	rec := runRecord{
		Run:      st.run,
		Strategy: st.label,
		Alpha:    st.alpha,
		Samples:  samples,
		Folds:    folds,
	}
	if !st.plus {
		rec.Threshold = &t
	}
	rec.Degenerate = t.Degenerate
	err := r.registry.Add(storage.K{Model: st.label, Label: "regression"}, rec)
	if err != nil {
		log.Warn().Err(err).Str("run", st.run).Msg("could not record run")
	}
}

// runRecord is the registry line written after every successful fit.
type runRecord struct {
	Run        string               `json:"run"`
	Strategy   string               `json:"strategy"`
	Alpha      float64              `json:"alpha"`
	Samples    int                  `json:"samples"`
	Folds      int                  `json:"folds"`
	Threshold  *calibrate.Threshold `json:"threshold,omitempty"`
	Degenerate bool                 `json:"degenerate"`
}
