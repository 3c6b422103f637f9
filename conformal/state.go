package conformal

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/danibene/puncc/calibrate"
	"github.com/danibene/puncc/internal/storage"
	"github.com/danibene/puncc/model"
)

// Snapshot is the serializable part of a calibrated state. Plus-aggregated
// states hold live fold predictors and cannot be snapshotted.
type Snapshot struct {
	Run       string              `json:"run"`
	Strategy  string              `json:"strategy"`
	Alpha     float64             `json:"alpha"`
	Threshold calibrate.Threshold `json:"threshold"`
}

// Save persists the current calibrated state under the given key.
func (r *Regressor) Save(store storage.Persistence, key storage.Key) error {
	st := r.current()
	if st == nil {
		return fmt.Errorf("fit must run first: %w", model.NotCalibratedErr)
	}
	if st.plus {
		return fmt.Errorf("plus-aggregated state cannot be persisted: %w", model.ConfigErr)
	}
	return store.Store(key, Snapshot{
		Run:       st.run,
		Strategy:  st.label,
		Alpha:     st.alpha,
		Threshold: st.threshold,
	})
}

// Restore loads a snapshot and rebinds it to the wrapper's predictor, which
// must already be trained. Prediction capability returns without refitting.
func (r *Regressor) Restore(store storage.Persistence, key storage.Key) error {
	if !r.predictor.Trained() {
		return fmt.Errorf("restore needs a trained predictor: %w", model.ConfigErr)
	}
	var snap Snapshot
	if err := store.Load(key, &snap); err != nil {
		return fmt.Errorf("could not load snapshot: %w", err)
	}
	if err := checkAlpha(snap.Alpha); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Store(&regressorState{
		run:       snap.Run,
		label:     snap.Strategy,
		alpha:     snap.Alpha,
		threshold: snap.Threshold,
		predictor: r.predictor,
	})
	log.Info().Str("run", snap.Run).Str("strategy", snap.Strategy).Msg("restored state")
	return nil
}

// Save persists the current calibrated state under the given key.
func (c *Classifier) Save(store storage.Persistence, key storage.Key) error {
	st := c.current()
	if st == nil {
		return fmt.Errorf("fit must run first: %w", model.NotCalibratedErr)
	}
	return store.Store(key, Snapshot{
		Run:       st.run,
		Strategy:  st.label,
		Alpha:     st.alpha,
		Threshold: st.threshold,
	})
}

// Restore loads a snapshot and rebinds it to the wrapper's predictor, which
// must already be trained.
func (c *Classifier) Restore(store storage.Persistence, key storage.Key) error {
	if !c.predictor.Trained() {
		return fmt.Errorf("restore needs a trained predictor: %w", model.ConfigErr)
	}
	var snap Snapshot
	if err := store.Load(key, &snap); err != nil {
		return fmt.Errorf("could not load snapshot: %w", err)
	}
	if err := checkAlpha(snap.Alpha); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store(&classifierState{
		run:       snap.Run,
		label:     snap.Strategy,
		alpha:     snap.Alpha,
		threshold: snap.Threshold,
		predictor: c.predictor,
	})
	log.Info().Str("run", snap.Run).Str("strategy", snap.Strategy).Msg("restored state")
	return nil
}
