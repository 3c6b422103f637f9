package conformal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danibene/puncc/model"
	"github.com/danibene/puncc/predictor"
	"github.com/danibene/puncc/score"
	"github.com/danibene/puncc/split"
)

func TestConfig_Splitter(t *testing.T) {

	type test struct {
		cfg   Config
		folds int
		err   bool
	}

	tests := map[string]test{
		"default-split": {
			cfg:   Config{},
			folds: 1,
		},
		"split-ratio": {
			cfg:   Config{Strategy: Split, FitRatio: 0.5},
			folds: 1,
		},
		"kfold": {
			cfg:   Config{Strategy: KFold, K: 5},
			folds: 5,
		},
		"cv-plus": {
			cfg:   Config{Strategy: CVPlus, K: 4},
			folds: 4,
		},
		"loo": {
			cfg:   Config{Strategy: LOO},
			folds: 20,
		},
		"kfold-too-few": {
			cfg: Config{Strategy: KFold, K: 1},
			err: true,
		},
		"unknown": {
			cfg: Config{Strategy: "bootstrap"},
			err: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sp, err := tt.cfg.splitter()
			if tt.err {
				assert.True(t, errors.Is(err, model.ConfigErr))
				return
			}
			require.NoError(t, err)
			folds, err := sp.Split(20)
			require.NoError(t, err)
			assert.Len(t, folds, tt.folds)
		})
	}
}

func TestConfig_Label(t *testing.T) {
	assert.Equal(t, "split", Config{}.label())
	assert.Equal(t, "weighted", Config{Weighted: true}.label())
	assert.Equal(t, "kfold", Config{Strategy: KFold}.label())
	assert.Equal(t, "cv+", Config{Strategy: CVPlus}.label())
	assert.Equal(t, "loo", Config{Strategy: LOO}.label())

	assert.False(t, Config{Strategy: KFold}.plus())
	assert.True(t, Config{Strategy: CVPlus}.plus())
	assert.True(t, Config{Strategy: LOO}.plus())
}

func TestFromConfig(t *testing.T) {
	r, err := FromConfig(predictor.Constant(0), score.NewMAD(), Config{Strategy: CVPlus, K: 3})
	require.NoError(t, err)
	assert.True(t, r.plus)

	_, err = FromConfig(predictor.Constant(0), score.NewMAD(), Config{Strategy: "bootstrap"})
	assert.True(t, errors.Is(err, model.ConfigErr))
}

func TestClassifierFromConfig(t *testing.T) {
	c, err := ClassifierFromConfig(predictor.Constant(0.5, 0.5), score.NewAPS(1), Config{Strategy: KFold, K: 2})
	require.NoError(t, err)
	assert.IsType(t, split.KFold{}, c.splitter)

	// the plus aggregation has no prediction set counterpart
	_, err = ClassifierFromConfig(predictor.Constant(0.5, 0.5), score.NewAPS(1), Config{Strategy: CVPlus, K: 2})
	assert.True(t, errors.Is(err, model.ConfigErr))
}
