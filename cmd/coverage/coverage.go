package main

import (
	"context"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danibene/puncc/conformal"
	"github.com/danibene/puncc/infra/config"
	cmath "github.com/danibene/puncc/internal/math"
	"github.com/danibene/puncc/internal/storage"
	json_storage "github.com/danibene/puncc/internal/storage/file/json"
	"github.com/danibene/puncc/internal/telemetry"
	"github.com/danibene/puncc/metrics"
	"github.com/danibene/puncc/predictor"
	"github.com/danibene/puncc/score"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Config drives the synthetic coverage sweep.
type Config struct {
	Samples      int                  `json:"samples"`
	TestSamples  int                  `json:"test_samples"`
	Seed         int64                `json:"seed"`
	Slope        float64              `json:"slope"`
	Noise        float64              `json:"noise"`
	Alphas       []float64            `json:"alphas"`
	Strategies   []conformal.Strategy `json:"strategies"`
	K            int                  `json:"k"`
	FitRatio     float64              `json:"fit_ratio"`
	PlotStrategy conformal.Strategy   `json:"plot_strategy"`
	Storage      string               `json:"storage"`
	MetricsPort  int                  `json:"metrics_port"`
}

func main() {

	cfg := Config{}
	config.MustLoad("coverage", &cfg)

	if cfg.MetricsPort > 0 {
		telemetry.Serve(cfg.MetricsPort)
	}

	x, y := generate(cfg, cfg.Samples, cfg.Seed)
	tx, ty := generate(cfg, cfg.TestSamples, cfg.Seed+1)

	shard, newRegistry, err := backend(cfg.Storage)
	if err != nil {
		panic(fmt.Sprintf("could not pick storage backend : %+v", err))
	}
	registry, err := newRegistry("")
	if err != nil {
		panic(fmt.Sprintf("could not open run registry : %+v", err))
	}

	curve := make([]float64, 0, len(cfg.Alphas))
	for _, alpha := range cfg.Alphas {
		for _, strategy := range cfg.Strategies {
			report, err := run(cfg, shard, registry, strategy, alpha, x, y, tx, ty)
			if err != nil {
				panic(fmt.Sprintf("could not calibrate %s at alpha %v : %+v", strategy, alpha, err))
			}
			log.Info().
				Str("strategy", report.Strategy).
				Float64("alpha", report.Alpha).
				Float64("coverage", report.Coverage).
				Float64("width", report.Width).
				Float64("gap", report.Gap()).
				Msg("report")
			if strategy == cfg.PlotStrategy {
				curve = append(curve, report.Coverage)
			}
		}
	}

	fmt.Printf("\nempirical coverage (%s) for alpha = %v\n\n", cfg.PlotStrategy, cfg.Alphas)
	fmt.Println(asciigraph.Plot(curve, asciigraph.Height(10), asciigraph.Caption("coverage per alpha step")))
}

// backend maps the configured name to the shard and registry factories
// serving the sweep.
func backend(name string) (storage.Shard, storage.EventRegistry, error) {
	switch name {
	case "blob":
		return json_storage.BlobShard("coverage"), json_storage.RunRegistry("coverage"), nil
	case "local":
		return json_storage.LocalShard(), storage.VoidEventRegistry(), nil
	case "void":
		return storage.VoidShard(), storage.VoidEventRegistry(), nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend '%s'", name)
}

func run(cfg Config, shard storage.Shard, registry storage.Registry, strategy conformal.Strategy, alpha float64, x [][]float64, y []float64, tx [][]float64, ty []float64) (metrics.Report, error) {
	r, err := conformal.FromConfig(predictor.NewLinear(), score.NewMAD(), conformal.Config{
		Strategy: strategy,
		K:        cfg.K,
		FitRatio: cfg.FitRatio,
		Seed:     cfg.Seed,
	})
	if err != nil {
		return metrics.Report{}, err
	}
	r = r.WithRegistry(registry)
	if err := r.Fit(context.Background(), x, y, alpha); err != nil {
		return metrics.Report{}, err
	}
	if strategy == conformal.Split || strategy == conformal.KFold {
		store, err := shard(string(strategy))
		if err != nil {
			return metrics.Report{}, err
		}
		key := storage.Key{Model: string(strategy), Run: fmt.Sprintf("alpha-%v", alpha), Label: "regression"}
		if err := r.Save(store, key); err != nil {
			log.Warn().Err(err).Str("strategy", string(strategy)).Msg("could not save state")
		}
	}
	_, intervals, err := r.Predict(tx)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.NewReport(string(strategy), alpha, intervals, ty)
}

// generate draws a noisy linear sample y = slope * x + e with gaussian noise.
func generate(cfg Config, n int, seed int64) ([][]float64, []float64) {
	xx := cmath.Series(0.1, n)
	noise := cmath.Gaussian(uint64(seed), 0, cfg.Noise, n)
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range xx {
		x[i] = []float64{xx[i]}
		y[i] = cfg.Slope*xx[i] + noise[i]
	}
	return x, y
}
