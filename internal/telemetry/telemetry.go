package telemetry

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var Observer = &Telemetry{
	mutex:      new(sync.RWMutex),
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(
		Observer.prometheus.Fits,
		Observer.prometheus.Predictions,
		Observer.prometheus.Degenerate,
		Observer.prometheus.Widths,
	)
}

// Telemetry tracks calibration activity counters and interval width distributions.
type Telemetry struct {
	mutex      *sync.RWMutex
	prometheus Prometheus
}

// Fit counts a completed calibration for the given labels.
func (t *Telemetry) Fit(labels ...string) {
	t.prometheus.Fits.WithLabelValues(labels...).Inc()
}

// Predict counts a served prediction for the given labels.
func (t *Telemetry) Predict(labels ...string) {
	t.prometheus.Predictions.WithLabelValues(labels...).Inc()
}

// Degenerate counts a calibration that could not certify the requested coverage.
func (t *Telemetry) Degenerate(labels ...string) {
	t.prometheus.Degenerate.WithLabelValues(labels...).Inc()
}

// Width tracks the produced interval width for the given labels.
func (t *Telemetry) Width(width float64, labels ...string) {
	t.prometheus.Widths.WithLabelValues(labels...).Observe(width)
}

// Serve exposes the metrics endpoint on the given port.
func Serve(port int) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
		if err != nil {
			log.Error().Err(err).Int("port", port).Msg("could not serve metrics")
		}
	}()
}
