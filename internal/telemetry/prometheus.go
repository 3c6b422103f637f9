package telemetry

import "github.com/prometheus/client_golang/prometheus"

type Prometheus struct {
	Fits        *prometheus.CounterVec
	Predictions *prometheus.CounterVec
	Degenerate  *prometheus.CounterVec
	Widths      *prometheus.HistogramVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "puncc",
				Name:      "fits",
			}, []string{"strategy"}),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "puncc",
				Name:      "predictions",
			}, []string{"strategy"}),
		Degenerate: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "puncc",
				Name:      "degenerate",
			}, []string{"strategy"}),
		Widths: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "puncc",
				Name:      "interval_width",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
			}, []string{"strategy"}),
	}
}
