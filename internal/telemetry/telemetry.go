// Package telemetry collects Prometheus metrics for training runs. The CLI
// is short-lived, so metrics are exported to a node_exporter textfile rather
// than served over HTTP.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// Metrics holds the run metrics. Every vector is labelled by algorithm.
type Metrics struct {
	registry *prometheus.Registry

	FitsTotal    *prometheus.CounterVec   // Completed Fit calls
	FitFailures  *prometheus.CounterVec   // Fit calls that returned an error
	FitDuration  *prometheus.HistogramVec // Fit wall time in seconds
	Score        *prometheus.GaugeVec     // Test metric values, labelled by metric name
	TrainSamples prometheus.Gauge         // Rows in the training partition
	TestSamples  prometheus.Gauge         // Rows in the test partition
}

// New creates metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics registered on registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		FitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabml_fits_total",
			Help: "Total number of completed model fits",
		}, []string{"algorithm"}),
		FitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabml_fit_failures_total",
			Help: "Total number of model fits that returned an error",
		}, []string{"algorithm"}),
		FitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabml_fit_duration_seconds",
			Help:    "Model fit duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"algorithm"}),
		Score: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tabml_test_score",
			Help: "Test-set metric of the last evaluation",
		}, []string{"algorithm", "metric"}),
		TrainSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabml_train_samples",
			Help: "Number of rows in the training partition",
		}),
		TestSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabml_test_samples",
			Help: "Number of rows in the test partition",
		}),
	}
}

// ObserveFit records one Fit call. A non-nil err counts as a failure and
// its duration is not observed.
func (m *Metrics) ObserveFit(algorithm string, d time.Duration, err error) {
	if err != nil {
		m.FitFailures.WithLabelValues(algorithm).Inc()
		return
	}
	m.FitsTotal.WithLabelValues(algorithm).Inc()
	m.FitDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

// SetScore records a test metric such as "accuracy" or "rmse".
func (m *Metrics) SetScore(algorithm, metric string, v float64) {
	m.Score.WithLabelValues(algorithm, metric).Set(v)
}

// SetSplit records the partition sizes.
func (m *Metrics) SetSplit(train, test int) {
	m.TrainSamples.Set(float64(train))
	m.TestSamples.Set(float64(test))
}

// WriteTextfile writes all metrics in the Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
