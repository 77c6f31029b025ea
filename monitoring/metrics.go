package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"churnguard/inference"
)

// Metrics records inference pipeline observations in Prometheus.
type Metrics struct {
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	defaulted   *prometheus.CounterVec
	latency     prometheus.Histogram
	latest      prometheus.Gauge
}

// NewMetrics registers the churn metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churn",
			Name:      "predictions_total",
			Help:      "Predictions served, by churn label.",
		}, []string{"label"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churn",
			Name:      "prediction_errors_total",
			Help:      "Failed prediction requests, by error kind.",
		}, []string{"kind"}),
		defaulted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churn",
			Name:      "defaulted_fields_total",
			Help:      "Input fields replaced with zero because they could not be interpreted.",
		}, []string{"feature"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "churn",
			Name:      "inference_duration_seconds",
			Help:      "Time spent transforming and scoring one request.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		latest: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "churn",
			Name:      "latest_probability",
			Help:      "Churn probability of the most recent prediction.",
		}),
	}
	reg.MustRegister(m.predictions, m.errors, m.defaulted, m.latency, m.latest)
	return m
}

func (m *Metrics) ObservePrediction(r inference.Result, elapsed time.Duration) {
	m.predictions.WithLabelValues(strconv.Itoa(r.Label)).Inc()
	m.latency.Observe(elapsed.Seconds())
	m.latest.Set(r.Probability)
}

func (m *Metrics) ObserveDefaulted(fields []string) {
	for _, f := range fields {
		m.defaulted.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) ObserveError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}
