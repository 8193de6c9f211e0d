package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	validateTotal    *prometheus.CounterVec
	validateDuration *prometheus.HistogramVec
	validateInFlight prometheus.Gauge
	queueLag         *prometheus.HistogramVec
	summariesTotal   *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	validateTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "worker",
			Name:      "validation_total",
			Help:      "Total validation requests handled by status.",
		},
		[]string{"service", "status"},
	)
	validateDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "worker",
			Name:      "validation_duration_seconds",
			Help:      "Validation duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	validateInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kyc",
			Subsystem: "worker",
			Name:      "validation_in_flight",
			Help:      "Number of in-flight validation tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between event publication and validation start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	summariesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "worker",
			Name:      "summaries_total",
			Help:      "Automatic compliance summaries by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(validateTotal, validateDuration, validateInFlight, queueLag, summariesTotal)

	return &WorkerMetrics{
		registry:         registry,
		validateTotal:    validateTotal,
		validateDuration: validateDuration,
		validateInFlight: validateInFlight,
		queueLag:         queueLag,
		summariesTotal:   summariesTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartValidation() {
	m.validateInFlight.Inc()
}

func (m *WorkerMetrics) FinishValidation(service string, duration time.Duration, err error) {
	m.validateInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.validateTotal.WithLabelValues(service, status).Inc()
	m.validateDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordSummary(service, status string) {
	m.summariesTotal.WithLabelValues(service, status).Inc()
}
