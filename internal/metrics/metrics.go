package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"erpverify/internal/domain"
)

// Metrics holds the service's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runsInFlight    prometheus.Gauge
	callAttempts    *prometheus.CounterVec
	discrepancies   *prometheus.CounterVec
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erpverify",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total verification runs by final state and document type.",
		},
		[]string{"state", "document_type"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erpverify",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Verification run duration in seconds by final state.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"state"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "erpverify",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of verification runs in progress.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	callAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erpverify",
			Subsystem: "pipeline",
			Name:      "call_attempts_total",
			Help:      "External call attempts by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	discrepancies := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erpverify",
			Subsystem: "matching",
			Name:      "discrepancies_total",
			Help:      "Discrepancies reported by severity.",
		},
		[]string{"severity"},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erpverify",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erpverify",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(runsTotal, runDuration, runsInFlight, callAttempts, discrepancies, requestTotal, requestDuration)

	return &Metrics{
		registry:        registry,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		runsInFlight:    runsInFlight,
		callAttempts:    callAttempts,
		discrepancies:   discrepancies,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StartRun() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// FinishRun records a terminal result.
func (m *Metrics) FinishRun(res *domain.VerificationResult, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()

	docType := string(res.DocumentType)
	if docType == "" {
		docType = string(domain.DocumentTypeUnknown)
	}
	m.runsTotal.WithLabelValues(string(res.State), docType).Inc()
	m.runDuration.WithLabelValues(string(res.State)).Observe(duration.Seconds())
	for _, d := range res.Discrepancies {
		m.discrepancies.WithLabelValues(string(d.Severity)).Inc()
	}
}

// ObserveAttempt counts one external call attempt. Outcome is "success",
// "transient" or "permanent".
func (m *Metrics) ObserveAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.callAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if path == "" {
		path = "unmatched"
	}
	m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
